package drive

import (
	"errors"
	"fmt"

	"gdrive-share/domain/distribution"

	"google.golang.org/api/googleapi"
)

// BackendError is returned when a Drive API request fails.
// errors.Is(err, distribution.ErrBackend) holds for every BackendError, and
// errors.As reaches the underlying *googleapi.Error when there is one.
type BackendError struct {
	Op         string // operation that failed, e.g. "create file"
	StatusCode int    // HTTP status, 0 for transport failures
	Reason     string // first googleapi error reason, e.g. "insufficientPermissions"
	Err        error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() []error {
	return []error{distribution.ErrBackend, e.Err}
}

// InsufficientPermissions reports whether the token lacks the scopes for the request
func (e *BackendError) InsufficientPermissions() bool {
	return e.Reason == "insufficientPermissions"
}

func newBackendError(op string, err error) *BackendError {
	be := &BackendError{Op: op, Err: err}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		be.StatusCode = apiErr.Code
		if len(apiErr.Errors) > 0 {
			be.Reason = apiErr.Errors[0].Reason
		}
	}
	return be
}
