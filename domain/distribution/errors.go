package distribution

import "errors"

var (
	// ErrLocalIO is returned when the file to upload cannot be read
	ErrLocalIO = errors.New("local file error")

	// ErrAuth is returned when the authorization flow fails or is cancelled
	ErrAuth = errors.New("authorization failed")

	// ErrBackend is returned when a Drive API request fails
	ErrBackend = errors.New("drive backend error")

	// ErrFileNotFound is returned when an upload is requested for a missing file
	ErrFileNotFound = errors.New("file does not exist")

	// ErrInsufficientSpace is returned when the quota cannot hold a file
	ErrInsufficientSpace = errors.New("insufficient drive storage")
)
