package distribution

// UploadStatus is the transfer state reported with each progress notification
type UploadStatus int

const (
	StatusNotStarted UploadStatus = iota
	StatusInProgress
	StatusCompleted
	// StatusFailed is part of the status set but never delivered: a failed
	// upload surfaces as an error instead of a notification.
	StatusFailed
)

func (s UploadStatus) String() string {
	switch s {
	case StatusNotStarted:
		return "not started"
	case StatusInProgress:
		return "in progress"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// UploadProgress is delivered to progress handlers while an upload runs
type UploadProgress struct {
	Status    UploadStatus
	BytesSent int64
}

// UploadCompleted is delivered once when the backend confirms the created file
type UploadCompleted struct {
	FileName string
}

// ProgressHandler receives upload progress notifications.
// Handlers run on the uploading goroutine and must return quickly.
type ProgressHandler func(UploadProgress)

// CompletionHandler receives the upload completed notification
type CompletionHandler func(UploadCompleted)
