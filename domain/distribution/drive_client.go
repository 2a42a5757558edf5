package distribution

import "context"

// DriveClient defines the interface for Google Drive operations
// bound to an authenticated session.
// This is a port that can be implemented by different infrastructure adapters
type DriveClient interface {
	// GetQuotaUsed returns the bytes used, or QuotaUnknown
	GetQuotaUsed(ctx context.Context) (int64, error)

	// GetQuotaTotal returns the storage limit, or QuotaUnknown
	GetQuotaTotal(ctx context.Context) (int64, error)

	// UploadToGDrive uploads a local file into a folder, shares it publicly
	// and returns its shareable URL
	UploadToGDrive(ctx context.Context, localPath, parentID string) (string, error)

	// GetRootFolderID resolves the "root" alias to the account's root folder ID
	GetRootFolderID(ctx context.Context) (string, error)
}

// FileChecker inspects local files before they are uploaded
type FileChecker interface {
	Exists(path string) bool
	Size(path string) (int64, error)
}

// MimeTypeResolver maps a file name to a content type by its extension.
// Implementations return DefaultMimeType rather than failing.
type MimeTypeResolver interface {
	MimeType(fileName string) string
}

// DefaultMimeType is used when no content type is known for an extension
const DefaultMimeType = "application/unknown"
