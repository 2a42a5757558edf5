package distribution

import "strings"

// ShareURLPrefix is prepended to a Drive file ID to form its shareable link
const ShareURLPrefix = "https://drive.google.com/open?id="

// Permission granted on every uploaded file ("anyone with the link can view")
const (
	PermissionTypeAnyone = "anyone"
	PermissionRoleReader = "reader"
)

// UploadRequest contains the parameters needed to upload a file to Google Drive
type UploadRequest struct {
	LocalPath   string // Full path to the local file
	FileName    string // Target filename in Google Drive
	Description string // Stored as the Drive file description
	FolderID    string // Target folder ID in Google Drive
	MimeType    string // MIME type of the file
}

// UploadResult contains the result of a successful upload
type UploadResult struct {
	FileID       string // Google Drive file ID
	FileName     string // Name of the uploaded file
	ShareableURL string // URL for sharing the file
	Size         int64  // Size of the uploaded file in bytes
}

// ShareURL returns the shareable link for a Drive file ID
func ShareURL(fileID string) string {
	return ShareURLPrefix + fileID
}

// FileIDFromShareURL extracts the file ID from a link built by ShareURL.
// It returns false if url does not carry the share prefix.
func FileIDFromShareURL(url string) (string, bool) {
	if !strings.HasPrefix(url, ShareURLPrefix) {
		return "", false
	}
	return strings.TrimPrefix(url, ShareURLPrefix), true
}
