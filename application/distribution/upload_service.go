package distribution

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"gdrive-share/domain/distribution"

	"github.com/dustin/go-humanize"
)

// UploadObserver is told about each file before its upload starts
type UploadObserver interface {
	BeginUpload(fileName string, size int64)
}

// UploadService handles file upload operations to Google Drive
type UploadService struct {
	driveClient distribution.DriveClient
	checker     distribution.FileChecker
	quota       *QuotaService
	folderID    string
	parentID    string
	observer    UploadObserver
	output      io.Writer
}

// NewUploadService creates a new upload service. An empty folderID uploads
// into the account's root folder.
func NewUploadService(client distribution.DriveClient, checker distribution.FileChecker, folderID string, output io.Writer) *UploadService {
	if output == nil {
		output = io.Discard
	}
	return &UploadService{
		driveClient: client,
		checker:     checker,
		quota:       NewQuotaService(client),
		folderID:    folderID,
		output:      output,
	}
}

// WithObserver sets the observer notified before each upload
func (s *UploadService) WithObserver(o UploadObserver) *UploadService {
	s.observer = o
	return s
}

// Upload uploads a local file, shares it with anyone holding the link and
// returns where it can be opened
func (s *UploadService) Upload(ctx context.Context, filePath string) (*distribution.UploadResult, error) {
	if !s.checker.Exists(filePath) {
		return nil, fmt.Errorf("%w: %s", distribution.ErrFileNotFound, filePath)
	}

	size, err := s.checker.Size(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", filePath, err)
	}

	parentID, err := s.resolveParent(ctx)
	if err != nil {
		return nil, err
	}

	fileName := filepath.Base(filePath)
	s.warnIfFull(ctx, fileName, size)

	if s.observer != nil {
		s.observer.BeginUpload(fileName, size)
	}

	url, err := s.driveClient.UploadToGDrive(ctx, filePath, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to upload and share %s: %w", fileName, err)
	}

	fileID, _ := distribution.FileIDFromShareURL(url)
	return &distribution.UploadResult{
		FileID:       fileID,
		FileName:     fileName,
		ShareableURL: url,
		Size:         size,
	}, nil
}

// UploadAll uploads files one after another and stops at the first failure.
// The results of the uploads that succeeded are returned with the error.
func (s *UploadService) UploadAll(ctx context.Context, filePaths []string) ([]*distribution.UploadResult, error) {
	results := make([]*distribution.UploadResult, 0, len(filePaths))
	for _, p := range filePaths {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := s.Upload(ctx, p)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// resolveParent returns the configured folder, or the root folder ID
// looked up once and reused
func (s *UploadService) resolveParent(ctx context.Context) (string, error) {
	if s.folderID != "" {
		return s.folderID, nil
	}
	if s.parentID != "" {
		return s.parentID, nil
	}

	rootID, err := s.driveClient.GetRootFolderID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root folder: %w", err)
	}
	if rootID == "" {
		return "", fmt.Errorf("failed to resolve root folder: empty folder ID")
	}
	s.parentID = rootID
	return rootID, nil
}

// warnIfFull prints a warning when the known quota cannot hold size bytes.
// The upload still proceeds; Drive has the final word.
func (s *UploadService) warnIfFull(ctx context.Context, fileName string, size int64) {
	info, err := s.quota.Report(ctx)
	if err != nil {
		fmt.Fprintf(s.output, "      Warning: could not check storage quota: %v\n", err)
		return
	}
	if !info.HasSpaceFor(size) {
		fmt.Fprintf(s.output, "      Warning: %s needs %s but only %s is available\n",
			fileName, humanize.IBytes(uint64(size)), humanize.IBytes(uint64(info.AvailableBytes())))
	}
}
