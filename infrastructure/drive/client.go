package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gdrive-share/domain/distribution"
	"gdrive-share/infrastructure/mimetype"

	"google.golang.org/api/drive/v3"
)

// RootFolderAlias is the Drive alias for the account's root folder
const RootFolderAlias = "root"

// Client performs Drive operations on a borrowed Session.
// It keeps no state between calls besides its registered notification handlers.
type Client struct {
	mu         sync.RWMutex
	onProgress []distribution.ProgressHandler
	onComplete []distribution.CompletionHandler

	mimeTypes distribution.MimeTypeResolver
	logger    *slog.Logger
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithProgressHandler registers a handler for upload progress notifications
func WithProgressHandler(h distribution.ProgressHandler) ClientOption {
	return func(c *Client) {
		c.onProgress = append(c.onProgress, h)
	}
}

// WithCompletionHandler registers a handler for the upload completed notification
func WithCompletionHandler(h distribution.CompletionHandler) ClientOption {
	return func(c *Client) {
		c.onComplete = append(c.onComplete, h)
	}
}

// WithMimeTypeResolver replaces the default extension table
func WithMimeTypeResolver(r distribution.MimeTypeResolver) ClientOption {
	return func(c *Client) {
		c.mimeTypes = r
	}
}

// WithLogger sets the logger for request diagnostics
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Google Drive client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{}

	for _, opt := range opts {
		opt(c)
	}

	if c.mimeTypes == nil {
		c.mimeTypes = mimetype.NewResolver()
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return c
}

// OnUploadProgress registers a progress handler. Safe to call during an upload;
// the handler sees notifications raised after registration.
func (c *Client) OnUploadProgress(h distribution.ProgressHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onProgress = append(c.onProgress, h)
}

// OnUploadCompleted registers a completion handler
func (c *Client) OnUploadCompleted(h distribution.CompletionHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onComplete = append(c.onComplete, h)
}

// GetQuotaUsed returns the used storage in bytes, or distribution.QuotaUnknown
// if the account does not report usage
func (c *Client) GetQuotaUsed(ctx context.Context, session Session) (int64, error) {
	quota, err := c.storageQuota(ctx, session)
	if err != nil {
		return distribution.QuotaUnknown, err
	}
	if quota.Usage == nil {
		return distribution.QuotaUnknown, nil
	}
	return *quota.Usage, nil
}

// GetQuotaTotal returns the storage limit in bytes, or distribution.QuotaUnknown
// if the account reports no limit
func (c *Client) GetQuotaTotal(ctx context.Context, session Session) (int64, error) {
	quota, err := c.storageQuota(ctx, session)
	if err != nil {
		return distribution.QuotaUnknown, err
	}
	if quota.Limit == nil {
		return distribution.QuotaUnknown, nil
	}
	return *quota.Limit, nil
}

func (c *Client) storageQuota(ctx context.Context, session Session) (*StorageQuota, error) {
	quota, err := session.GetStorageQuota(ctx)
	if err != nil {
		return nil, newBackendError("get storage quota", err)
	}
	if quota == nil {
		quota = &StorageQuota{}
	}
	return quota, nil
}

// UploadToGDrive uploads localPath into the folder parentID, grants
// "anyone with the link" read access and returns the shareable URL.
//
// If granting the permission fails the uploaded file is left in place unshared.
func (c *Client) UploadToGDrive(ctx context.Context, session Session, localPath, parentID string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %w", distribution.ErrLocalIO, localPath, err)
	}

	req := c.newUploadRequest(localPath, parentID)
	body := &drive.File{
		Name:        req.FileName,
		Description: req.Description,
		MimeType:    req.MimeType,
		Parents:     []string{req.FolderID},
	}

	c.logger.Debug("uploading file",
		slog.String("path", localPath),
		slog.String("parent", parentID),
		slog.String("mime_type", req.MimeType),
		slog.Int("bytes", len(data)),
	)

	created, err := session.CreateFile(ctx, body, bytes.NewReader(data), func(current, _ int64) {
		c.notifyProgress(distribution.UploadProgress{
			Status:    distribution.StatusInProgress,
			BytesSent: current,
		})
	})
	if err != nil {
		return "", newBackendError("create file", err)
	}
	if created == nil || created.Id == "" {
		return "", newBackendError("create file", errors.New("response carried no file id"))
	}

	c.notifyProgress(distribution.UploadProgress{
		Status:    distribution.StatusCompleted,
		BytesSent: int64(len(data)),
	})

	name := created.Name
	if name == "" {
		name = req.FileName
	}
	c.notifyCompleted(distribution.UploadCompleted{FileName: name})

	if err := c.shareWithAnyone(ctx, session, created.Id); err != nil {
		return "", err
	}

	c.logger.Info("file uploaded and shared",
		slog.String("name", name),
		slog.String("file_id", created.Id),
	)

	return distribution.ShareURL(created.Id), nil
}

// GetRootFolderID resolves the root alias to the concrete folder ID.
// An empty ID in the response is returned as "".
func (c *Client) GetRootFolderID(ctx context.Context, session Session) (string, error) {
	f, err := session.GetFile(ctx, RootFolderAlias, "id")
	if err != nil {
		return "", newBackendError("get root folder", err)
	}
	if f == nil {
		return "", nil
	}
	return f.Id, nil
}

// ForSession binds the client to a session, producing a distribution.DriveClient
func (c *Client) ForSession(session Session) *SessionClient {
	return &SessionClient{client: c, session: session}
}

func (c *Client) newUploadRequest(localPath, parentID string) distribution.UploadRequest {
	return distribution.UploadRequest{
		LocalPath:   localPath,
		FileName:    filepath.Base(localPath),
		Description: localPath,
		FolderID:    parentID,
		MimeType:    c.mimeTypes.MimeType(localPath),
	}
}

func (c *Client) shareWithAnyone(ctx context.Context, session Session, fileID string) error {
	permission := &drive.Permission{
		Type: distribution.PermissionTypeAnyone,
		Role: distribution.PermissionRoleReader,
	}
	if _, err := session.CreatePermission(ctx, fileID, permission); err != nil {
		return newBackendError("set sharing permission", err)
	}
	return nil
}

func (c *Client) notifyProgress(p distribution.UploadProgress) {
	c.mu.RLock()
	handlers := append([]distribution.ProgressHandler(nil), c.onProgress...)
	c.mu.RUnlock()

	for _, h := range handlers {
		h(p)
	}
}

func (c *Client) notifyCompleted(e distribution.UploadCompleted) {
	c.mu.RLock()
	handlers := append([]distribution.CompletionHandler(nil), c.onComplete...)
	c.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// SessionClient implements distribution.DriveClient for one session
type SessionClient struct {
	client  *Client
	session Session
}

// GetQuotaUsed implements distribution.DriveClient
func (s *SessionClient) GetQuotaUsed(ctx context.Context) (int64, error) {
	return s.client.GetQuotaUsed(ctx, s.session)
}

// GetQuotaTotal implements distribution.DriveClient
func (s *SessionClient) GetQuotaTotal(ctx context.Context) (int64, error) {
	return s.client.GetQuotaTotal(ctx, s.session)
}

// UploadToGDrive implements distribution.DriveClient
func (s *SessionClient) UploadToGDrive(ctx context.Context, localPath, parentID string) (string, error) {
	return s.client.UploadToGDrive(ctx, s.session, localPath, parentID)
}

// GetRootFolderID implements distribution.DriveClient
func (s *SessionClient) GetRootFolderID(ctx context.Context) (string, error) {
	return s.client.GetRootFolderID(ctx, s.session)
}

// Ensure SessionClient implements distribution.DriveClient
var _ distribution.DriveClient = (*SessionClient)(nil)
