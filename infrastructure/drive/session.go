package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"gdrive-share/domain/distribution"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Session is an authenticated handle to the Drive backend.
// Client methods borrow it per call; this also allows mocking the Google Drive API in tests
type Session interface {
	GetStorageQuota(ctx context.Context) (*StorageQuota, error)
	CreateFile(ctx context.Context, file *drive.File, media io.Reader, progress googleapi.ProgressUpdater) (*drive.File, error)
	CreatePermission(ctx context.Context, fileID string, permission *drive.Permission) (*drive.Permission, error)
	GetFile(ctx context.Context, fileID string, fields string) (*drive.File, error)
}

// StorageQuota holds the quota fields of the about resource.
// A nil field was not reported by the backend.
type StorageQuota struct {
	Limit *int64
	Usage *int64
}

// GoogleDriveService is the production Session using the Google Drive API
type GoogleDriveService struct {
	service   *drive.Service
	client    *http.Client
	chunkSize int
}

// NewGoogleDriveService creates a Drive session that issues requests through client.
// opts are passed to the Drive SDK after the HTTP client (e.g. option.WithEndpoint).
func NewGoogleDriveService(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*GoogleDriveService, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	return &GoogleDriveService{service: srv, client: client}, nil
}

// NewServiceAccountSession creates a Drive session from service account JSON credentials
func NewServiceAccountSession(ctx context.Context, credentialsPath string, scopes []string, opts ...option.ClientOption) (*GoogleDriveService, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read credentials file: %w", distribution.ErrAuth, err)
	}

	config, err := google.JWTConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to parse credentials: %w", distribution.ErrAuth, err)
	}

	return NewGoogleDriveService(ctx, config.Client(ctx), opts...)
}

// SetChunkSize sets the resumable upload chunk size in bytes.
// Files larger than one chunk are uploaded resumably and report progress per chunk.
// Zero keeps the SDK default.
func (s *GoogleDriveService) SetChunkSize(bytes int) {
	s.chunkSize = bytes
}

// GetStorageQuota fetches storageQuota from the about resource.
// The generated drive.About type decodes an absent limit as 0, so the
// response is decoded here to keep "not reported" apart from a real 0.
func (s *GoogleDriveService) GetStorageQuota(ctx context.Context) (*StorageQuota, error) {
	params := url.Values{}
	params.Set("alt", "json")
	params.Set("prettyPrint", "false")
	params.Set("fields", "storageQuota(limit,usage)")
	endpoint := googleapi.ResolveRelative(s.service.BasePath, "about") + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer googleapi.CloseBody(res)

	if err := googleapi.CheckResponse(res); err != nil {
		return nil, err
	}

	var about struct {
		StorageQuota *struct {
			Limit *json.Number `json:"limit"`
			Usage *json.Number `json:"usage"`
		} `json:"storageQuota"`
	}
	if err := json.NewDecoder(res.Body).Decode(&about); err != nil {
		return nil, fmt.Errorf("unable to decode about response: %w", err)
	}

	quota := &StorageQuota{}
	if about.StorageQuota == nil {
		return quota, nil
	}
	if quota.Limit, err = parseQuotaValue(about.StorageQuota.Limit); err != nil {
		return nil, fmt.Errorf("invalid quota limit: %w", err)
	}
	if quota.Usage, err = parseQuotaValue(about.StorageQuota.Usage); err != nil {
		return nil, fmt.Errorf("invalid quota usage: %w", err)
	}
	return quota, nil
}

func parseQuotaValue(n *json.Number) (*int64, error) {
	if n == nil {
		return nil, nil
	}
	v, err := n.Int64()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateFile uploads media as a new file described by file
func (s *GoogleDriveService) CreateFile(ctx context.Context, file *drive.File, media io.Reader, progress googleapi.ProgressUpdater) (*drive.File, error) {
	mediaOpts := []googleapi.MediaOption{googleapi.ContentType(file.MimeType)}
	if s.chunkSize > 0 {
		mediaOpts = append(mediaOpts, googleapi.ChunkSize(s.chunkSize))
	}

	call := s.service.Files.Create(file).
		Media(media, mediaOpts...).
		Fields(googleapi.Field("id, name, mimeType, size, parents")).
		Context(ctx)
	if progress != nil {
		call = call.ProgressUpdater(progress)
	}
	return call.Do()
}

// CreatePermission grants permission on a file
func (s *GoogleDriveService) CreatePermission(ctx context.Context, fileID string, permission *drive.Permission) (*drive.Permission, error) {
	return s.service.Permissions.Create(fileID, permission).
		Fields(googleapi.Field("id, type, role")).
		Context(ctx).
		Do()
}

// GetFile fetches file metadata; fileID may be an alias such as "root"
func (s *GoogleDriveService) GetFile(ctx context.Context, fileID string, fields string) (*drive.File, error) {
	return s.service.Files.Get(fileID).
		Fields(googleapi.Field(fields)).
		Context(ctx).
		Do()
}

// Ensure GoogleDriveService implements Session
var _ Session = (*GoogleDriveService)(nil)
