package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gdrive-share/domain/distribution"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// permissionCall records one CreatePermission invocation
type permissionCall struct {
	fileID     string
	permission *drive.Permission
}

// mockSession is a mock implementation for testing
type mockSession struct {
	quota    *StorageQuota
	quotaErr error

	createdID    string
	createdName  string
	createErr    error
	progressTick []int64 // bytes reported through the progress updater before returning
	createdFiles []*drive.File
	uploadedData [][]byte

	permissionErr   error
	permissionCalls []permissionCall

	rootID     string
	getFileErr error
	getFileIDs []string
}

func (m *mockSession) GetStorageQuota(ctx context.Context) (*StorageQuota, error) {
	if m.quotaErr != nil {
		return nil, m.quotaErr
	}
	return m.quota, nil
}

func (m *mockSession) CreateFile(ctx context.Context, file *drive.File, media io.Reader, progress googleapi.ProgressUpdater) (*drive.File, error) {
	data, err := io.ReadAll(media)
	if err != nil {
		return nil, err
	}
	m.createdFiles = append(m.createdFiles, file)
	m.uploadedData = append(m.uploadedData, data)

	for _, sent := range m.progressTick {
		if progress != nil {
			progress(sent, int64(len(data)))
		}
	}
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &drive.File{Id: m.createdID, Name: m.createdName}, nil
}

func (m *mockSession) CreatePermission(ctx context.Context, fileID string, permission *drive.Permission) (*drive.Permission, error) {
	m.permissionCalls = append(m.permissionCalls, permissionCall{fileID: fileID, permission: permission})
	if m.permissionErr != nil {
		return nil, m.permissionErr
	}
	return &drive.Permission{Id: "anyoneWithLink", Type: permission.Type, Role: permission.Role}, nil
}

func (m *mockSession) GetFile(ctx context.Context, fileID string, fields string) (*drive.File, error) {
	m.getFileIDs = append(m.getFileIDs, fileID)
	if m.getFileErr != nil {
		return nil, m.getFileErr
	}
	return &drive.File{Id: m.rootID}, nil
}

// eventLog records notifications in delivery order
type eventLog struct {
	progress  []distribution.UploadProgress
	completed []distribution.UploadCompleted
	order     []string
}

func (l *eventLog) options() []ClientOption {
	return []ClientOption{
		WithProgressHandler(func(p distribution.UploadProgress) {
			l.progress = append(l.progress, p)
			l.order = append(l.order, "progress")
		}),
		WithCompletionHandler(func(c distribution.UploadCompleted) {
			l.completed = append(l.completed, c)
			l.order = append(l.order, "completed")
		}),
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}

func writeTestFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestClient_GetQuotaUsed(t *testing.T) {
	tests := []struct {
		name    string
		mock    *mockSession
		want    int64
		wantErr bool
	}{
		{
			name: "returns reported usage",
			mock: &mockSession{quota: &StorageQuota{Usage: int64Ptr(5_000_000_000)}},
			want: 5_000_000_000,
		},
		{
			name: "zero usage is not the sentinel",
			mock: &mockSession{quota: &StorageQuota{Usage: int64Ptr(0)}},
			want: 0,
		},
		{
			name: "missing usage returns sentinel",
			mock: &mockSession{quota: &StorageQuota{Limit: int64Ptr(100)}},
			want: distribution.QuotaUnknown,
		},
		{
			name: "empty response returns sentinel",
			mock: &mockSession{},
			want: distribution.QuotaUnknown,
		},
		{
			name:    "handles API error",
			mock:    &mockSession{quotaErr: fmt.Errorf("googleapi: Error 401: Invalid Credentials")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient()

			got, err := client.GetQuotaUsed(context.Background(), tt.mock)

			if tt.wantErr {
				if !errors.Is(err, distribution.ErrBackend) {
					t.Errorf("expected backend error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestClient_GetQuotaTotal(t *testing.T) {
	tests := []struct {
		name    string
		mock    *mockSession
		want    int64
		wantErr bool
	}{
		{
			name: "returns reported limit",
			mock: &mockSession{quota: &StorageQuota{Limit: int64Ptr(15_000_000_000)}},
			want: 15_000_000_000,
		},
		{
			name: "zero limit is not the sentinel",
			mock: &mockSession{quota: &StorageQuota{Limit: int64Ptr(0)}},
			want: 0,
		},
		{
			name: "missing limit returns sentinel",
			mock: &mockSession{quota: &StorageQuota{Usage: int64Ptr(5_000_000_000)}},
			want: distribution.QuotaUnknown,
		},
		{
			name:    "handles API error",
			mock:    &mockSession{quotaErr: fmt.Errorf("connection reset")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient()

			got, err := client.GetQuotaTotal(context.Background(), tt.mock)

			if tt.wantErr {
				if !errors.Is(err, distribution.ErrBackend) {
					t.Errorf("expected backend error, got %v", err)
				}
				if !containsString(err.Error(), "failed to get storage quota") {
					t.Errorf("expected error to name the operation, got %q", err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestClient_UploadToGDrive(t *testing.T) {
	path := writeTestFile(t, "report.pdf", 10000)
	mock := &mockSession{createdID: "file789", createdName: "report.pdf"}
	events := &eventLog{}

	client := NewClient(events.options()...)

	url, err := client.UploadToGDrive(context.Background(), mock, path, "folder123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if url != "https://drive.google.com/open?id=file789" {
		t.Errorf("unexpected URL %q", url)
	}

	if len(mock.createdFiles) != 1 {
		t.Fatalf("expected 1 create call, got %d", len(mock.createdFiles))
	}
	meta := mock.createdFiles[0]
	if meta.Name != "report.pdf" {
		t.Errorf("expected name 'report.pdf', got %q", meta.Name)
	}
	if meta.Description != path {
		t.Errorf("expected description to be the local path %q, got %q", path, meta.Description)
	}
	if meta.MimeType != "application/pdf" {
		t.Errorf("expected MIME type 'application/pdf', got %q", meta.MimeType)
	}
	if len(meta.Parents) != 1 || meta.Parents[0] != "folder123" {
		t.Errorf("expected parents [folder123], got %v", meta.Parents)
	}
	if len(mock.uploadedData[0]) != 10000 {
		t.Errorf("expected 10000 bytes uploaded, got %d", len(mock.uploadedData[0]))
	}

	if len(events.completed) != 1 {
		t.Fatalf("expected 1 completion notification, got %d", len(events.completed))
	}
	if events.completed[0].FileName != "report.pdf" {
		t.Errorf("expected completion for 'report.pdf', got %q", events.completed[0].FileName)
	}

	if len(mock.permissionCalls) != 1 {
		t.Fatalf("expected 1 permission call, got %d", len(mock.permissionCalls))
	}
	call := mock.permissionCalls[0]
	if call.fileID != "file789" {
		t.Errorf("expected permission on 'file789', got %q", call.fileID)
	}
	if call.permission.Type != "anyone" || call.permission.Role != "reader" {
		t.Errorf("expected anyone/reader permission, got %s/%s", call.permission.Type, call.permission.Role)
	}
}

func TestClient_UploadToGDrive_ProgressOrdering(t *testing.T) {
	path := writeTestFile(t, "big.bin", 10000)
	mock := &mockSession{
		createdID:    "file-1",
		createdName:  "big.bin",
		progressTick: []int64{4096, 8192, 10000},
	}
	events := &eventLog{}

	client := NewClient(events.options()...)

	if _, err := client.UploadToGDrive(context.Background(), mock, path, "folder"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantOrder := []string{"progress", "progress", "progress", "progress", "completed"}
	if strings.Join(events.order, ",") != strings.Join(wantOrder, ",") {
		t.Fatalf("expected order %v, got %v", wantOrder, events.order)
	}

	wantProgress := []distribution.UploadProgress{
		{Status: distribution.StatusInProgress, BytesSent: 4096},
		{Status: distribution.StatusInProgress, BytesSent: 8192},
		{Status: distribution.StatusInProgress, BytesSent: 10000},
		{Status: distribution.StatusCompleted, BytesSent: 10000},
	}
	for i, want := range wantProgress {
		if events.progress[i] != want {
			t.Errorf("progress[%d]: expected %+v, got %+v", i, want, events.progress[i])
		}
	}
}

func TestClient_UploadToGDrive_Failures(t *testing.T) {
	forbidden := &googleapi.Error{
		Code:    403,
		Message: "The user does not have sufficient permissions for this file.",
		Errors:  []googleapi.ErrorItem{{Reason: "insufficientPermissions"}},
	}

	tests := []struct {
		name            string
		mock            *mockSession
		wantOp          string
		wantCompleted   int
		wantPermissions int
		wantProgress    []distribution.UploadProgress
	}{
		{
			name:            "create fails after a progress tick",
			mock:            &mockSession{createErr: forbidden, progressTick: []int64{512}},
			wantOp:          "create file",
			wantCompleted:   0,
			wantPermissions: 0,
			wantProgress: []distribution.UploadProgress{
				{Status: distribution.StatusInProgress, BytesSent: 512},
			},
		},
		{
			name:            "response without file id",
			mock:            &mockSession{createdName: "notes.txt"},
			wantOp:          "create file",
			wantCompleted:   0,
			wantPermissions: 0,
		},
		{
			name:            "permission grant fails after upload",
			mock:            &mockSession{createdID: "file-2", createdName: "notes.txt", permissionErr: forbidden},
			wantOp:          "set sharing permission",
			wantCompleted:   1,
			wantPermissions: 1,
			wantProgress: []distribution.UploadProgress{
				{Status: distribution.StatusCompleted, BytesSent: 1024},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestFile(t, "notes.txt", 1024)
			events := &eventLog{}
			client := NewClient(events.options()...)

			url, err := client.UploadToGDrive(context.Background(), tt.mock, path, "folder")

			if err == nil {
				t.Fatal("expected error but got none")
			}
			if url != "" {
				t.Errorf("expected no URL on failure, got %q", url)
			}
			if !errors.Is(err, distribution.ErrBackend) {
				t.Errorf("expected backend error, got %v", err)
			}

			var backendErr *BackendError
			if !errors.As(err, &backendErr) {
				t.Fatalf("expected *BackendError, got %T", err)
			}
			if backendErr.Op != tt.wantOp {
				t.Errorf("expected op %q, got %q", tt.wantOp, backendErr.Op)
			}

			if len(events.completed) != tt.wantCompleted {
				t.Errorf("expected %d completion notifications, got %d", tt.wantCompleted, len(events.completed))
			}
			if len(tt.mock.permissionCalls) != tt.wantPermissions {
				t.Errorf("expected %d permission calls, got %d", tt.wantPermissions, len(tt.mock.permissionCalls))
			}
			if len(events.progress) != len(tt.wantProgress) {
				t.Fatalf("expected %d progress notifications, got %d", len(tt.wantProgress), len(events.progress))
			}
			for i, want := range tt.wantProgress {
				if events.progress[i] != want {
					t.Errorf("progress[%d]: expected %+v, got %+v", i, want, events.progress[i])
				}
			}
		})
	}
}

func TestClient_UploadToGDrive_MissingLocalFile(t *testing.T) {
	mock := &mockSession{createdID: "never"}
	events := &eventLog{}
	client := NewClient(events.options()...)

	_, err := client.UploadToGDrive(context.Background(), mock, filepath.Join(t.TempDir(), "missing.pdf"), "folder")

	if !errors.Is(err, distribution.ErrLocalIO) {
		t.Fatalf("expected local IO error, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
	if len(mock.createdFiles) != 0 {
		t.Errorf("expected no create calls, got %d", len(mock.createdFiles))
	}
	if len(events.progress)+len(events.completed) != 0 {
		t.Error("expected no notifications for unreadable file")
	}
}

func TestClient_UploadToGDrive_CompletionFallsBackToBaseName(t *testing.T) {
	path := writeTestFile(t, "slides.pptx", 10)
	mock := &mockSession{createdID: "file-3"}
	events := &eventLog{}
	client := NewClient(events.options()...)

	if _, err := client.UploadToGDrive(context.Background(), mock, path, "folder"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events.completed) != 1 || events.completed[0].FileName != "slides.pptx" {
		t.Errorf("expected completion for base name 'slides.pptx', got %+v", events.completed)
	}
}

func TestClient_UploadToGDrive_CustomMimeResolver(t *testing.T) {
	path := writeTestFile(t, "archive.custom", 10)
	mock := &mockSession{createdID: "file-4"}

	client := NewClient(WithMimeTypeResolver(fixedResolver("application/x-custom")))

	if _, err := client.UploadToGDrive(context.Background(), mock, path, "folder"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.createdFiles[0].MimeType != "application/x-custom" {
		t.Errorf("expected custom MIME type, got %q", mock.createdFiles[0].MimeType)
	}
}

func TestClient_RegisterHandlerDuringUpload(t *testing.T) {
	path := writeTestFile(t, "late.txt", 100)
	mock := &mockSession{createdID: "file-5", progressTick: []int64{50}}
	client := NewClient()

	var completed []string
	client.OnUploadProgress(func(p distribution.UploadProgress) {
		if p.Status == distribution.StatusInProgress {
			client.OnUploadCompleted(func(c distribution.UploadCompleted) {
				completed = append(completed, c.FileName)
			})
		}
	})

	if _, err := client.UploadToGDrive(context.Background(), mock, path, "folder"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(completed) != 1 || completed[0] != "late.txt" {
		t.Errorf("expected late-registered handler to see completion, got %v", completed)
	}
}

func TestClient_GetRootFolderID(t *testing.T) {
	tests := []struct {
		name    string
		mock    *mockSession
		want    string
		wantErr bool
	}{
		{
			name: "resolves root alias",
			mock: &mockSession{rootID: "0AEXAMPLErootUk9PVA"},
			want: "0AEXAMPLErootUk9PVA",
		},
		{
			name: "empty id is returned as is",
			mock: &mockSession{},
			want: "",
		},
		{
			name:    "handles API error",
			mock:    &mockSession{getFileErr: fmt.Errorf("googleapi: Error 500: backend error")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient()

			got, err := client.GetRootFolderID(context.Background(), tt.mock)

			if len(tt.mock.getFileIDs) != 1 || tt.mock.getFileIDs[0] != "root" {
				t.Errorf("expected a single lookup of 'root', got %v", tt.mock.getFileIDs)
			}
			if tt.wantErr {
				if !errors.Is(err, distribution.ErrBackend) {
					t.Errorf("expected backend error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSessionClient_Delegates(t *testing.T) {
	path := writeTestFile(t, "a.txt", 3)
	mock := &mockSession{
		quota:     &StorageQuota{Usage: int64Ptr(10), Limit: int64Ptr(20)},
		createdID: "file-6",
		rootID:    "root-id",
	}

	var dc distribution.DriveClient = NewClient().ForSession(mock)
	ctx := context.Background()

	used, err := dc.GetQuotaUsed(ctx)
	if err != nil || used != 10 {
		t.Errorf("GetQuotaUsed = (%d, %v), want (10, nil)", used, err)
	}
	total, err := dc.GetQuotaTotal(ctx)
	if err != nil || total != 20 {
		t.Errorf("GetQuotaTotal = (%d, %v), want (20, nil)", total, err)
	}
	root, err := dc.GetRootFolderID(ctx)
	if err != nil || root != "root-id" {
		t.Errorf("GetRootFolderID = (%q, %v), want (root-id, nil)", root, err)
	}
	url, err := dc.UploadToGDrive(ctx, path, root)
	if err != nil || url != distribution.ShareURL("file-6") {
		t.Errorf("UploadToGDrive = (%q, %v)", url, err)
	}
}

func TestBackendError_ClassifiesGoogleAPIErrors(t *testing.T) {
	apiErr := &googleapi.Error{
		Code:   403,
		Errors: []googleapi.ErrorItem{{Reason: "insufficientPermissions"}},
	}

	err := newBackendError("create file", apiErr)

	if err.StatusCode != 403 {
		t.Errorf("expected status 403, got %d", err.StatusCode)
	}
	if !err.InsufficientPermissions() {
		t.Error("expected insufficient permissions to be detected")
	}

	var unwrapped *googleapi.Error
	if !errors.As(err, &unwrapped) || unwrapped != apiErr {
		t.Error("expected errors.As to reach the googleapi error")
	}

	plain := newBackendError("get root folder", errors.New("dial tcp: timeout"))
	if plain.StatusCode != 0 || plain.InsufficientPermissions() {
		t.Errorf("expected transport error to carry no status, got %+v", plain)
	}
}

type fixedResolver string

func (r fixedResolver) MimeType(string) string {
	return string(r)
}

// Helper function
func containsString(s, substr string) bool {
	return strings.Contains(s, substr)
}
