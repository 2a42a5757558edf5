//go:build integration

package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gdrive-share/cmd"
	"gdrive-share/domain/distribution"
	"gdrive-share/infrastructure/drive"
	"gdrive-share/infrastructure/filesystem"

	"github.com/cucumber/godog"
	googledrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// featureSession is an in-memory drive.Session
type featureSession struct {
	limit, usage  *int64
	nextID        string
	rootID        string
	createErr     error
	permissionErr error

	created     []*googledrive.File
	permissions map[string][]*googledrive.Permission
}

func newFeatureSession() *featureSession {
	return &featureSession{
		rootID:      "0AROOT",
		permissions: make(map[string][]*googledrive.Permission),
	}
}

func (s *featureSession) GetStorageQuota(ctx context.Context) (*drive.StorageQuota, error) {
	return &drive.StorageQuota{Limit: s.limit, Usage: s.usage}, nil
}

func (s *featureSession) CreateFile(ctx context.Context, file *googledrive.File, media io.Reader, progress googleapi.ProgressUpdater) (*googledrive.File, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	data, err := io.ReadAll(media)
	if err != nil {
		return nil, err
	}
	if progress != nil {
		progress(int64(len(data)), int64(len(data)))
	}
	created := &googledrive.File{Id: s.nextID, Name: file.Name, MimeType: file.MimeType, Parents: file.Parents, Size: int64(len(data))}
	s.created = append(s.created, created)
	return created, nil
}

func (s *featureSession) CreatePermission(ctx context.Context, fileID string, permission *googledrive.Permission) (*googledrive.Permission, error) {
	if s.permissionErr != nil {
		return nil, s.permissionErr
	}
	s.permissions[fileID] = append(s.permissions[fileID], permission)
	return permission, nil
}

func (s *featureSession) GetFile(ctx context.Context, fileID string, fields string) (*googledrive.File, error) {
	if fileID != drive.RootFolderAlias {
		return nil, fmt.Errorf("unexpected file %q", fileID)
	}
	return &googledrive.File{Id: s.rootID}, nil
}

type driveContext struct {
	tempDir   string
	session   *featureSession
	completed []string
	progress  []distribution.UploadProgress
	url       string
	used      int64
	total     int64
	output    bytes.Buffer
	err       error
}

var SharedDriveContext = &driveContext{}

func InitializeDriveScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedDriveContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "drive-test-*")
		if err != nil {
			return c, err
		}
		*testCtx = driveContext{tempDir: tempDir, session: newFeatureSession()}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^a local file "([^"]*)" of (\d+) bytes$`, testCtx.aLocalFileOfBytes)
	ctx.Step(`^the drive assigns file ID "([^"]*)"$`, testCtx.theDriveAssignsFileID)
	ctx.Step(`^the drive rejects permission changes$`, testCtx.theDriveRejectsPermissionChanges)
	ctx.Step(`^the drive reports usage (\d+) and no limit$`, testCtx.theDriveReportsUsageAndNoLimit)
	ctx.Step(`^the drive reports usage (\d+) and limit (\d+)$`, testCtx.theDriveReportsUsageAndLimit)
	ctx.Step(`^I upload "([^"]*)" to folder "([^"]*)"$`, testCtx.iUploadToFolder)
	ctx.Step(`^I run the upload command for "([^"]*)" without a folder$`, testCtx.iRunTheUploadCommandWithoutAFolder)
	ctx.Step(`^I fetch the storage quota$`, testCtx.iFetchTheStorageQuota)
	ctx.Step(`^the returned URL should be "([^"]*)"$`, testCtx.theReturnedURLShouldBe)
	ctx.Step(`^I should receive (\d+) completion notifications? for "([^"]*)"$`, testCtx.iShouldReceiveCompletionNotificationsFor)
	ctx.Step(`^the last progress notification should report (\d+) bytes completed$`, testCtx.theLastProgressShouldReport)
	ctx.Step(`^file "([^"]*)" should be shared with anyone as reader$`, testCtx.fileShouldBeSharedWithAnyoneAsReader)
	ctx.Step(`^the file should be created in folder "([^"]*)"$`, testCtx.theFileShouldBeCreatedInFolder)
	ctx.Step(`^the upload should fail with a backend error$`, testCtx.theUploadShouldFailWithABackendError)
	ctx.Step(`^the upload should fail with a local file error$`, testCtx.theUploadShouldFailWithALocalFileError)
	ctx.Step(`^the used quota should be (-?\d+)$`, testCtx.theUsedQuotaShouldBe)
	ctx.Step(`^the total quota should be (-?\d+)$`, testCtx.theTotalQuotaShouldBe)
	ctx.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
}

func (d *driveContext) client() *drive.Client {
	return drive.NewClient(
		drive.WithProgressHandler(func(p distribution.UploadProgress) {
			d.progress = append(d.progress, p)
		}),
		drive.WithCompletionHandler(func(c distribution.UploadCompleted) {
			d.completed = append(d.completed, c.FileName)
		}),
	)
}

func (d *driveContext) aLocalFileOfBytes(name string, size int) error {
	return os.WriteFile(filepath.Join(d.tempDir, name), bytes.Repeat([]byte("x"), size), 0644)
}

func (d *driveContext) theDriveAssignsFileID(id string) error {
	d.session.nextID = id
	return nil
}

func (d *driveContext) theDriveRejectsPermissionChanges() error {
	d.session.permissionErr = &googleapi.Error{Code: 403, Message: "sharing disabled"}
	return nil
}

func (d *driveContext) theDriveReportsUsageAndNoLimit(usage int64) error {
	d.session.usage = &usage
	return nil
}

func (d *driveContext) theDriveReportsUsageAndLimit(usage, limit int64) error {
	d.session.usage = &usage
	d.session.limit = &limit
	return nil
}

func (d *driveContext) iUploadToFolder(name, folder string) error {
	d.url, d.err = d.client().UploadToGDrive(context.Background(), d.session, filepath.Join(d.tempDir, name), folder)
	return nil
}

func (d *driveContext) iRunTheUploadCommandWithoutAFolder(name string) error {
	client := d.client().ForSession(d.session)
	d.err = cmd.RunUploadWithDependencies(context.Background(), client, filesystem.NewChecker(), nil, "",
		[]string{filepath.Join(d.tempDir, name)}, &d.output)
	return nil
}

func (d *driveContext) iFetchTheStorageQuota() error {
	client := d.client()
	var err error
	if d.used, err = client.GetQuotaUsed(context.Background(), d.session); err != nil {
		return err
	}
	d.total, err = client.GetQuotaTotal(context.Background(), d.session)
	return err
}

func (d *driveContext) theReturnedURLShouldBe(expected string) error {
	if d.err != nil {
		return fmt.Errorf("upload failed: %w", d.err)
	}
	if d.url != expected {
		return fmt.Errorf("expected URL %q, got %q", expected, d.url)
	}
	return nil
}

func (d *driveContext) iShouldReceiveCompletionNotificationsFor(count int, name string) error {
	if len(d.completed) != count {
		return fmt.Errorf("expected %d completion notifications, got %v", count, d.completed)
	}
	for _, c := range d.completed {
		if c != name {
			return fmt.Errorf("expected completion for %q, got %q", name, c)
		}
	}
	return nil
}

func (d *driveContext) theLastProgressShouldReport(bytesSent int64) error {
	if len(d.progress) == 0 {
		return fmt.Errorf("no progress notifications received")
	}
	last := d.progress[len(d.progress)-1]
	if last.Status != distribution.StatusCompleted || last.BytesSent != bytesSent {
		return fmt.Errorf("expected completed with %d bytes, got %s with %d", bytesSent, last.Status, last.BytesSent)
	}
	return nil
}

func (d *driveContext) fileShouldBeSharedWithAnyoneAsReader(fileID string) error {
	perms := d.session.permissions[fileID]
	if len(perms) != 1 {
		return fmt.Errorf("expected 1 permission on %s, got %d", fileID, len(perms))
	}
	if perms[0].Type != distribution.PermissionTypeAnyone || perms[0].Role != distribution.PermissionRoleReader {
		return fmt.Errorf("unexpected permission %s/%s", perms[0].Type, perms[0].Role)
	}
	return nil
}

func (d *driveContext) theFileShouldBeCreatedInFolder(folder string) error {
	if len(d.session.created) != 1 {
		return fmt.Errorf("expected 1 created file, got %d", len(d.session.created))
	}
	parents := d.session.created[0].Parents
	if len(parents) != 1 || parents[0] != folder {
		return fmt.Errorf("expected parent %q, got %v", folder, parents)
	}
	return nil
}

func (d *driveContext) theUploadShouldFailWithABackendError() error {
	if !errors.Is(d.err, distribution.ErrBackend) {
		return fmt.Errorf("expected backend error, got %v", d.err)
	}
	return nil
}

func (d *driveContext) theUploadShouldFailWithALocalFileError() error {
	if !errors.Is(d.err, distribution.ErrLocalIO) {
		return fmt.Errorf("expected local file error, got %v", d.err)
	}
	if len(d.session.created) != 0 {
		return fmt.Errorf("nothing should have been created")
	}
	return nil
}

func (d *driveContext) theUsedQuotaShouldBe(expected int64) error {
	if d.used != expected {
		return fmt.Errorf("expected used quota %d, got %d", expected, d.used)
	}
	return nil
}

func (d *driveContext) theTotalQuotaShouldBe(expected int64) error {
	if d.total != expected {
		return fmt.Errorf("expected total quota %d, got %d", expected, d.total)
	}
	return nil
}

func (d *driveContext) theOutputShouldContain(expected string) error {
	if d.err != nil {
		return fmt.Errorf("command failed: %w", d.err)
	}
	if !strings.Contains(d.output.String(), expected) {
		return fmt.Errorf("output %q does not contain %q", d.output.String(), expected)
	}
	return nil
}
