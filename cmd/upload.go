package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	appdist "gdrive-share/application/distribution"
	"gdrive-share/domain/distribution"
	"gdrive-share/infrastructure/drive"
	"gdrive-share/infrastructure/filesystem"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// OutputWriter allows capturing output in tests
type OutputWriter interface {
	Write(p []byte) (n int, err error)
}

var uploadFolderID string

var uploadCmd = &cobra.Command{
	Use:   "upload FILE...",
	Short: "Upload files to Google Drive with public sharing",
	Long: `Upload one or more files to Google Drive and share each with
"anyone with the link" read access.

Files go to --folder, else the configured google.folder_id, else the root
of My Drive. Files are uploaded one after another; the first failure stops
the run.

Example:
  gdrive-share upload report.pdf
  gdrive-share upload --folder 1AbCdEf slides.pptx notes.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadFolderID, "folder", "", "Destination folder ID (defaults to google.folder_id, then the root folder)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	folderID := uploadFolderID
	if folderID == "" {
		folderID = cfg.Google.FolderID
	}

	ctx := cmd.Context()
	session, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}

	reporter := appdist.NewProgressReporter(os.Stdout, isTerminal(os.Stdout))
	client := newDriveClient(
		drive.WithProgressHandler(reporter.OnProgress),
		drive.WithCompletionHandler(reporter.OnCompleted),
	)

	return RunUploadWithDependencies(
		ctx,
		client.ForSession(session),
		filesystem.NewChecker(),
		reporter,
		folderID,
		args,
		os.Stdout,
	)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// RunUploadWithDependencies runs the upload command with injected dependencies (for testing)
func RunUploadWithDependencies(
	ctx context.Context,
	driveClient distribution.DriveClient,
	checker distribution.FileChecker,
	observer appdist.UploadObserver,
	folderID string,
	paths []string,
	output OutputWriter,
) error {
	service := appdist.NewUploadService(driveClient, checker, folderID, output)
	if observer != nil {
		service.WithObserver(observer)
	}

	for i, p := range paths {
		fmt.Fprintf(output, "[%d/%d] Uploading %s...\n", i+1, len(paths), filepath.Base(p))

		result, err := service.Upload(ctx, p)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}

		fmt.Fprintf(output, "  File ID: %s\n", result.FileID)
		fmt.Fprintf(output, "  Size: %s\n", humanize.IBytes(uint64(result.Size)))
		fmt.Fprintf(output, "  Shareable URL: %s\n", result.ShareableURL)
		fmt.Fprintln(output)
	}

	fmt.Fprintf(output, "Upload complete!\n")
	return nil
}
