package cmd

import (
	"context"
	"fmt"
	"os"

	appdist "gdrive-share/application/distribution"
	"gdrive-share/domain/distribution"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show Google Drive storage usage",
	Long: `Show the storage used and the storage limit of the authorized account.

Accounts without a storage limit report the limit as unlimited.`,
	Args: cobra.NoArgs,
	RunE: runQuota,
}

func init() {
	rootCmd.AddCommand(quotaCmd)
}

func runQuota(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	session, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}

	return RunQuotaWithDependencies(ctx, newDriveClient().ForSession(session), os.Stdout)
}

// RunQuotaWithDependencies runs the quota command with injected dependencies (for testing)
func RunQuotaWithDependencies(ctx context.Context, driveClient distribution.DriveClient, output OutputWriter) error {
	info, err := appdist.NewQuotaService(driveClient).Report(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Used:      %s\n", formatQuota(info.UsedBytes, "unknown"))
	fmt.Fprintf(output, "Limit:     %s\n", formatQuota(info.TotalBytes, "unlimited"))
	if avail := info.AvailableBytes(); avail != distribution.QuotaUnknown {
		fmt.Fprintf(output, "Available: %s\n", humanize.IBytes(uint64(avail)))
	}
	return nil
}

func formatQuota(bytes int64, unknown string) string {
	if bytes == distribution.QuotaUnknown {
		return unknown
	}
	return fmt.Sprintf("%s (%s bytes)", humanize.IBytes(uint64(bytes)), humanize.Comma(bytes))
}
