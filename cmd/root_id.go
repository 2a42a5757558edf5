package cmd

import (
	"context"
	"fmt"
	"os"

	"gdrive-share/domain/distribution"

	"github.com/spf13/cobra"
)

var rootIDCmd = &cobra.Command{
	Use:   "root-id",
	Short: "Print the ID of the My Drive root folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		session, err := openSession(ctx, cfg, logger)
		if err != nil {
			return err
		}

		return RunRootIDWithDependencies(ctx, newDriveClient().ForSession(session), os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(rootIDCmd)
}

// RunRootIDWithDependencies runs the root-id command with injected dependencies (for testing)
func RunRootIDWithDependencies(ctx context.Context, driveClient distribution.DriveClient, output OutputWriter) error {
	id, err := driveClient.GetRootFolderID(ctx)
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("drive did not report a root folder ID")
	}
	fmt.Fprintln(output, id)
	return nil
}
