package cmd

import (
	"context"
	"fmt"
	"os"

	"gdrive-share/infrastructure/config"
	"gdrive-share/infrastructure/drive"

	"github.com/spf13/cobra"
)

var authForce bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize access to Google Drive",
	Long: `Authorize gdrive-share with your Google account.

A cached token is reused when it is still valid or can be refreshed.
Otherwise a browser window opens for consent and the new token is cached
per account under the token directory.

Use --force to discard the cached token and authorize again.`,
	Args: cobra.NoArgs,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.Flags().BoolVar(&authForce, "force", false, "Discard the cached token and re-authorize")
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	open := func(ctx context.Context, c *config.Config) (drive.Session, error) {
		return openSession(ctx, c, logger)
	}
	return RunAuthWithDependencies(cmd.Context(), cfg, authForce, open, os.Stdout)
}

// RunAuthWithDependencies runs the auth command with injected dependencies (for testing)
func RunAuthWithDependencies(
	ctx context.Context,
	cfg *config.Config,
	force bool,
	open func(context.Context, *config.Config) (drive.Session, error),
	output OutputWriter,
) error {
	if cfg.Google.AuthMode == config.AuthModeServiceAccount {
		if _, err := open(ctx, cfg); err != nil {
			return err
		}
		fmt.Fprintf(output, "Service account credentials loaded from %s\n", cfg.Google.ServiceAccountFile)
		return nil
	}

	store, err := tokenStore(cfg)
	if err != nil {
		return err
	}

	if force {
		if err := store.Delete(cfg.Google.UserName); err != nil {
			return fmt.Errorf("failed to remove cached token: %w", err)
		}
		fmt.Fprintln(output, "Cached token removed.")
	}

	if _, err := open(ctx, cfg); err != nil {
		return err
	}

	fmt.Fprintf(output, "Authorized. Token stored at %s\n", store.Path(cfg.Google.UserName))
	return nil
}
