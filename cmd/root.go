package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"gdrive-share/infrastructure/config"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  = slog.New(slog.NewTextHandler(io.Discard, nil))
)

var rootCmd = &cobra.Command{
	Use:   "gdrive-share",
	Short: "Upload files to Google Drive and share them by link",
	Long: `gdrive-share uploads local files to Google Drive and makes each one
readable by anyone holding its link:

  - Authorize once in the browser; the token is cached per account
  - Upload files with progress reporting
  - Inspect storage quota and the root folder ID

Example:
  gdrive-share upload report.pdf slides.pptx --folder 1AbCdEf`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, YAML or .toml (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = config.DefaultPath
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	var err error
	cfg, err = config.LoadOrDefault(cfgFile)
	if err != nil {
		// Commands that need config will check and error appropriately
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		cfg = nil
	} else {
		cfg.ApplyEnv()
	}

	logger = buildLogger(cfg, verbose, os.Stderr)
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}

// requireConfig returns the loaded configuration if it is usable for talking to Drive
func requireConfig() (*config.Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded; run 'gdrive-share setup' or fix %s", cfgFile)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s:\n%w", cfgFile, err)
	}
	return cfg, nil
}

// buildLogger creates the diagnostic logger. --verbose wins over the
// configured level.
func buildLogger(c *config.Config, verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	format := "text"

	if c != nil {
		switch c.Logging.Level {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "error":
			level = slog.LevelError
		}
		if c.Logging.Format != "" {
			format = c.Logging.Format
		}
	}

	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
