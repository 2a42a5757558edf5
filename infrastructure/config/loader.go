package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no --config flag is given
const DefaultPath = "config/config.yaml"

// Authorization modes
const (
	AuthModeOAuth          = "oauth"
	AuthModeServiceAccount = "service_account"
)

// Environment variables that override the config file
const (
	EnvClientID     = "GDRIVE_CLIENT_ID"
	EnvClientSecret = "GDRIVE_CLIENT_SECRET"
	EnvUserName     = "GDRIVE_USER_NAME"
	EnvFolderID     = "GDRIVE_FOLDER_ID"
)

// Config represents the complete application configuration
type Config struct {
	Google  GoogleConfig  `yaml:"google" toml:"google"`
	Upload  UploadConfig  `yaml:"upload" toml:"upload"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// GoogleConfig contains Google API settings
type GoogleConfig struct {
	AuthMode           string   `yaml:"auth_mode" toml:"auth_mode"`
	ClientID           string   `yaml:"client_id,omitempty" toml:"client_id,omitempty"`
	ClientSecret       string   `yaml:"client_secret,omitempty" toml:"client_secret,omitempty"`
	UserName           string   `yaml:"user_name,omitempty" toml:"user_name,omitempty"`
	CredentialsFile    string   `yaml:"credentials_file,omitempty" toml:"credentials_file,omitempty"`
	ServiceAccountFile string   `yaml:"service_account_file,omitempty" toml:"service_account_file,omitempty"`
	AppIdentity        string   `yaml:"app_identity" toml:"app_identity"`
	TokenDir           string   `yaml:"token_dir,omitempty" toml:"token_dir,omitempty"`
	FolderID           string   `yaml:"folder_id,omitempty" toml:"folder_id,omitempty"`
	Scopes             []string `yaml:"scopes,omitempty" toml:"scopes,omitempty"`
}

// UploadConfig contains upload settings
type UploadConfig struct {
	// ChunkSize accepts humanized sizes such as "8MiB"; empty keeps the SDK default
	ChunkSize string `yaml:"chunk_size,omitempty" toml:"chunk_size,omitempty"`
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// DefaultConfig returns a Config populated with default values
func DefaultConfig() *Config {
	return &Config{
		Google: GoogleConfig{
			AuthMode:    AuthModeOAuth,
			AppIdentity: "gdrive-share",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and parses the configuration file. Files ending in .toml are
// decoded as TOML, everything else as YAML. Keys missing from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault is Load, falling back to DefaultConfig when the file does not exist
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// Save writes the configuration to path, as TOML or YAML depending on the extension
func Save(cfg *Config, path string) error {
	var data []byte
	if isTOML(path) {
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
			return fmt.Errorf("failed to serialize config: %w", err)
		}
		data = []byte(sb.String())
	} else {
		var err error
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to serialize config: %w", err)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	// The file may hold a client secret
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides credential and folder settings from the environment
func (c *Config) ApplyEnv() {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	override(&c.Google.ClientID, EnvClientID)
	override(&c.Google.ClientSecret, EnvClientSecret)
	override(&c.Google.UserName, EnvUserName)
	override(&c.Google.FolderID, EnvFolderID)
}

// ChunkSizeBytes parses Upload.ChunkSize; 0 means the SDK default
func (c *Config) ChunkSizeBytes() (int, error) {
	if c.Upload.ChunkSize == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.Upload.ChunkSize)
	if err != nil {
		return 0, fmt.Errorf("chunk_size: %w", err)
	}
	return int(n), nil
}

// Validate reports every configuration problem at once
func (c *Config) Validate() error {
	var errs []error

	switch c.Google.AuthMode {
	case AuthModeOAuth, "":
		if c.Google.CredentialsFile == "" && (c.Google.ClientID == "" || c.Google.ClientSecret == "") {
			errs = append(errs, errors.New("google: client_id and client_secret (or credentials_file) are required for oauth"))
		}
	case AuthModeServiceAccount:
		if c.Google.ServiceAccountFile == "" {
			errs = append(errs, errors.New("google: service_account_file is required for service_account"))
		}
	default:
		errs = append(errs, fmt.Errorf("google.auth_mode: unknown mode %q", c.Google.AuthMode))
	}

	if _, err := c.ChunkSizeBytes(); err != nil {
		errs = append(errs, fmt.Errorf("upload.%w", err))
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: must be one of debug, info, warn, error; got %q", c.Logging.Level))
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: must be text or json; got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
