package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Errors for config management
var (
	ErrUnknownKey   = errors.New("unknown config key")
	ErrInvalidValue = errors.New("invalid config value")
)

// field binds a dotted key to a Config field
type field struct {
	get    func(*Config) string
	set    func(*Config, string) error
	secret bool
}

func stringField(ptr func(*Config) *string) field {
	return field{
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, v string) error {
			*ptr(c) = v
			return nil
		},
	}
}

func oneOf(ptr func(*Config) *string, allowed ...string) field {
	return field{
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, v string) error {
			if !slices.Contains(allowed, v) {
				return fmt.Errorf("%w: must be one of %s", ErrInvalidValue, strings.Join(allowed, ", "))
			}
			*ptr(c) = v
			return nil
		},
	}
}

var fields = map[string]field{
	"google.auth_mode": oneOf(func(c *Config) *string { return &c.Google.AuthMode }, AuthModeOAuth, AuthModeServiceAccount),
	"google.client_id": stringField(func(c *Config) *string { return &c.Google.ClientID }),
	"google.client_secret": func() field {
		f := stringField(func(c *Config) *string { return &c.Google.ClientSecret })
		f.secret = true
		return f
	}(),
	"google.user_name":            stringField(func(c *Config) *string { return &c.Google.UserName }),
	"google.credentials_file":     stringField(func(c *Config) *string { return &c.Google.CredentialsFile }),
	"google.service_account_file": stringField(func(c *Config) *string { return &c.Google.ServiceAccountFile }),
	"google.app_identity":         stringField(func(c *Config) *string { return &c.Google.AppIdentity }),
	"google.token_dir":            stringField(func(c *Config) *string { return &c.Google.TokenDir }),
	"google.folder_id":            stringField(func(c *Config) *string { return &c.Google.FolderID }),
	"google.scopes": {
		get: func(c *Config) string { return strings.Join(c.Google.Scopes, ",") },
		set: func(c *Config, v string) error {
			c.Google.Scopes = nil
			for _, s := range strings.Split(v, ",") {
				if s = strings.TrimSpace(s); s != "" {
					c.Google.Scopes = append(c.Google.Scopes, s)
				}
			}
			return nil
		},
	},
	"upload.chunk_size": {
		get: func(c *Config) string { return c.Upload.ChunkSize },
		set: func(c *Config, v string) error {
			prev := c.Upload.ChunkSize
			c.Upload.ChunkSize = v
			if _, err := c.ChunkSizeBytes(); err != nil {
				c.Upload.ChunkSize = prev
				return fmt.Errorf("%w: %w", ErrInvalidValue, err)
			}
			return nil
		},
	},
	"logging.level":  oneOf(func(c *Config) *string { return &c.Logging.Level }, "debug", "info", "warn", "error"),
	"logging.format": oneOf(func(c *Config) *string { return &c.Logging.Format }, "text", "json"),
}

// ConfigManager reads and writes individual config entries by dotted key
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// Keys returns every supported key in sorted order
func (m *ConfigManager) Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Get returns the value stored under key (case-insensitive)
func (m *ConfigManager) Get(key string) (string, error) {
	f, err := lookup(key)
	if err != nil {
		return "", err
	}
	return f.get(m.config), nil
}

// Display returns the value for printing; secrets are masked
func (m *ConfigManager) Display(key string) (string, error) {
	f, err := lookup(key)
	if err != nil {
		return "", err
	}
	v := f.get(m.config)
	if f.secret && v != "" {
		return maskSecret(v), nil
	}
	return v, nil
}

// Set stores value under key and saves the config file
func (m *ConfigManager) Set(key, value string) error {
	f, err := lookup(key)
	if err != nil {
		return err
	}
	if err := f.set(m.config, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s: %w", normalizeKey(key), err)
	}
	return Save(m.config, m.configPath)
}

func lookup(key string) (field, error) {
	f, ok := fields[normalizeKey(key)]
	if !ok {
		return field{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return f, nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
