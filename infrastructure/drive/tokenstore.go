package drive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
)

// Token files are owner-only
const (
	tokenFilePerms = 0o600
	tokenDirPerms  = 0o700
)

// TokenStore persists OAuth tokens per user name inside a per-application directory.
// Writes are atomic, but two processes authorizing the same user at once still
// race and the last writer wins.
type TokenStore struct {
	dir string
}

type tokenFile struct {
	UserName string        `json:"user_name"`
	Token    *oauth2.Token `json:"token"`
}

// DefaultTokenDir returns the token directory for an application identity
// under the user's configuration directory
func DefaultTokenDir(appIdentity string) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to locate user config directory: %w", err)
	}
	return filepath.Join(base, appIdentity), nil
}

// NewTokenStore creates a token store rooted at dir
func NewTokenStore(dir string) *TokenStore {
	return &TokenStore{dir: dir}
}

// Dir returns the directory tokens are stored in
func (s *TokenStore) Dir() string {
	return s.dir
}

// Path returns the token file path for userName
func (s *TokenStore) Path(userName string) string {
	return filepath.Join(s.dir, "token-"+sanitizeUserName(userName)+".json")
}

// Load reads the token saved for userName. Returns (nil, nil) if none exists.
func (s *TokenStore) Load(userName string) (*oauth2.Token, error) {
	path := s.Path(userName)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read token file %s: %w", path, err)
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("unable to decode token file %s: %w", path, err)
	}
	if tf.Token == nil {
		return nil, fmt.Errorf("token file %s has no token", path)
	}
	return tf.Token, nil
}

// Save writes the token for userName (write-to-temp + rename, 0600)
func (s *TokenStore) Save(userName string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(tokenFile{UserName: userName, Token: token}, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode token: %w", err)
	}

	if err := os.MkdirAll(s.dir, tokenDirPerms); err != nil {
		return fmt.Errorf("unable to create token directory %s: %w", s.dir, err)
	}

	// Temp file in the same directory keeps rename(2) on one filesystem.
	tmp, err := os.CreateTemp(s.dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("unable to create temp token file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, tokenFilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to set token file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write token file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to sync token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to close token file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path(userName)); err != nil {
		return fmt.Errorf("unable to move token file into place: %w", err)
	}

	success = true
	return nil
}

// Delete removes the token saved for userName. A missing token is not an error.
func (s *TokenStore) Delete(userName string) error {
	err := os.Remove(s.Path(userName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("unable to remove token file: %w", err)
	}
	return nil
}

func sanitizeUserName(userName string) string {
	if userName == "" {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_', r == '@':
			return r
		default:
			return '_'
		}
	}, userName)
}
