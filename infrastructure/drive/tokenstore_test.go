package drive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestTokenStore_SaveAndLoad(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "gdrive-share"))
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)

	err := store.Save("alice@example.com", &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       expiry,
	})
	require.NoError(t, err)

	tok, err := store.Load("alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, "access", tok.AccessToken)
	assert.Equal(t, "refresh", tok.RefreshToken)
	assert.True(t, tok.Expiry.Equal(expiry))

	info, err := os.Stat(store.Path("alice@example.com"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestTokenStore_LoadMissing(t *testing.T) {
	store := NewTokenStore(t.TempDir())

	tok, err := store.Load("nobody")

	assert.NoError(t, err)
	assert.Nil(t, tok)
}

func TestTokenStore_LoadCorrupt(t *testing.T) {
	store := NewTokenStore(t.TempDir())
	require.NoError(t, os.WriteFile(store.Path("bob"), []byte("{not json"), 0o600))

	_, err := store.Load("bob")

	assert.Error(t, err)
}

func TestTokenStore_LoadWithoutToken(t *testing.T) {
	store := NewTokenStore(t.TempDir())
	require.NoError(t, os.WriteFile(store.Path("bob"), []byte(`{"user_name":"bob"}`), 0o600))

	_, err := store.Load("bob")

	assert.ErrorContains(t, err, "has no token")
}

func TestTokenStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewTokenStore(dir)

	require.NoError(t, store.Save("carol", &oauth2.Token{AccessToken: "one"}))
	require.NoError(t, store.Save("carol", &oauth2.Token{AccessToken: "two"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "token-carol.json", entries[0].Name())

	tok, err := store.Load("carol")
	require.NoError(t, err)
	assert.Equal(t, "two", tok.AccessToken)
}

func TestTokenStore_Delete(t *testing.T) {
	store := NewTokenStore(t.TempDir())
	require.NoError(t, store.Save("dave", &oauth2.Token{AccessToken: "x"}))

	require.NoError(t, store.Delete("dave"))
	require.NoError(t, store.Delete("dave"), "deleting a missing token is not an error")

	tok, err := store.Load("dave")
	require.NoError(t, err)
	assert.Nil(t, tok)
}

func TestTokenStore_PathSanitizesUserName(t *testing.T) {
	store := NewTokenStore("/tokens")

	tests := []struct {
		user string
		want string
	}{
		{"alice@example.com", "/tokens/token-alice@example.com.json"},
		{"../../etc/passwd", "/tokens/token-.._.._etc_passwd.json"},
		{"", "/tokens/token-default.json"},
		{"first last", "/tokens/token-first_last.json"},
	}

	for _, tt := range tests {
		assert.Equal(t, filepath.FromSlash(tt.want), store.Path(tt.user), "user %q", tt.user)
	}
}
