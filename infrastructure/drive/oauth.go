package drive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gdrive-share/domain/distribution"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DefaultAppIdentity keys the token store when no application identity is configured
const DefaultAppIdentity = "gdrive-share"

// DefaultScopes returns the scopes requested by GetDriveService.
// The set is broader than the operations need (they only create files,
// grant permissions and read quota); narrow it with WithScopes.
func DefaultScopes() []string {
	return []string{
		drive.DriveScope,
		drive.DriveAppdataScope,
		drive.DriveFileScope,
		drive.DriveMetadataScope,
		drive.DriveMetadataReadonlyScope,
		drive.DrivePhotosReadonlyScope,
		drive.DriveReadonlyScope,
		drive.DriveScriptsScope,
	}
}

// authConfig holds the settings for one authorization
type authConfig struct {
	scopes         []string
	appIdentity    string
	store          *TokenStore
	endpoint       *oauth2.Endpoint
	openURL        func(string) error
	callbackAddr   string
	prompt         io.Writer
	serviceOptions []option.ClientOption
	logger         *slog.Logger
}

// AuthOption is a functional option for configuring authorization
type AuthOption func(*authConfig)

// WithScopes overrides DefaultScopes
func WithScopes(scopes ...string) AuthOption {
	return func(c *authConfig) {
		c.scopes = scopes
	}
}

// WithAppIdentity sets the application identity the token store is keyed by
func WithAppIdentity(identity string) AuthOption {
	return func(c *authConfig) {
		c.appIdentity = identity
	}
}

// WithTokenStore sets a custom token store instead of the per-application default
func WithTokenStore(store *TokenStore) AuthOption {
	return func(c *authConfig) {
		c.store = store
	}
}

// WithOAuthEndpoint overrides the Google OAuth endpoint (for testing)
func WithOAuthEndpoint(endpoint oauth2.Endpoint) AuthOption {
	return func(c *authConfig) {
		c.endpoint = &endpoint
	}
}

// WithBrowserOpener sets the function used to open the consent page
func WithBrowserOpener(open func(url string) error) AuthOption {
	return func(c *authConfig) {
		c.openURL = open
	}
}

// WithCallbackAddr sets the loopback address the OAuth redirect is received on
func WithCallbackAddr(addr string) AuthOption {
	return func(c *authConfig) {
		c.callbackAddr = addr
	}
}

// WithPromptOutput sets where the consent URL and status lines are printed
func WithPromptOutput(w io.Writer) AuthOption {
	return func(c *authConfig) {
		c.prompt = w
	}
}

// WithServiceOptions passes options to the Drive SDK (e.g. option.WithEndpoint)
func WithServiceOptions(opts ...option.ClientOption) AuthOption {
	return func(c *authConfig) {
		c.serviceOptions = append(c.serviceOptions, opts...)
	}
}

// WithAuthLogger sets the logger for the authorization flow
func WithAuthLogger(logger *slog.Logger) AuthOption {
	return func(c *authConfig) {
		c.logger = logger
	}
}

func newAuthConfig(opts []AuthOption) (*authConfig, error) {
	c := &authConfig{
		scopes:       DefaultScopes(),
		appIdentity:  DefaultAppIdentity,
		openURL:      openBrowser,
		callbackAddr: "127.0.0.1:0",
		prompt:       os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.store == nil {
		dir, err := DefaultTokenDir(c.appIdentity)
		if err != nil {
			return nil, err
		}
		c.store = NewTokenStore(dir)
	}
	return c, nil
}

// GetDriveService authorizes userName with the OAuth client (clientID, clientSecret)
// and returns a session bound to the obtained credential.
//
// A cached token is reused (and refreshed if needed); otherwise the
// authorization code flow runs in the browser and blocks until consent is
// given, refused, or ctx ends.
func GetDriveService(ctx context.Context, clientID, clientSecret, userName string, opts ...AuthOption) (*GoogleDriveService, error) {
	cfg, err := newAuthConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", distribution.ErrAuth, err)
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       cfg.scopes,
	}
	return authorize(ctx, config, userName, cfg)
}

// GetDriveServiceFromCredentialsFile is GetDriveService with the OAuth client
// read from a Google Cloud console credentials JSON file
func GetDriveServiceFromCredentialsFile(ctx context.Context, credentialsPath, userName string, opts ...AuthOption) (*GoogleDriveService, error) {
	cfg, err := newAuthConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", distribution.ErrAuth, err)
	}

	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read OAuth credentials file: %w", distribution.ErrAuth, err)
	}

	config, err := google.ConfigFromJSON(b, cfg.scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to parse OAuth credentials: %w", distribution.ErrAuth, err)
	}
	return authorize(ctx, config, userName, cfg)
}

func authorize(ctx context.Context, config *oauth2.Config, userName string, cfg *authConfig) (*GoogleDriveService, error) {
	if cfg.endpoint != nil {
		config.Endpoint = *cfg.endpoint
	}

	token, err := getToken(ctx, config, userName, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to get OAuth token: %w", distribution.ErrAuth, err)
	}

	return NewGoogleDriveService(ctx, config.Client(ctx, token), cfg.serviceOptions...)
}

// getToken retrieves a token from the store or initiates the OAuth flow
func getToken(ctx context.Context, config *oauth2.Config, userName string, cfg *authConfig) (*oauth2.Token, error) {
	logger := cfg.logger.With(slog.String("user", userName))

	token, err := cfg.store.Load(userName)
	if err != nil {
		logger.Warn("ignoring unreadable token cache", slog.String("error", err.Error()))
	}

	if token != nil {
		// Check if token is still valid or can be refreshed
		newToken, err := config.TokenSource(ctx, token).Token()
		if err == nil {
			if newToken.AccessToken != token.AccessToken {
				logger.Debug("saving refreshed token")
				if err := cfg.store.Save(userName, newToken); err != nil {
					logger.Warn("couldn't save refreshed token", slog.String("error", err.Error()))
				}
			}
			return newToken, nil
		}
		logger.Info("cached token could not be refreshed, re-authenticating", slog.String("error", err.Error()))
	}

	token, err = getTokenFromWeb(ctx, config, cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.store.Save(userName, token); err != nil {
		fmt.Fprintf(cfg.prompt, "Warning: couldn't save token: %v\n", err)
	}
	logger.Info("token saved", slog.String("path", cfg.store.Path(userName)))

	return token, nil
}
