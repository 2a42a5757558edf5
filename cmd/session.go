package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"gdrive-share/infrastructure/config"
	"gdrive-share/infrastructure/drive"
)

// openSession authorizes against Drive according to the configured auth mode.
// Tests replace it to avoid the network.
var openSession = func(ctx context.Context, c *config.Config, logger *slog.Logger) (drive.Session, error) {
	session, err := newSession(ctx, c, logger)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func newSession(ctx context.Context, c *config.Config, logger *slog.Logger) (*drive.GoogleDriveService, error) {
	chunkSize, err := c.ChunkSizeBytes()
	if err != nil {
		return nil, err
	}

	var session *drive.GoogleDriveService
	switch c.Google.AuthMode {
	case config.AuthModeServiceAccount:
		logger.Debug("using service account", slog.String("file", c.Google.ServiceAccountFile))
		session, err = drive.NewServiceAccountSession(ctx, c.Google.ServiceAccountFile, scopesFor(c))

	default:
		opts, optErr := authOptions(c, logger)
		if optErr != nil {
			return nil, optErr
		}
		if c.Google.CredentialsFile != "" {
			session, err = drive.GetDriveServiceFromCredentialsFile(ctx, c.Google.CredentialsFile, c.Google.UserName, opts...)
		} else {
			session, err = drive.GetDriveService(ctx, c.Google.ClientID, c.Google.ClientSecret, c.Google.UserName, opts...)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Drive session: %w", err)
	}

	session.SetChunkSize(chunkSize)
	return session, nil
}

func authOptions(c *config.Config, logger *slog.Logger) ([]drive.AuthOption, error) {
	store, err := tokenStore(c)
	if err != nil {
		return nil, err
	}
	return []drive.AuthOption{
		drive.WithAppIdentity(c.Google.AppIdentity),
		drive.WithTokenStore(store),
		drive.WithScopes(scopesFor(c)...),
		drive.WithAuthLogger(logger),
	}, nil
}

func scopesFor(c *config.Config) []string {
	if len(c.Google.Scopes) > 0 {
		return c.Google.Scopes
	}
	return drive.DefaultScopes()
}

// tokenStore returns the configured token directory, or the per-application default
func tokenStore(c *config.Config) (*drive.TokenStore, error) {
	if c.Google.TokenDir != "" {
		return drive.NewTokenStore(c.Google.TokenDir), nil
	}
	identity := c.Google.AppIdentity
	if identity == "" {
		identity = drive.DefaultAppIdentity
	}
	dir, err := drive.DefaultTokenDir(identity)
	if err != nil {
		return nil, err
	}
	return drive.NewTokenStore(dir), nil
}

func newDriveClient(opts ...drive.ClientOption) *drive.Client {
	return drive.NewClient(append([]drive.ClientOption{drive.WithLogger(logger)}, opts...)...)
}
