package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

const (
	callbackPath    = "/callback"
	shutdownTimeout = 5 * time.Second
)

const successPage = "<html><body><h1>Authorization successful!</h1><p>You can close this window and return to the terminal.</p></body></html>"

// callbackResult carries the authorization code or error from the callback handler
type callbackResult struct {
	code string
	err  error
}

// getTokenFromWeb runs the authorization code flow (with PKCE) through a
// loopback redirect and exchanges the code for a token
func getTokenFromWeb(ctx context.Context, config *oauth2.Config, cfg *authConfig) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", cfg.callbackAddr)
	if err != nil {
		return nil, fmt.Errorf("unable to start callback listener: %w", err)
	}

	config.RedirectURL = fmt.Sprintf("http://%s%s", ln.Addr().String(), callbackPath)

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	results := make(chan callbackResult, 1)

	srv := &http.Server{
		Handler:           callbackRouter(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("callback server failed: %w", err)
		}
		return nil
	})

	var authCode string
	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				cfg.logger.Warn("callback server shutdown failed", slog.String("error", err.Error()))
			}
		}()

		select {
		case res := <-results:
			if res.err != nil {
				return res.err
			}
			authCode = res.code
			return nil
		case <-gctx.Done():
			return gctx.Err()
		}
	})

	authURL := config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)

	fmt.Fprintln(cfg.prompt)
	fmt.Fprintln(cfg.prompt, "Opening browser for Google authentication...")
	fmt.Fprintln(cfg.prompt, "If the browser doesn't open, please visit this URL:")
	fmt.Fprintln(cfg.prompt)
	fmt.Fprintln(cfg.prompt, authURL)
	fmt.Fprintln(cfg.prompt)

	if err := cfg.openURL(authURL); err != nil {
		cfg.logger.Debug("unable to open browser", slog.String("error", err.Error()))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	token, err := config.Exchange(ctx, authCode, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("unable to exchange auth code: %w", err)
	}

	fmt.Fprintln(cfg.prompt, "Authentication successful!")
	return token, nil
}

// callbackRouter handles the OAuth redirect. The first result is delivered;
// later hits are answered but dropped.
func callbackRouter(state string, results chan<- callbackResult) http.Handler {
	deliver := func(res callbackResult) {
		select {
		case results <- res:
		default:
		}
	}

	r := chi.NewRouter()
	r.Get(callbackPath, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()

		if e := q.Get("error"); e != "" {
			deliver(callbackResult{err: fmt.Errorf("authorization denied: %s", e)})
			http.Error(w, "Authorization was not granted. You can close this window.", http.StatusForbidden)
			return
		}
		if q.Get("state") != state {
			deliver(callbackResult{err: errors.New("state mismatch in OAuth callback")})
			http.Error(w, "Invalid state parameter.", http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			deliver(callbackResult{err: errors.New("no code in callback")})
			http.Error(w, "Error: No authorization code received", http.StatusBadRequest)
			return
		}

		deliver(callbackResult{code: code})
		fmt.Fprint(w, successPage)
	})
	return r
}

// openBrowser opens a URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		// Try various Linux browser openers
		if _, err := exec.LookPath("xdg-open"); err == nil {
			cmd = exec.Command("xdg-open", url)
		} else if _, err := exec.LookPath("wslview"); err == nil {
			// WSL
			cmd = exec.Command("wslview", url)
		} else {
			// Try Windows browser from WSL
			cmd = exec.Command("cmd.exe", "/c", "start", url)
		}
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("no browser opener for %s", runtime.GOOS)
	}

	return cmd.Start()
}
