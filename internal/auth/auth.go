// Package auth obtains and keeps OAuth credentials for the Google Calendar API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/beekhof/meetme/internal/logger"
)

// authorizeTimeout bounds how long the local callback server waits.
const authorizeTimeout = 5 * time.Minute

// autoSaveTokenSource wraps an oauth2.TokenSource and saves refreshed tokens.
type autoSaveTokenSource struct {
	source     oauth2.TokenSource
	tokenStore TokenStore
	lastToken  *oauth2.Token
}

// Token implements oauth2.TokenSource and saves the token if it was refreshed.
func (a *autoSaveTokenSource) Token() (*oauth2.Token, error) {
	token, err := a.source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}

	if a.lastToken == nil || a.lastToken.AccessToken != token.AccessToken {
		if err := a.tokenStore.SaveToken(token); err != nil {
			return nil, fmt.Errorf("failed to save refreshed token: %w", err)
		}
		logger.Named("auth").Debug().Time("expiry", token.Expiry).Msg("saved refreshed token")
		a.lastToken = token
	}

	return token, nil
}

type callback struct {
	code string
	err  error
}

// startLocalServer starts a local HTTP server to receive the OAuth callback.
// It listens on port 8080, or a random port if 8080 is taken.
func startLocalServer(state string) (string, <-chan callback, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:8080")
	if err != nil {
		listener, err = net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return "", nil, nil, fmt.Errorf("failed to start local server: %w", err)
		}
	}

	port := listener.Addr().(*net.TCPAddr).Port
	redirectURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	results := make(chan callback, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callback
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization error: %s", q.Get("error"))
		case q.Get("state") != state:
			res.err = errors.New("authorization response has an unexpected state")
		case q.Get("code") == "":
			res.err = errors.New("no authorization code received")
		default:
			res.code = q.Get("code")
		}

		if res.err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "<html><body><h1>Authorization failed</h1><p>%s</p></body></html>", res.err)
		} else {
			fmt.Fprint(w, "<html><body><h1>Authorization successful!</h1><p>You can close this window.</p></body></html>")
		}
		select {
		case results <- res:
		default:
		}
	})

	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- callback{err: fmt.Errorf("server error: %w", err)}:
			default:
			}
		}
	}()

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}
	return redirectURL, results, shutdown, nil
}

// GetAuthenticatedClient returns an HTTP client authorized for the calendar
// API. Without stored credentials it runs the interactive browser flow,
// printing instructions to out.
func GetAuthenticatedClient(ctx context.Context, oauthConfig *oauth2.Config, tokenStore TokenStore, out io.Writer) (*http.Client, error) {
	token, err := ValidCredentials(tokenStore)
	if errors.Is(err, ErrNoCredentials) {
		logger.Named("auth").Info().Err(err).Msg("authorization required")
		token, err = Authorize(ctx, oauthConfig, tokenStore, out)
	}
	if err != nil {
		return nil, err
	}
	return newClient(ctx, oauthConfig, tokenStore, token), nil
}

// Authorize runs the browser flow through a local callback server and
// stores the resulting token.
func Authorize(ctx context.Context, oauthConfig *oauth2.Config, tokenStore TokenStore, out io.Writer) (*oauth2.Token, error) {
	state := uuid.NewString()
	redirectURL, results, shutdown, err := startLocalServer(state)
	if err != nil {
		return nil, err
	}
	defer shutdown()

	cfg := *oauthConfig
	cfg.RedirectURL = redirectURL
	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	fmt.Fprintf(out, "Starting local server on %s\n", redirectURL)
	if redirectURL != "http://127.0.0.1:8080" {
		fmt.Fprintf(out, "Note: Port 8080 was unavailable. Make sure to add %s to your authorized redirect URIs in Google Cloud Console.\n", redirectURL)
	}
	fmt.Fprintln(out, "\nPlease visit the following URL to authorize the application:")
	fmt.Fprintln(out, authURL)
	fmt.Fprintln(out, "\nWaiting for authorization...")

	var res callback
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authorizeTimeout):
		return nil, fmt.Errorf("authorization timeout: no response received within %s", authorizeTimeout)
	}
	if res.err != nil {
		return nil, fmt.Errorf("failed to receive authorization code: %w", res.err)
	}

	token, err := exchange(ctx, &cfg, tokenStore, res.code)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(out, "Authorization successful!")
	return token, nil
}

// AuthorizeWithReader runs the flow without a callback server: the user
// pastes the code shown after consent into in.
func AuthorizeWithReader(ctx context.Context, oauthConfig *oauth2.Config, tokenStore TokenStore, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	authURL := oauthConfig.AuthCodeURL(uuid.NewString(), oauth2.AccessTypeOffline)

	fmt.Fprintln(out, "Please visit the following URL to authorize the application:")
	fmt.Fprintln(out, authURL)
	fmt.Fprint(out, "Enter the authorization code: ")

	var code string
	if _, err := fmt.Fscanln(in, &code); err != nil {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}
	return exchange(ctx, oauthConfig, tokenStore, code)
}

func exchange(ctx context.Context, oauthConfig *oauth2.Config, tokenStore TokenStore, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, errors.New("no authorization code received")
	}
	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if err := tokenStore.SaveToken(token); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}
	return token, nil
}

func newClient(ctx context.Context, oauthConfig *oauth2.Config, tokenStore TokenStore, token *oauth2.Token) *http.Client {
	source := &autoSaveTokenSource{
		source:     oauth2.ReuseTokenSource(token, oauthConfig.TokenSource(ctx, token)),
		tokenStore: tokenStore,
		lastToken:  token,
	}
	return oauth2.NewClient(ctx, source)
}
