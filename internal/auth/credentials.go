package auth

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// ErrNoCredentials means no usable token is stored and the user has to
// authorize again before anything can be fetched.
var ErrNoCredentials = errors.New("no valid credentials")

// Scopes requested from Google. The agenda only reads.
var Scopes = []string{calendar.CalendarReadonlyScope}

// OAuthConfig builds the OAuth client configuration from a client secrets
// file downloaded from the Google Cloud console.
func OAuthConfig(credentialsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return cfg, nil
}

// ValidCredentials loads the stored token and reports ErrNoCredentials
// when there is none, or when it has expired and cannot be refreshed.
func ValidCredentials(store TokenStore) (*oauth2.Token, error) {
	token, err := store.LoadToken()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}
	if token == nil || token.AccessToken == "" && token.RefreshToken == "" {
		return nil, ErrNoCredentials
	}
	if !token.Valid() && token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token expired", ErrNoCredentials)
	}
	return token, nil
}
