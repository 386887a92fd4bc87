package google

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
)

// ErrNoCredentials indicates that no usable credential record exists and the
// user has to go through the authorization flow.
var ErrNoCredentials = errors.New("no valid Google OAuth credentials")

// oauthStateToken is the anti-forgery state passed through the consent flow.
// The app serves a single local user, so a static state is sufficient.
const oauthStateToken = "state-token"

// LoadOAuthConfig reads an uploaded OAuth client-secret JSON file and builds
// the oauth2 configuration for the Gmail send scope.
func LoadOAuthConfig(clientSecretPath, redirectURL string) (*oauth2.Config, error) {
	b, err := os.ReadFile(clientSecretPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret file: %w", err)
	}

	conf, err := google.ConfigFromJSON(b, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret file: %w", err)
	}

	conf.RedirectURL = redirectURL
	return conf, nil
}

// AuthCodeURL returns the consent-screen URL. Offline access and forced
// consent make sure Google hands back a refresh token even on repeat
// authorizations.
func AuthCodeURL(conf *oauth2.Config) string {
	return conf.AuthCodeURL(oauthStateToken, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// VerifyState checks the state parameter returned by the consent flow.
func VerifyState(state string) bool {
	return state == oauthStateToken
}

// Exchange trades an authorization code for a token record.
func Exchange(ctx context.Context, conf *oauth2.Config, code string) (*oauth2.Token, error) {
	t, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return t, nil
}
