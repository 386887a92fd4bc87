package google

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClientSecret = `{
  "web": {
    "client_id": "client-id-123.apps.googleusercontent.com",
    "client_secret": "secret-456",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost:5000/oauth2callback"]
  }
}`

func writeClientSecret(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client_secret.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadOAuthConfig(t *testing.T) {
	path := writeClientSecret(t, testClientSecret)

	conf, err := LoadOAuthConfig(path, "http://localhost:5000/oauth2callback")
	require.NoError(t, err)

	assert.Equal(t, "client-id-123.apps.googleusercontent.com", conf.ClientID)
	assert.Equal(t, "secret-456", conf.ClientSecret)
	assert.Equal(t, "http://localhost:5000/oauth2callback", conf.RedirectURL)
	require.Len(t, conf.Scopes, 1)
	assert.Equal(t, "https://www.googleapis.com/auth/gmail.send", conf.Scopes[0])
}

func TestLoadOAuthConfig_MissingFile(t *testing.T) {
	_, err := LoadOAuthConfig(filepath.Join(t.TempDir(), "nope.json"), "")
	assert.Error(t, err)
}

func TestLoadOAuthConfig_Malformed(t *testing.T) {
	path := writeClientSecret(t, "{broken")
	_, err := LoadOAuthConfig(path, "")
	assert.Error(t, err)
}

func TestAuthCodeURL(t *testing.T) {
	path := writeClientSecret(t, testClientSecret)
	conf, err := LoadOAuthConfig(path, "http://localhost:5000/oauth2callback")
	require.NoError(t, err)

	url := AuthCodeURL(conf)
	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "prompt=consent")
	assert.Contains(t, url, "client-id-123")
}
