package google

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestStore(t *testing.T) *CredentialStore {
	t.Helper()
	return NewCredentialStore(filepath.Join(t.TempDir(), "token.json"), nil)
}

func TestCredentialStore_SaveLoad(t *testing.T) {
	store := newTestStore(t)

	tok := &oauth2.Token{
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).Round(time.Second),
	}
	require.NoError(t, store.Save(tok))

	got, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, tok.AccessToken, got.AccessToken)
	assert.Equal(t, tok.RefreshToken, got.RefreshToken)
	assert.True(t, got.Expiry.Equal(tok.Expiry))
}

func TestCredentialStore_LoadMissing(t *testing.T) {
	store := newTestStore(t)

	tok, ok := store.Load()
	assert.False(t, ok)
	assert.Nil(t, tok)
}

func TestCredentialStore_LoadMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0o600))

	store := NewCredentialStore(path, nil)
	tok, ok := store.Load()
	assert.False(t, ok, "malformed record must be treated as absent")
	assert.Nil(t, tok)
}

func TestCredentialStore_LoadEmptyRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	store := NewCredentialStore(path, nil)
	_, ok := store.Load()
	assert.False(t, ok, "record without any token material is unusable")
}

func TestCredentialStore_SaveOverwrites(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "first"}))
	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "second"}))

	got, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, "second", got.AccessToken)
}

func TestTokenSource_NoCredentials(t *testing.T) {
	store := newTestStore(t)

	_, err := store.TokenSource(context.Background(), &oauth2.Config{})
	assert.ErrorIs(t, err, ErrNoCredentials)
}

type staticTokenSource struct {
	tok *oauth2.Token
}

func (s staticTokenSource) Token() (*oauth2.Token, error) {
	return s.tok, nil
}

func TestPersistingTokenSource_SavesRefreshedToken(t *testing.T) {
	store := newTestStore(t)

	old := &oauth2.Token{AccessToken: "old", RefreshToken: "r"}
	require.NoError(t, store.Save(old))

	refreshed := &oauth2.Token{
		AccessToken:  "new",
		RefreshToken: "r",
		Expiry:       time.Now().Add(time.Hour),
	}
	ts := &persistingTokenSource{
		store: store,
		src:   staticTokenSource{tok: refreshed},
		last:  old,
	}

	got, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "new", got.AccessToken)

	stored, ok := store.Load()
	require.True(t, ok, "refreshed token must be written back")
	assert.Equal(t, "new", stored.AccessToken)
}

func TestPersistingTokenSource_UnchangedTokenNotRewritten(t *testing.T) {
	store := newTestStore(t)

	tok := &oauth2.Token{AccessToken: "same", RefreshToken: "r"}
	ts := &persistingTokenSource{
		store: store,
		src:   staticTokenSource{tok: tok},
		last:  tok,
	}

	_, err := ts.Token()
	require.NoError(t, err)

	// Nothing was ever saved, so an unchanged token must not create the file
	_, ok := store.Load()
	assert.False(t, ok)
}

func TestUsable(t *testing.T) {
	tests := []struct {
		name     string
		tok      *oauth2.Token
		expected bool
	}{
		{
			name:     "nil token",
			tok:      nil,
			expected: false,
		},
		{
			name: "valid unexpired token",
			tok: &oauth2.Token{
				AccessToken: "a",
				Expiry:      time.Now().Add(time.Hour),
			},
			expected: true,
		},
		{
			name: "expired with refresh token",
			tok: &oauth2.Token{
				AccessToken:  "a",
				RefreshToken: "r",
				Expiry:       time.Now().Add(-time.Hour),
			},
			expected: true,
		},
		{
			name: "expired without refresh token",
			tok: &oauth2.Token{
				AccessToken: "a",
				Expiry:      time.Now().Add(-time.Hour),
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Usable(tt.tok))
		})
	}
}
