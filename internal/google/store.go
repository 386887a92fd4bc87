package google

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// CredentialStore persists a single OAuth token record as a JSON file.
type CredentialStore struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

// NewCredentialStore creates a store backed by the given token file path.
func NewCredentialStore(path string, logger *slog.Logger) *CredentialStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialStore{path: path, logger: logger}
}

// Path returns the token file path.
func (s *CredentialStore) Path() string {
	return s.path
}

// Load reads the persisted token record. It fails soft: a missing,
// unreadable or malformed record is reported as absent (ok == false),
// never as an error.
func (s *CredentialStore) Load() (tok *oauth2.Token, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, false
	}

	tok = &oauth2.Token{}
	if err := json.Unmarshal(b, tok); err != nil {
		s.logger.Warn("discarding malformed token record", "path", s.path, "error", err.Error())
		return nil, false
	}

	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, false
	}

	return tok, true
}

// Save persists a token record, overwriting any prior record. Subsequent
// Load calls observe the new record.
func (s *CredentialStore) Save(tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	b, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// Usable reports whether a loaded token can back a send: either it has not
// expired yet, or it carries a refresh token the oauth2 client can use.
func Usable(tok *oauth2.Token) bool {
	if tok == nil {
		return false
	}
	return tok.Valid() || tok.RefreshToken != ""
}

// TokenSource returns an auto-refreshing token source for the stored record.
// Refreshed tokens are persisted back through the store so the next process
// start picks them up. Returns ErrNoCredentials if no usable record exists.
func (s *CredentialStore) TokenSource(ctx context.Context, conf *oauth2.Config) (oauth2.TokenSource, error) {
	tok, ok := s.Load()
	if !ok || !Usable(tok) {
		return nil, ErrNoCredentials
	}

	return &persistingTokenSource{
		store: s,
		src:   conf.TokenSource(ctx, tok),
		last:  tok,
	}, nil
}

// persistingTokenSource wraps an oauth2.TokenSource and writes refreshed
// tokens back to the credential store.
type persistingTokenSource struct {
	store *CredentialStore
	src   oauth2.TokenSource

	mu   sync.Mutex
	last *oauth2.Token
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	changed := p.last == nil || tok.AccessToken != p.last.AccessToken
	p.last = tok
	p.mu.Unlock()

	if changed {
		if err := p.store.Save(tok); err != nil {
			// Persisting is best effort; the in-memory token still works.
			p.store.logger.Warn("failed to persist refreshed token", "error", err.Error())
		}
	}

	return tok, nil
}
