// package auth manages the Spotify access token gating every remote call.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"spotd/internal/shared"
)

// Scopes is the fixed permission set requested for every token.
var Scopes = []string{
	"user-read-recently-played",
	"user-top-read",
	"user-read-playback-position",
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
	"streaming",
	"playlist-read-private",
	"playlist-modify-private",
	"playlist-modify-public",
	"playlist-read-collaborative",
	"user-follow-read",
	"user-follow-modify",
	"user-library-read",
	"user-library-modify",
}

// expiryMargin is subtracted from the issued token lifetime so a token is
// refreshed before the server actually rejects it.
const expiryMargin = 5 * time.Minute

// Issuer is the session-bound token issuing primitive.
type Issuer interface {
	IssueToken(ctx context.Context, clientID string, scopes []string) (*oauth2.Token, error)
}

// Token is a Spotify authentication token.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Valid reports whether the token can still be used.
func (t *Token) Valid() bool {
	return t != nil && time.Now().Before(t.ExpiresAt)
}

// Manager holds the current token and refreshes it through the session when
// it expires. The mutex is held across the refresh call so concurrent
// requesters trigger a single refresh.
type Manager struct {
	mu        sync.Mutex
	issuer    Issuer
	clientID  string
	cachePath string
	token     *Token
}

// NewManager creates a token manager. cachePath may be empty to disable the
// on-disk token cache.
func NewManager(issuer Issuer, clientID, cachePath string) *Manager {
	m := &Manager{issuer: issuer, clientID: clientID, cachePath: cachePath}
	m.token = loadCached(cachePath)
	return m
}

// AccessToken returns a non-expired access token, refreshing it first if
// needed. A failed refresh surfaces an authentication error and leaves the
// current token in place.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token.Valid() {
		return m.token.AccessToken, nil
	}

	issued, err := m.issuer.IssueToken(ctx, m.clientID, Scopes)
	if err != nil {
		return "", fmt.Errorf("%w: failed to refresh token: %v", shared.ErrAuthFailed, err)
	}

	m.token = &Token{
		AccessToken: issued.AccessToken,
		ExpiresAt:   issued.Expiry.Add(-expiryMargin),
	}
	m.persist()

	return m.token.AccessToken, nil
}

// persist writes the current token to the cache file, best effort.
func (m *Manager) persist() {
	if m.cachePath == "" {
		return
	}
	data, err := json.Marshal(m.token)
	if err != nil {
		return
	}
	_ = os.WriteFile(m.cachePath, data, 0600)
}

func loadCached(path string) *Token {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil
	}
	return &t
}
