package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"golang.org/x/oauth2"

	"spotd/internal/api"
	"spotd/internal/config"
	"spotd/internal/shared"
)

const spotifyTokenURL = "https://accounts.spotify.com/api/token"

// webSession is the session handle backed by the OAuth refresh-token flow.
// It carries no integrated playback device and no Mercury channel; those
// capabilities require the audio-session collaborator.
type webSession struct {
	cfg *config.Config

	mu     sync.Mutex
	valid  bool
	source oauth2.TokenSource
}

func newWebSession(cfg *config.Config) *webSession {
	s := &webSession{cfg: cfg}
	s.valid = s.initTokenSource() == nil
	return s
}

// initTokenSource builds a token source from the refresh token persisted by
// the credential bootstrap in the token cache file.
func (s *webSession) initTokenSource() error {
	data, err := os.ReadFile(s.cfg.TokenCachePath())
	if err != nil {
		return fmt.Errorf("%w: no cached credentials", shared.ErrAuthFailed)
	}

	var cached struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(data, &cached); err != nil || cached.RefreshToken == "" {
		return fmt.Errorf("%w: token cache has no refresh token", shared.ErrAuthFailed)
	}

	conf := &oauth2.Config{
		ClientID:     s.cfg.Client.ClientID,
		ClientSecret: s.cfg.Client.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: spotifyTokenURL},
	}
	s.source = conf.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cached.RefreshToken})
	return nil
}

func (s *webSession) IssueToken(ctx context.Context, clientID string, scopes []string) (*oauth2.Token, error) {
	s.mu.Lock()
	source := s.source
	s.mu.Unlock()

	if source == nil {
		return nil, fmt.Errorf("%w: session has no token source", shared.ErrAuthFailed)
	}

	token, err := source.Token()
	if err != nil {
		s.mu.Lock()
		s.valid = false
		s.mu.Unlock()
		return nil, err
	}
	return token, nil
}

func (s *webSession) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid
}

func (s *webSession) Reestablish(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initTokenSource(); err != nil {
		return err
	}
	s.valid = true
	return nil
}

func (s *webSession) DeviceID() string { return "" }

func (s *webSession) MercuryGet(ctx context.Context, url string) (*api.MercuryResponse, error) {
	return nil, fmt.Errorf("%w: the session has no Mercury channel without the integrated client", shared.ErrSessionInvalid)
}
