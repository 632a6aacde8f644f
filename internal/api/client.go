// package api implements the typed facade over the Spotify Web API.
//
// Endpoint shapes follow https://developer.spotify.com/documentation/web-api/reference/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"spotd/internal/auth"
	"spotd/internal/shared"
)

const defaultBaseURL = "https://api.spotify.com/v1"

// Session is the capability handle provided by the audio-session collaborator.
// It issues tokens, answers validity checks, and exposes the Mercury channel
// used for radio resolution.
type Session interface {
	auth.Issuer

	// Valid reports whether the session can still serve requests.
	Valid() bool
	// Reestablish creates a fresh session in place, synchronously.
	Reestablish(ctx context.Context) error
	// DeviceID returns the integrated streaming device's id, or "" when the
	// streaming feature is inactive.
	DeviceID() string
	// MercuryGet performs a GET over the session's Mercury channel.
	MercuryGet(ctx context.Context, url string) (*MercuryResponse, error)
}

// MercuryResponse is a response received over the session's Mercury channel.
type MercuryResponse struct {
	StatusCode int
	Payload    [][]byte
}

// Client is the remote API facade. All outbound Spotify interaction goes
// through it.
type Client struct {
	http    *http.Client
	tokens  *auth.Manager
	session Session
	limiter *rate.Limiter
	logger  *log.Logger
	baseURL string
}

// New creates a facade using the given token manager and session handle.
// httpClient may be nil to use a default client.
func New(tokens *auth.Manager, session Session, httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		http:    httpClient,
		tokens:  tokens,
		session: session,
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		logger:  logger,
		baseURL: defaultBaseURL,
	}
}

// Session returns the facade's session handle.
func (c *Client) Session() Session { return c.session }

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

// do performs an authenticated request against a fully qualified URL and
// decodes the JSON response into result when result is non-nil.
//
// On HTTP 429 the server-provided back-off is honoured and the request is
// retried once. Other failures surface immediately; the caller decides
// whether to retry.
func (c *Client) do(ctx context.Context, method, url string, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.send(ctx, method, url, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		delay := retryAfter(resp)
		resp.Body.Close()
		c.logger.Warn("rate limited by the API, backing off", "delay", delay, "url", url)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		if resp, err = c.send(ctx, method, url, body); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	// e.g. no playback anywhere yields 204 with an empty body
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrBadResponse, err)
		}
	}

	return nil
}

func (c *Client) send(ctx context.Context, method, url string, body any) (*http.Response, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, url string, result any) error {
	return c.do(ctx, http.MethodGet, url, nil, result)
}

func decodeJSON(resp *http.Response, result any) error {
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrBadResponse, err)
	}
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Second
}

func decodeError(resp *http.Response) error {
	var apiErr struct {
		Error struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", shared.ErrNotFound, apiErr.Error.Message)
		}
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, apiErr.Error.Message)
	}
	if resp.StatusCode == http.StatusNotFound {
		return shared.ErrNotFound
	}
	return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
}
