package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"spotd/internal/shared"
)

const lyricSearchBaseURL = "https://genius.com/api/search"

type lyricSearchBody struct {
	Meta struct {
		Status  int     `json:"status"`
		Message *string `json:"message"`
	} `json:"meta"`
	Response *struct {
		Hits []struct {
			Type   string `json:"type"`
			Result struct {
				URL string `json:"url"`
			} `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

// SearchLyricURLs searches the lyric provider for pages matching query,
// usually "{track} {artists}".
func (c *Client) SearchLyricURLs(ctx context.Context, query string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?q=%s", lyricSearchBaseURL, url.QueryEscape(query)), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	var body lyricSearchBody
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}

	if body.Meta.Status != 200 {
		if body.Meta.Message != nil {
			return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, *body.Meta.Message)
		}
		return nil, fmt.Errorf("%w: lyric search failed with status %d", shared.ErrAPIRequest, body.Meta.Status)
	}
	if body.Response == nil {
		return nil, fmt.Errorf("%w: lyric not found for query %s", shared.ErrNotFound, query)
	}

	var urls []string
	for _, hit := range body.Response.Hits {
		if hit.Type == "song" {
			urls = append(urls, hit.Result.URL)
		}
	}
	return urls, nil
}

// GetLyric returns the lyric page URL for query, reporting false when the
// provider has no match.
func (c *Client) GetLyric(ctx context.Context, query string) (string, bool, error) {
	urls, err := c.SearchLyricURLs(ctx, query)
	if err != nil {
		return "", false, err
	}
	if len(urls) == 0 {
		return "", false, nil
	}
	return urls[0], true, nil
}
