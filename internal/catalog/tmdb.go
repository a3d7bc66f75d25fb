package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"filmly/internal/config"
)

// MovieInfo is the metadata a provider returns for an external id.
type MovieInfo struct {
	Title  string
	Genres []string
}

// MetadataProvider looks up title/genre metadata for an external id. It is
// network-bound and treated as unreliable; callers must bound it with a
// context deadline and be prepared for failure.
type MetadataProvider interface {
	Lookup(ctx context.Context, tmdbID int64) (*MovieInfo, error)
}

var (
	ErrNoBearerToken = errors.New("catalog: tmdb bearer token not configured")
	ErrLookupFailed  = errors.New("catalog: tmdb lookup failed")
)

type tmdbMovieResponse struct {
	Title  string `json:"title"`
	Genres []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

// TMDBClient fetches movie metadata from the TMDb API.
type TMDBClient struct {
	baseURL    string
	bearer     string
	httpClient *http.Client
}

func NewTMDBClient(cfg config.TMDBConfig) *TMDBClient {
	return &TMDBClient{
		baseURL: cfg.BaseURL,
		bearer:  cfg.BearerToken,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *TMDBClient) Lookup(ctx context.Context, tmdbID int64) (*MovieInfo, error) {
	if c.bearer == "" {
		return nil, ErrNoBearerToken
	}

	url := fmt.Sprintf("%s/movie/%d", c.baseURL, tmdbID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: building tmdb request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	var body tmdbMovieResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrLookupFailed, err)
	}

	info := &MovieInfo{
		Title:  body.Title,
		Genres: make([]string, 0, len(body.Genres)),
	}
	for _, g := range body.Genres {
		info.Genres = append(info.Genres, g.Name)
	}
	return info, nil
}
