package factors

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

var artifactHTTPClient = &http.Client{Timeout: 2 * time.Minute}

// FetchArtifact reads a model artifact from a local file path or an http(s)
// URL (presigned object-store URLs included).
func FetchArtifact(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return fetchHTTP(ctx, source)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("factors: reading artifact file: %w", err)
	}
	return data, nil
}

func fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("factors: building artifact request: %w", err)
	}

	resp, err := artifactHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("factors: fetching artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("factors: fetching artifact: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("factors: reading artifact body: %w", err)
	}
	return data, nil
}

// Load fetches, parses and publishes an artifact in one step. On any error
// the previously published snapshot stays active.
func (s *Store) Load(ctx context.Context, source string) (*Snapshot, error) {
	data, err := FetchArtifact(ctx, source)
	if err != nil {
		return nil, err
	}
	snap, err := ParseSnapshot(data)
	if err != nil {
		return nil, err
	}
	s.Publish(snap)
	return snap, nil
}
