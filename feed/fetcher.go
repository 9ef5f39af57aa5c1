// Package feed fetches product feeds and maps their rows to catalog products.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// maxBodySize caps a single feed body.
const maxBodySize = 64 << 20

// Fetcher retrieves raw feed bodies from URLs or the local filesystem.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a new Fetcher. A nil client uses http.DefaultClient.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client}
}

// Fetch retrieves the raw body of the feed at location.
// Locations starting with http:// or https:// are requested over HTTP,
// anything else is read as a file path (an optional file:// prefix is stripped).
func (f *Fetcher) Fetch(ctx context.Context, location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("feed location is empty")
	}

	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return f.fetchHTTP(ctx, location)
	}
	return f.fetchFile(ctx, strings.TrimPrefix(location, "file://"))
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch feed from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to fetch feed from %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read feed from %s: %w", url, err)
	}
	return string(body), nil
}

func (f *Fetcher) fetchFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read feed file %s: %w", path, err)
	}
	return string(body), nil
}
