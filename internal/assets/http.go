package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPFetcher loads photos from a running server's /uploads/ route. It is
// read-only and backs the export CLI.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher fetches from baseURL. A nil client gets a traced default
// with a 30s timeout.
func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &HTTPFetcher{baseURL: baseURL, client: client}
}

func (f *HTTPFetcher) Load(ctx context.Context, ref string) ([]byte, error) {
	if _, err := Key(ref); err != nil {
		return nil, err
	}
	url := PhotoURL(f.baseURL, ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode/100 != 2:
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return data, nil
}
