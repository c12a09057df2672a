package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/caravelhq/caravel/internal/model"
)

const (
	fetchTimeout      = 30 * time.Second
	maxFeedBodyLength = 64 << 20 // 64 MiB cap on feed responses
)

// httpFetcher retrieves a package list from an HTTP(S) endpoint.
type httpFetcher struct {
	client *http.Client
}

func newHTTPFetcher() *httpFetcher {
	return &httpFetcher{
		client: &http.Client{Timeout: fetchTimeout},
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, feed string) ([]model.Package, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid feed URL %q: %v", ErrFetch, feed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request to %s failed: %v", ErrFetch, feed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrFetch, feed, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBodyLength))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response from %s: %v", ErrFetch, feed, err)
	}

	return parsePackageList(data)
}
