// Package feed fetches candidate package lists from a repository's upstream
// feed. A feed descriptor is a URL; file and http(s) schemes are supported.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/caravelhq/caravel/internal/model"
)

// ErrFetch is returned when the upstream feed cannot be retrieved or parsed.
var ErrFetch = errors.New("feed fetch failed")

//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks -source=fetcher.go Fetcher

// Fetcher retrieves the full candidate package list for a feed descriptor.
type Fetcher interface {
	Fetch(ctx context.Context, feed string) ([]model.Package, error)
}

// NewFetcher returns a Fetcher that dispatches on the feed URL scheme.
func NewFetcher() Fetcher {
	return &schemeFetcher{
		file: &fileFetcher{},
		http: newHTTPFetcher(),
	}
}

type schemeFetcher struct {
	file Fetcher
	http Fetcher
}

func (f *schemeFetcher) Fetch(ctx context.Context, feed string) ([]model.Package, error) {
	switch {
	case strings.HasPrefix(feed, "file://"):
		return f.file.Fetch(ctx, feed)
	case strings.HasPrefix(feed, "http://"), strings.HasPrefix(feed, "https://"):
		return f.http.Fetch(ctx, feed)
	default:
		return nil, fmt.Errorf("%w: unsupported feed scheme in %q", ErrFetch, feed)
	}
}

// parsePackageList decodes the platform's package-list interchange format
// and rejects entries without an id, since repository content maps are
// keyed by package id.
func parsePackageList(data []byte) ([]model.Package, error) {
	var packages []model.Package
	if err := json.Unmarshal(data, &packages); err != nil {
		return nil, fmt.Errorf("%w: invalid package list: %v", ErrFetch, err)
	}
	for i, pkg := range packages {
		if pkg.ID == "" {
			return nil, fmt.Errorf("%w: package at index %d has no id", ErrFetch, i)
		}
	}
	return packages, nil
}
