package feed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/caravelhq/caravel/internal/model"
)

// fileFetcher reads a package list from the local filesystem.
type fileFetcher struct{}

func (*fileFetcher) Fetch(_ context.Context, feed string) ([]model.Package, error) {
	path := strings.TrimPrefix(feed, "file://")
	if path == "" {
		return nil, fmt.Errorf("%w: empty file path in %q", ErrFetch, feed)
	}

	//nolint:gosec // Feed path comes from repository configuration, this is expected behavior
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: feed file not found: %s", ErrFetch, path)
		}
		return nil, fmt.Errorf("%w: failed to read feed file %s: %v", ErrFetch, path, err)
	}

	return parsePackageList(data)
}
