package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caravelhq/caravel/internal/feed"
	"github.com/caravelhq/caravel/internal/model"
)

const testPackageList = `[
  {"id": "p1", "name": "zsh", "version": "5.9", "arch": "x86_64"},
  {"id": "p2", "name": "zsh", "version": "5.9", "arch": "src"}
]`

func TestFetchFromFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(path, []byte(testPackageList), 0o600))

	packages, err := feed.NewFetcher().Fetch(ctx, "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, []model.Package{
		{ID: "p1", Name: "zsh", Version: "5.9", Arch: "x86_64"},
		{ID: "p2", Name: "zsh", Version: "5.9", Arch: "src"},
	}, packages)
}

func TestFetchFromFileNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := feed.NewFetcher().Fetch(ctx, "file:///no/such/feed.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, feed.ErrFetch)
}

func TestFetchFromHTTP(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testPackageList))
	}))
	t.Cleanup(srv.Close)

	packages, err := feed.NewFetcher().Fetch(ctx, srv.URL)
	require.NoError(t, err)
	assert.Len(t, packages, 2)
	assert.Equal(t, "p1", packages[0].ID)
}

func TestFetchFromHTTPErrorStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := feed.NewFetcher().Fetch(ctx, srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, feed.ErrFetch)
}

func TestFetchRejectsUnsupportedScheme(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := feed.NewFetcher().Fetch(ctx, "ftp://mirror.example.com/feed.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, feed.ErrFetch)
}

func TestFetchRejectsMalformedPackageList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{
			name: "not json",
			body: "this is not a package list",
		},
		{
			name: "package without id",
			body: `[{"name": "zsh"}]`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "feed.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			_, err := feed.NewFetcher().Fetch(context.Background(), "file://"+path)
			require.Error(t, err)
			assert.ErrorIs(t, err, feed.ErrFetch)
		})
	}
}
