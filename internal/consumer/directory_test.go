package consumer_test

import (
	"context"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caravelhq/caravel/internal/consumer"
	"github.com/caravelhq/caravel/internal/model"
	"github.com/caravelhq/caravel/internal/repo"
	"github.com/caravelhq/caravel/internal/store"
)

func newTestDirectory(t *testing.T) (*consumer.StoreDirectory, *repo.Catalog) {
	t.Helper()
	recordStore := store.NewInMemory()
	catalog := repo.NewCatalog(recordStore)
	return consumer.NewStoreDirectory(recordStore, catalog), catalog
}

func TestRegisterConsumer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	directory, _ := newTestDirectory(t)

	created, err := directory.Register(ctx, model.Consumer{ID: "web-01", Description: "front web host"})
	require.NoError(t, err)
	assert.Equal(t, "web-01", created.ID)

	got, err := directory.Get(ctx, "web-01")
	require.NoError(t, err)
	assert.Equal(t, "front web host", got.Description)
}

func TestRegisterConsumerRejectsDuplicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	directory, _ := newTestDirectory(t)

	_, err := directory.Register(ctx, model.Consumer{ID: "web-01"})
	require.NoError(t, err)

	_, err = directory.Register(ctx, model.Consumer{ID: "web-01"})
	require.Error(t, err)
	assert.True(t, errdefs.IsAlreadyExists(err))
}

func TestRegisterConsumerRequiresID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	directory, _ := newTestDirectory(t)

	_, err := directory.Register(ctx, model.Consumer{})
	require.Error(t, err)
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestUnregisterConsumer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	directory, _ := newTestDirectory(t)

	_, err := directory.Register(ctx, model.Consumer{ID: "web-01"})
	require.NoError(t, err)

	require.NoError(t, directory.Unregister(ctx, "web-01"))

	ok, err := directory.Exists(ctx, "web-01")
	require.NoError(t, err)
	assert.False(t, ok)

	err = directory.Unregister(ctx, "web-01")
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestBindRepoIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	directory, _ := newTestDirectory(t)

	_, err := directory.Register(ctx, model.Consumer{ID: "web-01"})
	require.NoError(t, err)

	require.NoError(t, directory.BindRepo(ctx, "web-01", "fedora-40"))
	require.NoError(t, directory.BindRepo(ctx, "web-01", "fedora-40"))

	got, err := directory.Get(ctx, "web-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"fedora-40"}, got.BoundRepoIDs)
}

func TestUnbindRepoIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	directory, _ := newTestDirectory(t)

	_, err := directory.Register(ctx, model.Consumer{ID: "web-01", BoundRepoIDs: []string{"fedora-40", "epel-9"}})
	require.NoError(t, err)

	require.NoError(t, directory.UnbindRepo(ctx, "web-01", "fedora-40"))
	require.NoError(t, directory.UnbindRepo(ctx, "web-01", "fedora-40"))

	got, err := directory.Get(ctx, "web-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"epel-9"}, got.BoundRepoIDs)
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	directory, _ := newTestDirectory(t)

	_, err := directory.Register(ctx, model.Consumer{ID: "web-01"})
	require.NoError(t, err)

	require.NoError(t, directory.UpdateProfile(ctx, "web-01", []string{"zsh", "htop"}))

	got, err := directory.Get(ctx, "web-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"zsh", "htop"}, got.InstalledPackageNames)
}

func TestApplicableErrata(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	directory, catalog := newTestDirectory(t)

	require.NoError(t, catalog.Put(ctx, model.Package{ID: "p1", Name: "zsh", Arch: "x86_64"}))
	require.NoError(t, catalog.Put(ctx, model.Package{ID: "p2", Name: "zsh", Arch: "src"}))
	require.NoError(t, catalog.Put(ctx, model.Package{ID: "p3", Name: "nginx", Arch: "x86_64"}))

	require.NoError(t, directory.PutErrata(ctx, model.Errata{
		ID: "CVE-2026-0001", Type: "security", PackageIDs: []string{"p1", "p2"},
	}))
	require.NoError(t, directory.PutErrata(ctx, model.Errata{
		ID: "BUG-42", Type: "bugfix", PackageIDs: []string{"p3"},
	}))

	_, err := directory.Register(ctx, model.Consumer{
		ID: "web-01", InstalledPackageNames: []string{"zsh"},
	})
	require.NoError(t, err)

	// Only the zsh erratum applies; nginx is not installed.
	applicable, err := directory.ApplicableErrata(ctx, "web-01", nil)
	require.NoError(t, err)
	require.Len(t, applicable, 1)
	require.Contains(t, applicable, "CVE-2026-0001")
	assert.Len(t, applicable["CVE-2026-0001"], 2)

	// Type filter excludes the security erratum.
	applicable, err = directory.ApplicableErrata(ctx, "web-01", []string{"bugfix"})
	require.NoError(t, err)
	assert.Empty(t, applicable)
}

func TestApplicableErrataSkipsUnresolvedPackages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	directory, catalog := newTestDirectory(t)

	require.NoError(t, catalog.Put(ctx, model.Package{ID: "p1", Name: "zsh"}))
	require.NoError(t, directory.PutErrata(ctx, model.Errata{
		ID: "CVE-2026-0001", PackageIDs: []string{"p1", "never-ingested"},
	}))
	_, err := directory.Register(ctx, model.Consumer{
		ID: "web-01", InstalledPackageNames: []string{"zsh"},
	})
	require.NoError(t, err)

	applicable, err := directory.ApplicableErrata(ctx, "web-01", nil)
	require.NoError(t, err)
	require.Contains(t, applicable, "CVE-2026-0001")
	assert.Len(t, applicable["CVE-2026-0001"], 1)
}

func TestPackageUpdatesDeduplicates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	directory, catalog := newTestDirectory(t)

	require.NoError(t, catalog.Put(ctx, model.Package{ID: "p1", Name: "zsh"}))
	require.NoError(t, directory.PutErrata(ctx, model.Errata{ID: "E1", PackageIDs: []string{"p1"}}))
	require.NoError(t, directory.PutErrata(ctx, model.Errata{ID: "E2", PackageIDs: []string{"p1"}}))
	_, err := directory.Register(ctx, model.Consumer{
		ID: "web-01", InstalledPackageNames: []string{"zsh"},
	})
	require.NoError(t, err)

	updates, err := directory.PackageUpdates(ctx, "web-01", nil)
	require.NoError(t, err)
	assert.Len(t, updates, 1)
}
