package repo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/caravelhq/caravel/internal/feed"
	"github.com/caravelhq/caravel/internal/model"
	"github.com/caravelhq/caravel/internal/repo"
	"github.com/caravelhq/caravel/internal/schedule"
	"github.com/caravelhq/caravel/internal/store"
	storemocks "github.com/caravelhq/caravel/internal/store/mocks"
	"github.com/caravelhq/caravel/internal/telemetry"
)

// newTestService builds a Service on the in-memory store. Pass nil for the
// fetcher or scheduler to get inert defaults.
func newTestService(t *testing.T, scheduler schedule.Scheduler, fetcher feed.Fetcher) *repo.Service {
	t.Helper()
	if scheduler == nil {
		scheduler = schedule.NoopScheduler{}
	}
	metrics := telemetry.NewMetrics(prometheus.NewRegistry())
	return repo.NewService(store.NewInMemory(), scheduler, fetcher, metrics)
}

func TestCreateRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t, nil, nil)

	created, err := svc.Create(ctx, "fedora-40", "Fedora 40", "x86_64", "https://mirror.example.com/feed.json", false, "")
	require.NoError(t, err)
	assert.Equal(t, "fedora-40", created.ID)
	assert.NotNil(t, created.Packages)

	got, err := svc.Get(ctx, "fedora-40")
	require.NoError(t, err)
	assert.Equal(t, "Fedora 40", got.Name)
	assert.Equal(t, "x86_64", got.Architecture)
}

func TestCreateRepositoryRejectsDuplicateID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t, nil, nil)

	_, err := svc.Create(ctx, "fedora-40", "Fedora 40", "", "", false, "")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "fedora-40", "Fedora 40 again", "", "", false, "")
	require.Error(t, err)
	assert.True(t, errdefs.IsAlreadyExists(err))
}

func TestCreateRepositoryRejectsEmptyID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t, nil, nil)

	_, err := svc.Create(ctx, "", "nameless", "", "", false, "")
	require.Error(t, err)
	assert.True(t, errdefs.IsInvalidArgument(err))
}

func TestCreateRepositoryRejectsInvalidScheduleBeforePersisting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t, nil, nil)

	_, err := svc.Create(ctx, "fedora-40", "Fedora 40", "", "", false, "99 2 * * *")
	require.Error(t, err)
	assert.ErrorIs(t, err, schedule.ErrInvalidSchedule)

	repositories, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, repositories)
}

func TestUpdateRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t, nil, nil)

	created, err := svc.Create(ctx, "fedora-40", "Fedora 40", "", "", false, "")
	require.NoError(t, err)

	created.Name = "Fedora 40 Updates"
	require.NoError(t, svc.Update(ctx, created))

	got, err := svc.Get(ctx, "fedora-40")
	require.NoError(t, err)
	assert.Equal(t, "Fedora 40 Updates", got.Name)
}

func TestUpdateUnknownRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t, nil, nil)

	err := svc.Update(ctx, model.NewRepository("ghost", "Ghost", "", ""))
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestDeleteRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t, nil, nil)

	_, err := svc.Create(ctx, "fedora-40", "Fedora 40", "", "", false, "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "fedora-40"))

	_, err = svc.Get(ctx, "fedora-40")
	assert.True(t, errdefs.IsNotFound(err))

	err = svc.Delete(ctx, "fedora-40")
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestListRepositories(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t, nil, nil)

	_, err := svc.Create(ctx, "fedora-40", "Fedora 40", "", "", false, "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "epel-9", "EPEL 9", "", "", false, "")
	require.NoError(t, err)

	repositories, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, repositories, 2)

	ids := []string{repositories[0].ID, repositories[1].ID}
	assert.ElementsMatch(t, []string{"fedora-40", "epel-9"}, ids)
}

func TestListRepositoriesPropagatesStoreErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	recordStore := storemocks.NewMockStore(ctrl)
	recordStore.EXPECT().List(gomock.Any(), store.CollectionRepositories).
		Return(nil, errors.New("connection reset"))

	metrics := telemetry.NewMetrics(prometheus.NewRegistry())
	svc := repo.NewService(recordStore, schedule.NoopScheduler{}, nil, metrics)

	_, err := svc.List(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
