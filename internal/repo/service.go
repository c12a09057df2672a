// Package repo implements the repository service: lifecycle and content
// association for repositories, and the synchronization pass that reconciles
// a repository against its upstream feed.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/containerd/errdefs"

	"github.com/caravelhq/caravel/internal/feed"
	"github.com/caravelhq/caravel/internal/model"
	"github.com/caravelhq/caravel/internal/schedule"
	"github.com/caravelhq/caravel/internal/store"
	"github.com/caravelhq/caravel/internal/telemetry"
)

var (
	// ErrConditionalUnsupported is returned for membership operations on the
	// conditional kind, which is recognized but intentionally unsupported.
	ErrConditionalUnsupported = fmt.Errorf(
		"conditional package group membership is not supported: %w", errdefs.ErrNotImplemented)

	// ErrUnschedulable is returned when a sync is attempted on a repository
	// with no feed. Such repositories only receive content by upload.
	ErrUnschedulable = errors.New("repository has no feed and cannot be synchronized")

	// ErrSync is returned when a synchronization pass fails upstream.
	ErrSync = errors.New("repository sync failed")

	// ErrSyncBusy is returned when a sync is already running for the repository.
	ErrSyncBusy = fmt.Errorf("sync already in progress: %w", errdefs.ErrUnavailable)
)

// Service owns all repository mutation. Content map changes funnel through
// it so that each read-modify-persist cycle for a given repository is
// serialized, and so that every create, update, and delete re-evaluates the
// repository's sync schedule.
type Service struct {
	store     store.Store
	scheduler schedule.Scheduler
	fetcher   feed.Fetcher
	catalog   *Catalog
	metrics   *telemetry.Metrics

	// locks serializes read-modify-persist per repository id.
	locks keyedMutex

	mu      sync.Mutex
	syncing map[string]bool
}

// NewService creates a repository Service with its collaborators.
func NewService(
	recordStore store.Store,
	scheduler schedule.Scheduler,
	fetcher feed.Fetcher,
	metrics *telemetry.Metrics,
) *Service {
	return &Service{
		store:     recordStore,
		scheduler: scheduler,
		fetcher:   fetcher,
		catalog:   NewCatalog(recordStore),
		metrics:   metrics,
		syncing:   make(map[string]bool),
	}
}

// Catalog returns the global package catalog backing this service.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Create creates a new repository. The schedule is validated before anything
// is persisted, and registered with the scheduler after the record commits.
func (s *Service) Create(
	ctx context.Context, id, name, arch, feedURL string, useSymlinks bool, syncSchedule string,
) (*model.Repository, error) {
	if id == "" {
		return nil, fmt.Errorf("repository id is required: %w", errdefs.ErrInvalidArgument)
	}
	if err := schedule.Validate(syncSchedule); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(id)
	defer unlock()

	if _, err := s.getRepository(ctx, id); err == nil {
		return nil, fmt.Errorf("repository %s: %w", id, errdefs.ErrAlreadyExists)
	} else if !errdefs.IsNotFound(err) {
		return nil, err
	}

	repository := model.NewRepository(id, name, arch, feedURL)
	repository.UseSymlinks = useSymlinks
	repository.SyncSchedule = syncSchedule

	if err := s.putRepository(ctx, repository); err != nil {
		return nil, err
	}
	if err := s.registerSchedule(repository); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Repository created",
		"repository", id, "feed", feedURL, "schedule", syncSchedule)
	return repository, nil
}

// Update validates and persists the repository, then re-evaluates its sync
// schedule. The schedule transition is computed from the current schedule
// value alone, so repeated calls are idempotent.
func (s *Service) Update(ctx context.Context, repository *model.Repository) error {
	if err := schedule.Validate(repository.SyncSchedule); err != nil {
		return err
	}

	unlock := s.locks.lock(repository.ID)
	defer unlock()

	if _, err := s.getRepository(ctx, repository.ID); err != nil {
		return err
	}
	if err := s.putRepository(ctx, repository); err != nil {
		return err
	}
	return s.registerSchedule(repository)
}

// Get returns a single repository by id.
func (s *Service) Get(ctx context.Context, id string) (*model.Repository, error) {
	return s.getRepository(ctx, id)
}

// List returns all repositories.
func (s *Service) List(ctx context.Context) ([]*model.Repository, error) {
	records, err := s.store.List(ctx, store.CollectionRepositories)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	repositories := make([]*model.Repository, 0, len(records))
	for _, record := range records {
		var repository model.Repository
		if err := json.Unmarshal(record, &repository); err != nil {
			return nil, fmt.Errorf("failed to decode repository record: %w", err)
		}
		repository.EnsureMaps()
		repositories = append(repositories, &repository)
	}
	return repositories, nil
}

// Delete removes a repository and cancels any registered sync schedule.
// Consumer group binds referencing the repository are left in place.
func (s *Service) Delete(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	if _, err := s.getRepository(ctx, id); err != nil {
		return err
	}
	s.scheduler.CancelJob(id)
	if err := s.store.Delete(ctx, store.CollectionRepositories, id); err != nil {
		return fmt.Errorf("failed to delete repository %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Repository deleted", "repository", id)
	return nil
}

// mutate runs fn against the current repository record and persists the
// result, all under the repository's lock. fn returning an error aborts
// without persisting.
func (s *Service) mutate(ctx context.Context, id string, fn func(*model.Repository) error) error {
	unlock := s.locks.lock(id)
	defer unlock()

	repository, err := s.getRepository(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(repository); err != nil {
		return err
	}
	return s.putRepository(ctx, repository)
}

func (s *Service) getRepository(ctx context.Context, id string) (*model.Repository, error) {
	record, err := s.store.Get(ctx, store.CollectionRepositories, id)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, fmt.Errorf("no repository with id %s: %w", id, errdefs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load repository %s: %w", id, err)
	}

	var repository model.Repository
	if err := json.Unmarshal(record, &repository); err != nil {
		return nil, fmt.Errorf("failed to decode repository %s: %w", id, err)
	}
	repository.EnsureMaps()
	return &repository, nil
}

func (s *Service) putRepository(ctx context.Context, repository *model.Repository) error {
	record, err := json.Marshal(repository)
	if err != nil {
		return fmt.Errorf("failed to encode repository %s: %w", repository.ID, err)
	}
	if err := s.store.Put(ctx, store.CollectionRepositories, repository.ID, record); err != nil {
		return fmt.Errorf("failed to persist repository %s: %w", repository.ID, err)
	}
	return nil
}

// keyedMutex hands out one mutex per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
