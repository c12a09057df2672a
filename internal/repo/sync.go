package repo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caravelhq/caravel/internal/model"
)

// SyncState describes where a repository sits in the sync lifecycle.
type SyncState string

// Sync lifecycle states. A repository with a schedule loops
// Scheduled → Syncing → Scheduled; removing the schedule returns it to
// Unscheduled.
const (
	SyncStateUnscheduled SyncState = "unscheduled"
	SyncStateScheduled   SyncState = "scheduled"
	SyncStateSyncing     SyncState = "syncing"
)

// SyncState reports the repository's current sync lifecycle state.
func (s *Service) SyncState(ctx context.Context, repoID string) (SyncState, error) {
	s.mu.Lock()
	syncing := s.syncing[repoID]
	s.mu.Unlock()
	if syncing {
		return SyncStateSyncing, nil
	}

	repository, err := s.getRepository(ctx, repoID)
	if err != nil {
		return "", err
	}
	if repository.SyncSchedule == "" {
		return SyncStateUnscheduled, nil
	}
	return SyncStateScheduled, nil
}

// registerSchedule installs or cancels the repository's timer entry based
// solely on its current schedule value. Caller holds the repository lock.
func (s *Service) registerSchedule(repository *model.Repository) error {
	if repository.SyncSchedule != "" {
		if err := s.scheduler.RegisterJob(repository.ID, repository.SyncSchedule); err != nil {
			return fmt.Errorf("failed to register sync schedule for %s: %w", repository.ID, err)
		}
		return nil
	}
	s.scheduler.CancelJob(repository.ID)
	return nil
}

// TriggerSync runs one synchronization pass for the repository: fetch the
// candidate package list from the feed, merge each package idempotently,
// and persist once. A fetch failure aborts before any mutation, so the
// stored package set is untouched on error.
func (s *Service) TriggerSync(ctx context.Context, repoID string) (err error) {
	s.mu.Lock()
	if s.syncing[repoID] {
		s.mu.Unlock()
		return fmt.Errorf("repository %s: %w", repoID, ErrSyncBusy)
	}
	s.syncing[repoID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.syncing, repoID)
		s.mu.Unlock()
	}()

	start := time.Now()
	defer func() {
		s.metrics.ObserveSync(time.Since(start), err == nil)
	}()

	unlock := s.locks.lock(repoID)
	defer unlock()

	repository, err := s.getRepository(ctx, repoID)
	if err != nil {
		return err
	}
	if repository.Feed == "" {
		return fmt.Errorf("repository %s: %w", repoID, ErrUnschedulable)
	}

	fetched, err := s.fetcher.Fetch(ctx, repository.Feed)
	if err != nil {
		return fmt.Errorf("%w for %s: %w", ErrSync, repoID, err)
	}

	added := 0
	for _, pkg := range fetched {
		if _, ok := repository.Packages[pkg.ID]; !ok {
			added++
		}
		associatePackage(repository, pkg)
		if catErr := s.catalog.Put(ctx, pkg); catErr != nil {
			return fmt.Errorf("%w for %s: %w", ErrSync, repoID, catErr)
		}
	}

	if err = s.putRepository(ctx, repository); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Repository synchronized",
		"repository", repoID,
		"fetched", len(fetched),
		"added", added,
		"duration", time.Since(start))
	return nil
}

// AllSchedules returns a mapping of repository id to sync schedule for
// every repository, scheduled or not.
func (s *Service) AllSchedules(ctx context.Context) (map[string]string, error) {
	repositories, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	schedules := make(map[string]string, len(repositories))
	for _, repository := range repositories {
		schedules[repository.ID] = repository.SyncSchedule
	}
	return schedules, nil
}
