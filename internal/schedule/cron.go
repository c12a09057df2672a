package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// SyncFunc is invoked by the cron runner when a repository's schedule fires.
type SyncFunc func(ctx context.Context, repoID string) error

// CronScheduler runs registered sync schedules on an in-process cron
// runner. Each repository holds at most one entry; re-registration swaps
// the entry atomically under the scheduler's lock.
type CronScheduler struct {
	mu      sync.Mutex
	runner  *cron.Cron
	entries map[string]cron.EntryID
	sync    SyncFunc
}

var _ Scheduler = (*CronScheduler)(nil)

// NewCronScheduler returns a started CronScheduler that calls syncFn each
// time a registered schedule fires.
func NewCronScheduler(syncFn SyncFunc) *CronScheduler {
	s := &CronScheduler{
		runner:  cron.New(),
		entries: make(map[string]cron.EntryID),
		sync:    syncFn,
	}
	s.runner.Start()
	return s
}

// RegisterJob implements Scheduler. Any existing entry for the repository
// is removed before the new one is installed.
func (s *CronScheduler) RegisterJob(repoID, cronSpec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[repoID]; ok {
		s.runner.Remove(existing)
		delete(s.entries, repoID)
	}

	entryID, err := s.runner.AddFunc(cronSpec, func() {
		if err := s.sync(context.Background(), repoID); err != nil {
			slog.Warn("Scheduled sync failed", "repository", repoID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register sync job for %s: %w", repoID, err)
	}
	s.entries[repoID] = entryID
	return nil
}

// CancelJob implements Scheduler. Cancelling an unknown repository is a no-op.
func (s *CronScheduler) CancelJob(repoID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[repoID]; ok {
		s.runner.Remove(entryID)
		delete(s.entries, repoID)
	}
}

// Jobs returns the repository ids with an installed timer entry.
func (s *CronScheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

// Stop halts the cron runner. Entries already running are allowed to finish.
func (s *CronScheduler) Stop() {
	s.runner.Stop()
}
