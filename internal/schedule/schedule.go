// Package schedule validates repository sync schedules and defines the
// scheduler contract that installs and cancels per-repository timer entries.
package schedule

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// ErrInvalidSchedule is returned when a sync schedule is not a valid
// 5-field cron expression.
var ErrInvalidSchedule = errors.New("invalid sync schedule")

// Validate checks a sync schedule string. An empty schedule is always valid
// and means "unscheduled"; anything else must parse as a standard 5-field
// cron expression.
func Validate(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("%w [%s]: %v", ErrInvalidSchedule, spec, err)
	}
	return nil
}

//go:generate mockgen -destination=mocks/mock_scheduler.go -package=mocks -source=schedule.go Scheduler

// Scheduler installs and cancels timer entries keyed by repository id.
// RegisterJob replaces any existing entry for the repository, so repeated
// registration with the current schedule is idempotent. Actual timer firing
// is the scheduler implementation's concern; the repository service only
// ever registers and cancels.
type Scheduler interface {
	RegisterJob(repoID, cronSpec string) error
	CancelJob(repoID string)
}

// NoopScheduler is a Scheduler that records nothing and fires nothing.
// Useful where schedule registration is irrelevant, such as one-shot
// administrative commands.
type NoopScheduler struct{}

// RegisterJob implements Scheduler.
func (NoopScheduler) RegisterJob(string, string) error { return nil }

// CancelJob implements Scheduler.
func (NoopScheduler) CancelJob(string) {}
