package schedule_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caravelhq/caravel/internal/schedule"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{
			name: "empty schedule is unscheduled",
			spec: "",
		},
		{
			name: "nightly at two",
			spec: "0 2 * * *",
		},
		{
			name: "every five minutes",
			spec: "*/5 * * * *",
		},
		{
			name: "weekday mornings",
			spec: "30 6 * * 1-5",
		},
		{
			name:    "minute out of range",
			spec:    "99 2 * * *",
			wantErr: true,
		},
		{
			name:    "too few fields",
			spec:    "0 2 *",
			wantErr: true,
		},
		{
			name:    "not a cron expression",
			spec:    "every day at noon",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := schedule.Validate(tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, schedule.ErrInvalidSchedule)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCronSchedulerRegisterAndCancel(t *testing.T) {
	t.Parallel()

	s := schedule.NewCronScheduler(func(context.Context, string) error { return nil })
	defer s.Stop()

	require.NoError(t, s.RegisterJob("repo-a", "0 2 * * *"))
	require.NoError(t, s.RegisterJob("repo-b", "*/10 * * * *"))
	assert.ElementsMatch(t, []string{"repo-a", "repo-b"}, s.Jobs())

	// Re-registration replaces the existing entry instead of stacking.
	require.NoError(t, s.RegisterJob("repo-a", "0 3 * * *"))
	assert.ElementsMatch(t, []string{"repo-a", "repo-b"}, s.Jobs())

	s.CancelJob("repo-a")
	assert.ElementsMatch(t, []string{"repo-b"}, s.Jobs())

	// Cancelling an unknown repository is a no-op.
	s.CancelJob("repo-never-registered")
	assert.ElementsMatch(t, []string{"repo-b"}, s.Jobs())
}

func TestCronSchedulerRejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	s := schedule.NewCronScheduler(func(context.Context, string) error { return nil })
	defer s.Stop()

	err := s.RegisterJob("repo-a", "not a schedule")
	require.Error(t, err)
	assert.Empty(t, s.Jobs())
}

func TestNoopScheduler(t *testing.T) {
	t.Parallel()

	var s schedule.NoopScheduler
	assert.NoError(t, s.RegisterJob("repo-a", "0 2 * * *"))
	s.CancelJob("repo-a")
}
