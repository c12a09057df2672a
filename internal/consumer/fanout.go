package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/caravelhq/caravel/internal/agent"
	"github.com/caravelhq/caravel/internal/model"
	"github.com/caravelhq/caravel/internal/telemetry"
)

const (
	defaultWorkerLimit     = 8
	defaultDispatchTimeout = 30 * time.Second

	commandInstallPackages = "install-packages"
	commandInstallErrata   = "install-errata"
)

// DispatchResult reports the outcome of one fan-out operation. Dispatched
// maps each consumer id in the membership snapshot to the package names
// sent to its agent; Errors holds the per-consumer failures. A consumer id
// appears in exactly one of the two maps.
type DispatchResult struct {
	Dispatched map[string][]string
	Errors     map[string]error
}

// Failed reports whether any member dispatch failed.
func (r *DispatchResult) Failed() bool {
	return len(r.Errors) > 0
}

// Fanout broadcasts install commands from a consumer group to every
// member's agent. Dispatches run in parallel under a worker limit, each
// bounded by its own timeout, so one unreachable consumer never stalls the
// rest. The membership snapshot is taken once at resolution time.
type Fanout struct {
	registry  *Registry
	directory Directory
	gateway   agent.Gateway
	metrics   *telemetry.Metrics

	workerLimit     int
	dispatchTimeout time.Duration
}

// FanoutOption configures a Fanout.
type FanoutOption func(*Fanout)

// WithWorkerLimit bounds the number of concurrent per-consumer dispatches.
func WithWorkerLimit(limit int) FanoutOption {
	return func(f *Fanout) {
		if limit > 0 {
			f.workerLimit = limit
		}
	}
}

// WithDispatchTimeout bounds each per-consumer dispatch.
func WithDispatchTimeout(timeout time.Duration) FanoutOption {
	return func(f *Fanout) {
		if timeout > 0 {
			f.dispatchTimeout = timeout
		}
	}
}

// NewFanout creates a Fanout for the given group registry, directory, and
// agent gateway.
func NewFanout(
	registry *Registry,
	directory Directory,
	gateway agent.Gateway,
	metrics *telemetry.Metrics,
	opts ...FanoutOption,
) *Fanout {
	f := &Fanout{
		registry:        registry,
		directory:       directory,
		gateway:         gateway,
		metrics:         metrics,
		workerLimit:     defaultWorkerLimit,
		dispatchTimeout: defaultDispatchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// InstallPackages dispatches an install command for the given package names
// to every member of the group. Per-consumer failures are collected in the
// result rather than aborting the remaining dispatches.
func (f *Fanout) InstallPackages(
	ctx context.Context, groupID string, packageNames []string,
) (*DispatchResult, error) {
	return f.broadcast(ctx, groupID, commandInstallPackages,
		func(context.Context, string) ([]string, error) {
			return packageNames, nil
		})
}

// InstallErrata resolves, per consumer, the packages applicable under the
// given errata ids (or all applicable updates under the type filter when no
// ids are given), excludes source-architecture entries, and dispatches the
// resolved names to the consumer's agent. The result maps each consumer to
// the names actually dispatched.
func (f *Fanout) InstallErrata(
	ctx context.Context, groupID string, errataIDs, typeFilter []string,
) (*DispatchResult, error) {
	return f.broadcast(ctx, groupID, commandInstallErrata,
		func(ctx context.Context, consumerID string) ([]string, error) {
			return f.resolveErrataPackageNames(ctx, consumerID, errataIDs, typeFilter)
		})
}

// broadcast resolves the group membership snapshot and dispatches to each
// member in parallel. resolve computes the per-consumer package name list.
func (f *Fanout) broadcast(
	ctx context.Context, groupID, command string,
	resolve func(ctx context.Context, consumerID string) ([]string, error),
) (*DispatchResult, error) {
	group, err := f.registry.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}

	result := &DispatchResult{
		Dispatched: make(map[string][]string, len(group.ConsumerIDs)),
		Errors:     make(map[string]error),
	}
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(f.workerLimit)

	for _, consumerID := range group.ConsumerIDs {
		consumerID := consumerID
		eg.Go(func() error {
			names, err := f.dispatchOne(egCtx, consumerID, command, resolve)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors[consumerID] = err
			} else {
				result.Dispatched[consumerID] = names
			}
			// Per-consumer failures are reported in the result, never as a
			// group error: one bad member must not cancel its siblings.
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if result.Failed() {
		slog.WarnContext(ctx, "Fan-out completed with failures",
			"group", groupID, "command", command,
			"dispatched", len(result.Dispatched), "failed", len(result.Errors))
	}
	return result, nil
}

func (f *Fanout) dispatchOne(
	ctx context.Context, consumerID, command string,
	resolve func(ctx context.Context, consumerID string) ([]string, error),
) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.dispatchTimeout)
	defer cancel()

	names, err := resolve(ctx, consumerID)
	if err != nil {
		f.metrics.CountDispatch(command, false)
		return nil, err
	}
	if names == nil {
		names = []string{}
	}

	if err := f.gateway.InstallPackages(ctx, consumerID, names); err != nil {
		f.metrics.CountDispatch(command, false)
		return nil, fmt.Errorf("dispatch to consumer %s failed: %w", consumerID, err)
	}
	f.metrics.CountDispatch(command, true)
	return names, nil
}

// resolveErrataPackageNames computes the package names to dispatch to one
// consumer, excluding source-architecture packages.
func (f *Fanout) resolveErrataPackageNames(
	ctx context.Context, consumerID string, errataIDs, typeFilter []string,
) ([]string, error) {
	var candidates []model.Package

	if len(errataIDs) > 0 {
		applicable, err := f.directory.ApplicableErrata(ctx, consumerID, typeFilter)
		if err != nil {
			return nil, err
		}
		for _, errataID := range errataIDs {
			candidates = append(candidates, applicable[errataID]...)
		}
	} else {
		updates, err := f.directory.PackageUpdates(ctx, consumerID, typeFilter)
		if err != nil {
			return nil, err
		}
		candidates = updates
	}

	names := make([]string, 0, len(candidates))
	for _, pkg := range candidates {
		if pkg.Arch == model.SourceArch {
			continue
		}
		names = append(names, pkg.Name)
	}
	return names, nil
}
