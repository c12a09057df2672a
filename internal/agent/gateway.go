// Package agent defines the gateway contract for dispatching install
// commands to the remote agent running on a consumer host.
package agent

import (
	"context"
	"errors"
	"log/slog"
)

var (
	// ErrUnreachable is returned when the consumer's agent cannot be contacted.
	ErrUnreachable = errors.New("agent unreachable")
	// ErrRejected is returned when the agent refused the dispatched command.
	ErrRejected = errors.New("agent rejected command")
)

//go:generate mockgen -destination=mocks/mock_gateway.go -package=mocks -source=gateway.go Gateway

// Gateway dispatches commands to a single consumer's remote agent. Calls may
// block on remote I/O; callers bound each dispatch with a context deadline.
type Gateway interface {
	// InstallPackages instructs the agent to install the named packages.
	InstallPackages(ctx context.Context, consumerID string, packageNames []string) error
}

// LogGateway records dispatches without a remote transport. Deployments
// plug in a transport-specific Gateway; this one keeps the dispatch path
// exercised when none is configured.
type LogGateway struct{}

var _ Gateway = (*LogGateway)(nil)

// NewLogGateway creates a LogGateway.
func NewLogGateway() *LogGateway { return &LogGateway{} }

// InstallPackages implements Gateway.
func (*LogGateway) InstallPackages(ctx context.Context, consumerID string, packageNames []string) error {
	slog.InfoContext(ctx, "Dispatching install command",
		"consumer", consumerID, "packages", len(packageNames))
	return nil
}
