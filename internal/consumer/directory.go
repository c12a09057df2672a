// Package consumer manages consumers, consumer groups, and the fan-out of
// bind and install commands from a group to each member's remote agent.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/containerd/errdefs"

	"github.com/caravelhq/caravel/internal/model"
	"github.com/caravelhq/caravel/internal/repo"
	"github.com/caravelhq/caravel/internal/store"
)

//go:generate mockgen -destination=mocks/mock_directory.go -package=mocks -source=directory.go Directory

// Directory resolves consumers and answers per-consumer questions: whether
// an id exists, repository bind state, and which errata or package updates
// apply to the consumer's installed package set.
type Directory interface {
	Exists(ctx context.Context, consumerID string) (bool, error)
	BindRepo(ctx context.Context, consumerID, repoID string) error
	UnbindRepo(ctx context.Context, consumerID, repoID string) error

	// ApplicableErrata returns, per errata id, the packages the erratum
	// would update on this consumer, restricted to the given errata types
	// (empty filter means all types).
	ApplicableErrata(ctx context.Context, consumerID string, typeFilter []string) (map[string][]model.Package, error)

	// PackageUpdates returns every package update applicable to the
	// consumer under the type filter.
	PackageUpdates(ctx context.Context, consumerID string, typeFilter []string) ([]model.Package, error)
}

// StoreDirectory is the record-store backed Directory. It also owns the
// consumer lifecycle and the errata catalog that applicability resolution
// reads from.
type StoreDirectory struct {
	store   store.Store
	catalog *repo.Catalog
}

var _ Directory = (*StoreDirectory)(nil)

// NewStoreDirectory creates a StoreDirectory using the given store and
// package catalog.
func NewStoreDirectory(recordStore store.Store, catalog *repo.Catalog) *StoreDirectory {
	return &StoreDirectory{store: recordStore, catalog: catalog}
}

// Register creates a consumer record. The id must be unused.
func (d *StoreDirectory) Register(ctx context.Context, consumer model.Consumer) (*model.Consumer, error) {
	if consumer.ID == "" {
		return nil, fmt.Errorf("consumer id is required: %w", errdefs.ErrInvalidArgument)
	}
	if _, err := d.getConsumer(ctx, consumer.ID); err == nil {
		return nil, fmt.Errorf("consumer %s: %w", consumer.ID, errdefs.ErrAlreadyExists)
	} else if !errdefs.IsNotFound(err) {
		return nil, err
	}
	if err := d.putConsumer(ctx, &consumer); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Consumer registered", "consumer", consumer.ID)
	return &consumer, nil
}

// Unregister deletes a consumer record. Group memberships referencing the
// consumer are not cascaded; they dangle until explicitly removed.
func (d *StoreDirectory) Unregister(ctx context.Context, consumerID string) error {
	if err := d.store.Delete(ctx, store.CollectionConsumers, consumerID); err != nil {
		if errdefs.IsNotFound(err) {
			return fmt.Errorf("no consumer with id %s: %w", consumerID, errdefs.ErrNotFound)
		}
		return fmt.Errorf("failed to delete consumer %s: %w", consumerID, err)
	}
	return nil
}

// Get returns a consumer by id.
func (d *StoreDirectory) Get(ctx context.Context, consumerID string) (*model.Consumer, error) {
	return d.getConsumer(ctx, consumerID)
}

// List returns all consumers.
func (d *StoreDirectory) List(ctx context.Context) ([]*model.Consumer, error) {
	records, err := d.store.List(ctx, store.CollectionConsumers)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumers: %w", err)
	}

	consumers := make([]*model.Consumer, 0, len(records))
	for _, record := range records {
		var consumer model.Consumer
		if err := json.Unmarshal(record, &consumer); err != nil {
			return nil, fmt.Errorf("failed to decode consumer record: %w", err)
		}
		consumers = append(consumers, &consumer)
	}
	return consumers, nil
}

// Exists implements Directory.
func (d *StoreDirectory) Exists(ctx context.Context, consumerID string) (bool, error) {
	_, err := d.getConsumer(ctx, consumerID)
	if errdefs.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// BindRepo implements Directory. Binding an already-bound repository is a
// no-op.
func (d *StoreDirectory) BindRepo(ctx context.Context, consumerID, repoID string) error {
	consumer, err := d.getConsumer(ctx, consumerID)
	if err != nil {
		return err
	}
	if slices.Contains(consumer.BoundRepoIDs, repoID) {
		return nil
	}
	consumer.BoundRepoIDs = append(consumer.BoundRepoIDs, repoID)
	return d.putConsumer(ctx, consumer)
}

// UnbindRepo implements Directory. Unbinding an unbound repository is a
// no-op.
func (d *StoreDirectory) UnbindRepo(ctx context.Context, consumerID, repoID string) error {
	consumer, err := d.getConsumer(ctx, consumerID)
	if err != nil {
		return err
	}
	idx := slices.Index(consumer.BoundRepoIDs, repoID)
	if idx < 0 {
		return nil
	}
	consumer.BoundRepoIDs = slices.Delete(consumer.BoundRepoIDs, idx, idx+1)
	return d.putConsumer(ctx, consumer)
}

// UpdateProfile replaces the consumer's reported installed package set.
func (d *StoreDirectory) UpdateProfile(ctx context.Context, consumerID string, installed []string) error {
	consumer, err := d.getConsumer(ctx, consumerID)
	if err != nil {
		return err
	}
	consumer.InstalledPackageNames = installed
	return d.putConsumer(ctx, consumer)
}

// ApplicableErrata implements Directory. An erratum applies when at least
// one of its packages is present in the consumer's installed set; the
// returned package lists are unfiltered by architecture, callers decide
// what to dispatch.
func (d *StoreDirectory) ApplicableErrata(
	ctx context.Context, consumerID string, typeFilter []string,
) (map[string][]model.Package, error) {
	consumer, err := d.getConsumer(ctx, consumerID)
	if err != nil {
		return nil, err
	}

	errata, err := d.listErrata(ctx, typeFilter)
	if err != nil {
		return nil, err
	}

	installed := make(map[string]bool, len(consumer.InstalledPackageNames))
	for _, name := range consumer.InstalledPackageNames {
		installed[name] = true
	}

	applicable := make(map[string][]model.Package)
	for _, erratum := range errata {
		packages, err := d.resolveErrataPackages(ctx, erratum)
		if err != nil {
			return nil, err
		}
		applies := false
		for _, pkg := range packages {
			if installed[pkg.Name] {
				applies = true
				break
			}
		}
		if applies {
			applicable[erratum.ID] = packages
		}
	}
	return applicable, nil
}

// PackageUpdates implements Directory.
func (d *StoreDirectory) PackageUpdates(
	ctx context.Context, consumerID string, typeFilter []string,
) ([]model.Package, error) {
	applicable, err := d.ApplicableErrata(ctx, consumerID, typeFilter)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var updates []model.Package
	for _, packages := range applicable {
		for _, pkg := range packages {
			if seen[pkg.ID] {
				continue
			}
			seen[pkg.ID] = true
			updates = append(updates, pkg)
		}
	}
	return updates, nil
}

// PutErrata upserts an erratum into the errata catalog.
func (d *StoreDirectory) PutErrata(ctx context.Context, erratum model.Errata) error {
	if erratum.ID == "" {
		return fmt.Errorf("errata id is required: %w", errdefs.ErrInvalidArgument)
	}
	record, err := json.Marshal(erratum)
	if err != nil {
		return fmt.Errorf("failed to encode errata %s: %w", erratum.ID, err)
	}
	if err := d.store.Put(ctx, store.CollectionErrata, erratum.ID, record); err != nil {
		return fmt.Errorf("failed to persist errata %s: %w", erratum.ID, err)
	}
	return nil
}

func (d *StoreDirectory) listErrata(ctx context.Context, typeFilter []string) ([]model.Errata, error) {
	records, err := d.store.List(ctx, store.CollectionErrata)
	if err != nil {
		return nil, fmt.Errorf("failed to list errata: %w", err)
	}

	var errata []model.Errata
	for _, record := range records {
		var erratum model.Errata
		if err := json.Unmarshal(record, &erratum); err != nil {
			return nil, fmt.Errorf("failed to decode errata record: %w", err)
		}
		if len(typeFilter) > 0 && !slices.Contains(typeFilter, erratum.Type) {
			continue
		}
		errata = append(errata, erratum)
	}
	return errata, nil
}

func (d *StoreDirectory) resolveErrataPackages(ctx context.Context, erratum model.Errata) ([]model.Package, error) {
	packages := make([]model.Package, 0, len(erratum.PackageIDs))
	for _, packageID := range erratum.PackageIDs {
		pkg, err := d.catalog.Get(ctx, packageID)
		if errdefs.IsNotFound(err) {
			// An erratum may reference packages this platform never
			// ingested; skip rather than fail applicability.
			continue
		}
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

func (d *StoreDirectory) getConsumer(ctx context.Context, consumerID string) (*model.Consumer, error) {
	record, err := d.store.Get(ctx, store.CollectionConsumers, consumerID)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, fmt.Errorf("no consumer with id %s: %w", consumerID, errdefs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load consumer %s: %w", consumerID, err)
	}

	var consumer model.Consumer
	if err := json.Unmarshal(record, &consumer); err != nil {
		return nil, fmt.Errorf("failed to decode consumer %s: %w", consumerID, err)
	}
	return &consumer, nil
}

func (d *StoreDirectory) putConsumer(ctx context.Context, consumer *model.Consumer) error {
	record, err := json.Marshal(consumer)
	if err != nil {
		return fmt.Errorf("failed to encode consumer %s: %w", consumer.ID, err)
	}
	if err := d.store.Put(ctx, store.CollectionConsumers, consumer.ID, record); err != nil {
		return fmt.Errorf("failed to persist consumer %s: %w", consumer.ID, err)
	}
	return nil
}
