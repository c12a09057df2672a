package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/containerd/errdefs"

	"github.com/caravelhq/caravel/internal/model"
	"github.com/caravelhq/caravel/internal/store"
)

// Catalog is the global package catalog. Repository package association
// resolves package ids against it before admitting them.
type Catalog struct {
	store store.Store
}

// NewCatalog creates a Catalog backed by the given store.
func NewCatalog(recordStore store.Store) *Catalog {
	return &Catalog{store: recordStore}
}

// Get returns the catalog package with the given id.
func (c *Catalog) Get(ctx context.Context, packageID string) (model.Package, error) {
	record, err := c.store.Get(ctx, store.CollectionPackages, packageID)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return model.Package{}, fmt.Errorf("no package with id %s: %w", packageID, errdefs.ErrNotFound)
		}
		return model.Package{}, fmt.Errorf("failed to load package %s: %w", packageID, err)
	}

	var pkg model.Package
	if err := json.Unmarshal(record, &pkg); err != nil {
		return model.Package{}, fmt.Errorf("failed to decode package %s: %w", packageID, err)
	}
	return pkg, nil
}

// Put upserts a package into the catalog.
func (c *Catalog) Put(ctx context.Context, pkg model.Package) error {
	if pkg.ID == "" {
		return fmt.Errorf("package id is required: %w", errdefs.ErrInvalidArgument)
	}
	record, err := json.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("failed to encode package %s: %w", pkg.ID, err)
	}
	if err := c.store.Put(ctx, store.CollectionPackages, pkg.ID, record); err != nil {
		return fmt.Errorf("failed to persist package %s: %w", pkg.ID, err)
	}
	return nil
}

// List returns all catalog packages.
func (c *Catalog) List(ctx context.Context) ([]model.Package, error) {
	records, err := c.store.List(ctx, store.CollectionPackages)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	packages := make([]model.Package, 0, len(records))
	for _, record := range records {
		var pkg model.Package
		if err := json.Unmarshal(record, &pkg); err != nil {
			return nil, fmt.Errorf("failed to decode package record: %w", err)
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}
