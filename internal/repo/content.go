package repo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/google/uuid"

	"github.com/caravelhq/caravel/internal/model"
)

// AddPackage associates a catalog package with the repository. The package
// id must resolve in the global catalog. Adding a package that is already
// associated is a no-op, which makes client retries safe.
func (s *Service) AddPackage(ctx context.Context, repoID, packageID string) error {
	pkg, err := s.catalog.Get(ctx, packageID)
	if err != nil {
		return err
	}
	return s.mutate(ctx, repoID, func(repository *model.Repository) error {
		associatePackage(repository, pkg)
		return nil
	})
}

// associatePackage inserts the package into the repository's package map,
// keyed by package id. Already-present ids are left untouched.
func associatePackage(repository *model.Repository, pkg model.Package) {
	if _, ok := repository.Packages[pkg.ID]; ok {
		return
	}
	repository.Packages[pkg.ID] = pkg
}

// RemovePackage disassociates a package from the repository. Unlike group
// membership, removal is strict: removing an id that was never associated
// likely signals a caller bug, so it fails with not found.
func (s *Service) RemovePackage(ctx context.Context, repoID, packageID string) error {
	return s.mutate(ctx, repoID, func(repository *model.Repository) error {
		if _, ok := repository.Packages[packageID]; !ok {
			return fmt.Errorf("no package with id %s in repository %s: %w",
				packageID, repoID, errdefs.ErrNotFound)
		}
		delete(repository.Packages, packageID)
		return nil
	})
}

// Packages returns the packages associated with the repository, optionally
// filtered to names containing the given substring.
func (s *Service) Packages(ctx context.Context, repoID, nameFilter string) ([]model.Package, error) {
	repository, err := s.getRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}

	packages := make([]model.Package, 0, len(repository.Packages))
	for _, pkg := range repository.Packages {
		if nameFilter != "" && !strings.Contains(pkg.Name, nameFilter) {
			continue
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

// GetPackageByName returns the first associated package with the given name.
func (s *Service) GetPackageByName(ctx context.Context, repoID, name string) (*model.Package, error) {
	repository, err := s.getRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}
	for _, pkg := range repository.Packages {
		if pkg.Name == name {
			return &pkg, nil
		}
	}
	return nil, fmt.Errorf("no package named %s in repository %s: %w", name, repoID, errdefs.ErrNotFound)
}

// Upload associates an uploaded package with the repository and records it
// in the global catalog. Binary storage of the package payload is handled
// upstream of this call. An empty package id gets a generated one.
func (s *Service) Upload(ctx context.Context, repoID string, pkg model.Package) (*model.Package, error) {
	if pkg.Name == "" {
		return nil, fmt.Errorf("package name is required: %w", errdefs.ErrInvalidArgument)
	}
	if pkg.ID == "" {
		pkg.ID = uuid.NewString()
	}

	if err := s.catalog.Put(ctx, pkg); err != nil {
		return nil, err
	}
	err := s.mutate(ctx, repoID, func(repository *model.Repository) error {
		associatePackage(repository, pkg)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Package uploaded", "repository", repoID, "package", pkg.ID, "name", pkg.Name)
	return &pkg, nil
}

// AddPackageToGroup adds a package name to one of the group's membership
// lists. The insert is idempotent; the conditional kind is rejected.
func (s *Service) AddPackageToGroup(
	ctx context.Context, repoID, groupID, packageName string, kind model.MembershipKind,
) error {
	return s.mutate(ctx, repoID, func(repository *model.Repository) error {
		group, err := groupForUpdate(repository, groupID, kind)
		if err != nil {
			return err
		}
		switch kind {
		case model.KindMandatory:
			group.MandatoryPackageNames = insertName(group.MandatoryPackageNames, packageName)
		case model.KindOptional:
			group.OptionalPackageNames = insertName(group.OptionalPackageNames, packageName)
		default:
			group.DefaultPackageNames = insertName(group.DefaultPackageNames, packageName)
		}
		repository.PackageGroups[groupID] = *group
		return nil
	})
}

// RemovePackageFromGroup removes a package name from one of the group's
// membership lists. Removing an absent name is a no-op.
func (s *Service) RemovePackageFromGroup(
	ctx context.Context, repoID, groupID, packageName string, kind model.MembershipKind,
) error {
	return s.mutate(ctx, repoID, func(repository *model.Repository) error {
		group, err := groupForUpdate(repository, groupID, kind)
		if err != nil {
			return err
		}
		switch kind {
		case model.KindMandatory:
			group.MandatoryPackageNames = removeName(group.MandatoryPackageNames, packageName)
		case model.KindOptional:
			group.OptionalPackageNames = removeName(group.OptionalPackageNames, packageName)
		default:
			group.DefaultPackageNames = removeName(group.DefaultPackageNames, packageName)
		}
		repository.PackageGroups[groupID] = *group
		return nil
	})
}

func groupForUpdate(
	repository *model.Repository, groupID string, kind model.MembershipKind,
) (*model.PackageGroup, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown membership kind %q: %w", kind, errdefs.ErrInvalidArgument)
	}
	group, ok := repository.PackageGroups[groupID]
	if !ok {
		return nil, fmt.Errorf("no package group with id %s in repository %s: %w",
			groupID, repository.ID, errdefs.ErrNotFound)
	}
	if kind == model.KindConditional {
		return nil, ErrConditionalUnsupported
	}
	return &group, nil
}

func insertName(names []string, name string) []string {
	for _, existing := range names {
		if existing == name {
			return names
		}
	}
	return append(names, name)
}

func removeName(names []string, name string) []string {
	for i, existing := range names {
		if existing == name {
			return append(names[:i], names[i+1:]...)
		}
	}
	return names
}

// UpsertGroup replaces or inserts a package group by id.
func (s *Service) UpsertGroup(ctx context.Context, repoID string, group model.PackageGroup) error {
	return s.UpsertGroups(ctx, repoID, []model.PackageGroup{group})
}

// UpsertGroups replaces or inserts each package group by id. Duplicate ids
// within the batch resolve last-write-wins.
func (s *Service) UpsertGroups(ctx context.Context, repoID string, groups []model.PackageGroup) error {
	return s.mutate(ctx, repoID, func(repository *model.Repository) error {
		for _, group := range groups {
			if group.ID == "" {
				return fmt.Errorf("package group id is required: %w", errdefs.ErrInvalidArgument)
			}
			repository.PackageGroups[group.ID] = group
		}
		return nil
	})
}

// RemoveGroup removes a package group. Removing an absent group is a no-op.
func (s *Service) RemoveGroup(ctx context.Context, repoID, groupID string) error {
	return s.mutate(ctx, repoID, func(repository *model.Repository) error {
		delete(repository.PackageGroups, groupID)
		return nil
	})
}

// PackageGroups returns all package groups in the repository.
func (s *Service) PackageGroups(ctx context.Context, repoID string) (map[string]model.PackageGroup, error) {
	repository, err := s.getRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}
	return repository.PackageGroups, nil
}

// PackageGroup returns a single package group by id.
func (s *Service) PackageGroup(ctx context.Context, repoID, groupID string) (*model.PackageGroup, error) {
	repository, err := s.getRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}
	group, ok := repository.PackageGroups[groupID]
	if !ok {
		return nil, fmt.Errorf("no package group with id %s in repository %s: %w",
			groupID, repoID, errdefs.ErrNotFound)
	}
	return &group, nil
}

// UpsertCategory replaces or inserts a package group category by id.
func (s *Service) UpsertCategory(ctx context.Context, repoID string, category model.PackageGroupCategory) error {
	return s.UpsertCategories(ctx, repoID, []model.PackageGroupCategory{category})
}

// UpsertCategories replaces or inserts each category by id, last-write-wins
// on duplicate ids within the batch.
func (s *Service) UpsertCategories(
	ctx context.Context, repoID string, categories []model.PackageGroupCategory,
) error {
	return s.mutate(ctx, repoID, func(repository *model.Repository) error {
		for _, category := range categories {
			if category.ID == "" {
				return fmt.Errorf("category id is required: %w", errdefs.ErrInvalidArgument)
			}
			repository.PackageGroupCategories[category.ID] = category
		}
		return nil
	})
}

// RemoveCategory removes a category. Removing an absent category is a no-op.
func (s *Service) RemoveCategory(ctx context.Context, repoID, categoryID string) error {
	return s.mutate(ctx, repoID, func(repository *model.Repository) error {
		delete(repository.PackageGroupCategories, categoryID)
		return nil
	})
}

// PackageGroupCategories returns all categories in the repository.
func (s *Service) PackageGroupCategories(
	ctx context.Context, repoID string,
) (map[string]model.PackageGroupCategory, error) {
	repository, err := s.getRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}
	return repository.PackageGroupCategories, nil
}

// PackageGroupCategory returns a single category by id.
func (s *Service) PackageGroupCategory(
	ctx context.Context, repoID, categoryID string,
) (*model.PackageGroupCategory, error) {
	repository, err := s.getRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}
	category, ok := repository.PackageGroupCategories[categoryID]
	if !ok {
		return nil, fmt.Errorf("no category with id %s in repository %s: %w",
			categoryID, repoID, errdefs.ErrNotFound)
	}
	return &category, nil
}
