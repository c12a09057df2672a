// Package model defines the core records managed by the platform: repositories
// with their associated content, consumers, and consumer groups. Records
// round-trip through the record store as JSON, so every field carries a JSON tag.
package model

// MembershipKind classifies how a package name belongs to a package group.
type MembershipKind string

// Membership kinds recognized for package groups.
const (
	KindMandatory   MembershipKind = "mandatory"
	KindDefault     MembershipKind = "default"
	KindOptional    MembershipKind = "optional"
	KindConditional MembershipKind = "conditional"
)

// Valid reports whether k is one of the recognized membership kinds.
// Note that conditional is recognized but not supported for mutation.
func (k MembershipKind) Valid() bool {
	switch k {
	case KindMandatory, KindDefault, KindOptional, KindConditional:
		return true
	}
	return false
}

// Package describes a single installable package.
type Package struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Release string `json:"release,omitempty"`
	Arch    string `json:"arch,omitempty"`
}

// SourceArch is the architecture label for source packages. Source packages
// are never dispatched to agents.
const SourceArch = "src"

// PackageGroup is a named bundle of package names split by membership kind.
// Each list is ordered but duplicate-free.
type PackageGroup struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name,omitempty"`
	Description           string   `json:"description,omitempty"`
	MandatoryPackageNames []string `json:"mandatoryPackageNames"`
	DefaultPackageNames   []string `json:"defaultPackageNames"`
	OptionalPackageNames  []string `json:"optionalPackageNames"`
}

// PackageGroupCategory is a named category of package groups.
type PackageGroupCategory struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	GroupIDs    []string `json:"groupIds,omitempty"`
}

// Repository is a named collection of installable content with an optional
// upstream feed and sync schedule. The three content maps are keyed by the
// id of the stored value; only the repository service mutates them.
type Repository struct {
	ID                     string                          `json:"id"`
	Name                   string                          `json:"name"`
	Architecture           string                          `json:"architecture,omitempty"`
	Feed                   string                          `json:"feed,omitempty"`
	UseSymlinks            bool                            `json:"useSymlinks,omitempty"`
	SyncSchedule           string                          `json:"syncSchedule,omitempty"`
	Packages               map[string]Package              `json:"packages"`
	PackageGroups          map[string]PackageGroup         `json:"packageGroups"`
	PackageGroupCategories map[string]PackageGroupCategory `json:"packageGroupCategories"`
}

// NewRepository returns a Repository with all content maps initialized.
func NewRepository(id, name, arch, feed string) *Repository {
	return &Repository{
		ID:                     id,
		Name:                   name,
		Architecture:           arch,
		Feed:                   feed,
		Packages:               make(map[string]Package),
		PackageGroups:          make(map[string]PackageGroup),
		PackageGroupCategories: make(map[string]PackageGroupCategory),
	}
}

// EnsureMaps initializes any nil content map. Records loaded from storage
// that were persisted with empty maps decode with non-nil maps, but guard
// against hand-built records anyway.
func (r *Repository) EnsureMaps() {
	if r.Packages == nil {
		r.Packages = make(map[string]Package)
	}
	if r.PackageGroups == nil {
		r.PackageGroups = make(map[string]PackageGroup)
	}
	if r.PackageGroupCategories == nil {
		r.PackageGroupCategories = make(map[string]PackageGroupCategory)
	}
}

// Consumer is a managed remote host capable of receiving install commands.
// InstalledPackageNames mirrors the package profile last reported by the
// host's agent; BoundRepoIDs lists the repositories the consumer is
// subscribed to.
type Consumer struct {
	ID                    string   `json:"id"`
	Description           string   `json:"description,omitempty"`
	InstalledPackageNames []string `json:"installedPackageNames,omitempty"`
	BoundRepoIDs          []string `json:"boundRepoIds,omitempty"`
}

// ConsumerGroup is a named set of consumer ids addressable as a unit.
// ConsumerIDs has set semantics: duplicates forbidden, order not meaningful.
type ConsumerGroup struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	ConsumerIDs []string `json:"consumerIds"`
}

// HasConsumer reports whether id is a member of the group.
func (g *ConsumerGroup) HasConsumer(id string) bool {
	for _, cid := range g.ConsumerIDs {
		if cid == id {
			return true
		}
	}
	return false
}

// Errata is an update advisory referencing packages applicable to a
// consumer's installed set.
type Errata struct {
	ID          string   `json:"id"`
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	PackageIDs  []string `json:"packageIds,omitempty"`
}
