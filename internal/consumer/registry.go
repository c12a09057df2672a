package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/containerd/errdefs"

	"github.com/caravelhq/caravel/internal/model"
	"github.com/caravelhq/caravel/internal/store"
)

// RepositoryResolver resolves repository ids. Satisfied by the repository
// service; bind and unbind refuse unknown repositories up front.
type RepositoryResolver interface {
	Get(ctx context.Context, repoID string) (*model.Repository, error)
}

// Registry owns consumer group membership and repository bind state per
// group. ConsumerIDs mutation funnels through it exclusively.
type Registry struct {
	store        store.Store
	directory    Directory
	repositories RepositoryResolver
}

// NewRegistry creates a consumer group Registry.
func NewRegistry(recordStore store.Store, directory Directory, repositories RepositoryResolver) *Registry {
	return &Registry{
		store:        recordStore,
		directory:    directory,
		repositories: repositories,
	}
}

// Create creates a consumer group. Every given consumer id must resolve in
// the directory at creation time; the first unresolved id fails the call.
// This is an eager one-time check, not an ongoing constraint.
func (r *Registry) Create(
	ctx context.Context, id, description string, consumerIDs []string,
) (*model.ConsumerGroup, error) {
	if id == "" {
		return nil, fmt.Errorf("consumer group id is required: %w", errdefs.ErrInvalidArgument)
	}
	if _, err := r.getGroup(ctx, id); err == nil {
		return nil, fmt.Errorf("consumer group %s: %w", id, errdefs.ErrAlreadyExists)
	} else if !errdefs.IsNotFound(err) {
		return nil, err
	}

	members := make([]string, 0, len(consumerIDs))
	for _, consumerID := range consumerIDs {
		ok, err := r.directory.Exists(ctx, consumerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("no consumer with id %s: %w", consumerID, errdefs.ErrNotFound)
		}
		if !slices.Contains(members, consumerID) {
			members = append(members, consumerID)
		}
	}

	group := &model.ConsumerGroup{ID: id, Description: description, ConsumerIDs: members}
	if err := r.putGroup(ctx, group); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Consumer group created", "group", id, "members", len(members))
	return group, nil
}

// Get returns a consumer group by id.
func (r *Registry) Get(ctx context.Context, groupID string) (*model.ConsumerGroup, error) {
	return r.getGroup(ctx, groupID)
}

// List returns all consumer groups.
func (r *Registry) List(ctx context.Context) ([]*model.ConsumerGroup, error) {
	records, err := r.store.List(ctx, store.CollectionConsumerGroups)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumer groups: %w", err)
	}

	groups := make([]*model.ConsumerGroup, 0, len(records))
	for _, record := range records {
		var group model.ConsumerGroup
		if err := json.Unmarshal(record, &group); err != nil {
			return nil, fmt.Errorf("failed to decode consumer group record: %w", err)
		}
		groups = append(groups, &group)
	}
	return groups, nil
}

// Delete removes a consumer group.
func (r *Registry) Delete(ctx context.Context, groupID string) error {
	if err := r.store.Delete(ctx, store.CollectionConsumerGroups, groupID); err != nil {
		if errdefs.IsNotFound(err) {
			return fmt.Errorf("no consumer group with id %s: %w", groupID, errdefs.ErrNotFound)
		}
		return fmt.Errorf("failed to delete consumer group %s: %w", groupID, err)
	}
	return nil
}

// AddConsumer adds a consumer to the group. The consumer must resolve in
// the directory. Adding an existing member is a no-op.
func (r *Registry) AddConsumer(ctx context.Context, groupID, consumerID string) error {
	group, err := r.getGroup(ctx, groupID)
	if err != nil {
		return err
	}
	ok, err := r.directory.Exists(ctx, consumerID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no consumer with id %s: %w", consumerID, errdefs.ErrNotFound)
	}

	if group.HasConsumer(consumerID) {
		return nil
	}
	group.ConsumerIDs = append(group.ConsumerIDs, consumerID)
	return r.putGroup(ctx, group)
}

// RemoveConsumer removes a consumer from the group. Removing a non-member
// is a no-op.
func (r *Registry) RemoveConsumer(ctx context.Context, groupID, consumerID string) error {
	group, err := r.getGroup(ctx, groupID)
	if err != nil {
		return err
	}
	idx := slices.Index(group.ConsumerIDs, consumerID)
	if idx < 0 {
		return nil
	}
	group.ConsumerIDs = slices.Delete(group.ConsumerIDs, idx, idx+1)
	return r.putGroup(ctx, group)
}

// Bind subscribes every member of the group to the repository, one
// directory call per consumer, independently. The first failing member
// aborts the remainder.
func (r *Registry) Bind(ctx context.Context, groupID, repoID string) error {
	return r.eachMember(ctx, groupID, repoID, r.directory.BindRepo)
}

// Unbind unsubscribes every member of the group from the repository.
func (r *Registry) Unbind(ctx context.Context, groupID, repoID string) error {
	return r.eachMember(ctx, groupID, repoID, r.directory.UnbindRepo)
}

func (r *Registry) eachMember(
	ctx context.Context, groupID, repoID string,
	op func(ctx context.Context, consumerID, repoID string) error,
) error {
	group, err := r.getGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if _, err := r.repositories.Get(ctx, repoID); err != nil {
		return err
	}

	for _, consumerID := range group.ConsumerIDs {
		if err := op(ctx, consumerID, repoID); err != nil {
			return fmt.Errorf("consumer %s: %w", consumerID, err)
		}
	}
	return nil
}

func (r *Registry) getGroup(ctx context.Context, groupID string) (*model.ConsumerGroup, error) {
	record, err := r.store.Get(ctx, store.CollectionConsumerGroups, groupID)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, fmt.Errorf("no consumer group with id %s: %w", groupID, errdefs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load consumer group %s: %w", groupID, err)
	}

	var group model.ConsumerGroup
	if err := json.Unmarshal(record, &group); err != nil {
		return nil, fmt.Errorf("failed to decode consumer group %s: %w", groupID, err)
	}
	return &group, nil
}

func (r *Registry) putGroup(ctx context.Context, group *model.ConsumerGroup) error {
	record, err := json.Marshal(group)
	if err != nil {
		return fmt.Errorf("failed to encode consumer group %s: %w", group.ID, err)
	}
	if err := r.store.Put(ctx, store.CollectionConsumerGroups, group.ID, record); err != nil {
		return fmt.Errorf("failed to persist consumer group %s: %w", group.ID, err)
	}
	return nil
}
