package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/caravelhq/caravel/internal/model"
)

func TestMembershipKindValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind model.MembershipKind
		want bool
	}{
		{model.KindMandatory, true},
		{model.KindDefault, true},
		{model.KindOptional, true},
		{model.KindConditional, true},
		{model.MembershipKind(""), false},
		{model.MembershipKind("recommended"), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.kind.Valid())
		})
	}
}

func TestNewRepositoryInitializesMaps(t *testing.T) {
	t.Parallel()

	repository := model.NewRepository("r1", "fedora", "x86_64", "https://mirror.example.com/feed.json")
	assert.NotNil(t, repository.Packages)
	assert.NotNil(t, repository.PackageGroups)
	assert.NotNil(t, repository.PackageGroupCategories)
}

func TestEnsureMaps(t *testing.T) {
	t.Parallel()

	repository := &model.Repository{ID: "r1"}
	repository.EnsureMaps()
	assert.NotNil(t, repository.Packages)
	assert.NotNil(t, repository.PackageGroups)
	assert.NotNil(t, repository.PackageGroupCategories)
}

func TestConsumerGroupHasConsumer(t *testing.T) {
	t.Parallel()

	group := &model.ConsumerGroup{ID: "g1", ConsumerIDs: []string{"c1", "c2"}}
	assert.True(t, group.HasConsumer("c1"))
	assert.False(t, group.HasConsumer("c3"))
}
