package store_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caravelhq/caravel/internal/store"
)

func TestInMemoryPutGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewInMemory()

	record := json.RawMessage(`{"id":"r1","name":"fedora"}`)
	require.NoError(t, s.Put(ctx, store.CollectionRepositories, "r1", record))

	got, err := s.Get(ctx, store.CollectionRepositories, "r1")
	require.NoError(t, err)
	assert.JSONEq(t, string(record), string(got))
}

func TestInMemoryGetNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewInMemory()

	_, err := s.Get(ctx, store.CollectionRepositories, "missing")
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestInMemoryPutReplaces(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewInMemory()

	require.NoError(t, s.Put(ctx, store.CollectionConsumers, "c1", json.RawMessage(`{"id":"c1"}`)))
	require.NoError(t, s.Put(ctx, store.CollectionConsumers, "c1", json.RawMessage(`{"id":"c1","description":"updated"}`)))

	got, err := s.Get(ctx, store.CollectionConsumers, "c1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"c1","description":"updated"}`, string(got))
}

func TestInMemoryListSortedByKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewInMemory()

	require.NoError(t, s.Put(ctx, store.CollectionRepositories, "zeta", json.RawMessage(`{"id":"zeta"}`)))
	require.NoError(t, s.Put(ctx, store.CollectionRepositories, "alpha", json.RawMessage(`{"id":"alpha"}`)))

	records, err := s.List(ctx, store.CollectionRepositories)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.JSONEq(t, `{"id":"alpha"}`, string(records[0]))
	assert.JSONEq(t, `{"id":"zeta"}`, string(records[1]))
}

func TestInMemoryListEmptyCollection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewInMemory()

	records, err := s.List(ctx, "nothing-here")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestInMemoryDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewInMemory()

	require.NoError(t, s.Put(ctx, store.CollectionConsumers, "c1", json.RawMessage(`{"id":"c1"}`)))
	require.NoError(t, s.Delete(ctx, store.CollectionConsumers, "c1"))

	_, err := s.Get(ctx, store.CollectionConsumers, "c1")
	assert.True(t, errdefs.IsNotFound(err))

	err = s.Delete(ctx, store.CollectionConsumers, "c1")
	require.Error(t, err)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestInMemoryRecordsDoNotAlias(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := store.NewInMemory()

	record := json.RawMessage(`{"id":"r1"}`)
	require.NoError(t, s.Put(ctx, store.CollectionRepositories, "r1", record))

	// Mutating the caller's slice must not reach the stored copy.
	record[2] = 'X'

	got, err := s.Get(ctx, store.CollectionRepositories, "r1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"r1"}`, string(got))

	// Nor must mutating a returned record.
	got[2] = 'X'
	again, err := s.Get(ctx, store.CollectionRepositories, "r1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"r1"}`, string(again))
}
