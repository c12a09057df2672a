// Package store defines the record store contract used to persist whole
// platform records by collection and key, plus the in-memory and Postgres
// implementations of it.
package store

import (
	"context"
	"encoding/json"
)

// Well-known collections.
const (
	CollectionRepositories   = "repositories"
	CollectionConsumerGroups = "consumergroups"
	CollectionConsumers      = "consumers"
	CollectionPackages       = "packages"
	CollectionErrata         = "errata"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store

// Store is a key-value persistence layer for whole records. Put is an
// upsert that replaces the entire record. Get and Delete return
// errdefs.ErrNotFound when the key does not resolve.
type Store interface {
	Get(ctx context.Context, collection, key string) (json.RawMessage, error)
	List(ctx context.Context, collection string) ([]json.RawMessage, error)
	Put(ctx context.Context, collection, key string, record json.RawMessage) error
	Delete(ctx context.Context, collection, key string) error
}
