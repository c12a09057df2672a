package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caravelhq/caravel/database"
)

// pgStore implements Store on a single records table keyed by
// (collection, key) with the record body held as JSONB.
type pgStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*pgStore)(nil)

// NewPostgres connects to the given database and runs the schema migrations.
// The caller owns the lifetime of the returned store via Close.
func NewPostgres(ctx context.Context, connString string) (Store, func(), error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := database.MigrateUp(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &pgStore{pool: pool}, pool.Close, nil
}

func (s *pgStore) Get(ctx context.Context, collection, key string) (json.RawMessage, error) {
	var record json.RawMessage
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM records WHERE collection = $1 AND key = $2`,
		collection, key,
	).Scan(&record)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", collection, key, errdefs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, key, err)
	}
	return record, nil
}

func (s *pgStore) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM records WHERE collection = $1 ORDER BY key`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var record json.RawMessage
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan %s record: %w", collection, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s records: %w", collection, err)
	}
	return records, nil
}

func (s *pgStore) Put(ctx context.Context, collection, key string, record json.RawMessage) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO records (collection, key, record) VALUES ($1, $2, $3)
		 ON CONFLICT (collection, key) DO UPDATE SET record = EXCLUDED.record`,
		collection, key, record,
	)
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *pgStore) Delete(ctx context.Context, collection, key string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM records WHERE collection = $1 AND key = $2`,
		collection, key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, key, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", collection, key, errdefs.ErrNotFound)
	}
	return nil
}
