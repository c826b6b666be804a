// Package localstore is a device-local credential cache backed by SQLite.
// The session engine only removes deprecated keys from it (the janitor's
// LegacyStore view); Put/Get exist for platform glue that still reads or
// seeds cached values.
package localstore

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// ErrKeyNotFound is returned by Get for absent keys.
var ErrKeyNotFound = goerrors.New("cache key not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// EntryModel is the Bun model for cached entries. Row ids derive
// deterministically from the key so repeated writes stay idempotent.
type EntryModel struct {
	bun.BaseModel `bun:"table:credential_cache"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Key       string    `bun:"key,notnull,unique"`
	Value     string    `bun:"value"`
	CreatedAt time.Time `bun:"created_at,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at"`
}

// Store is a small key-value cache over a Bun database.
type Store struct {
	db    *bun.DB
	owned bool
}

// New wraps an existing Bun database. The credential_cache table must
// already exist (see Migrate).
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// Open creates a store over a SQLite file, running migration. Use
// ":memory:" for tests.
func Open(path string) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open local cache")
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	store := &Store{db: db, owned: true}

	if err := store.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Migrate creates the cache table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*EntryModel)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to migrate local cache")
	}
	return nil
}

// Put upserts a value under key.
func (s *Store) Put(ctx context.Context, key, value string) error {
	id, err := hashid.NewUUID(key)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to derive cache row id")
	}

	entry := &EntryModel{
		ID:        id,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}

	_, err = s.db.NewInsert().
		Model(entry).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to write cache entry")
	}
	return nil
}

// Get returns the value stored under key, or ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var entry EntryModel
	err := s.db.NewSelect().
		Model(&entry).
		Where("key = ?", key).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrKeyNotFound
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read cache entry")
	}
	return entry.Value, nil
}

// Remove deletes the entry under key. Removing an absent key is not an
// error; the janitor calls this unconditionally.
func (s *Store) Remove(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*EntryModel)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove cache entry")
	}
	return nil
}

// Close releases the underlying database when this store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
