package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dfryer1193/folio/blog/domain"
	"github.com/dfryer1193/folio/shared/db"
)

var (
	_ domain.KeyValueStore = (*SQLiteKeyValueStore)(nil)
	_ domain.KeyValueStore = (*MemoryKeyValueStore)(nil)
)

// SQLiteKeyValueStore implements domain.KeyValueStore on the local_storage table
type SQLiteKeyValueStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteKeyValueStore creates a key/value store on an already migrated database
func NewSQLiteKeyValueStore(sqlDB *sql.DB) *SQLiteKeyValueStore {
	return &SQLiteKeyValueStore{
		db:  sqlDB,
		now: time.Now,
	}
}

const getValueQuery = `
	SELECT value
	FROM local_storage
	WHERE key = ?
`

func (s *SQLiteKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.GetExecutor(ctx, s.db).QueryRowContext(ctx, getValueQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, true, nil
}

const upsertValueQuery = `
	INSERT INTO local_storage (key, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at
`

func (s *SQLiteKeyValueStore) Set(ctx context.Context, key, value string) error {
	_, err := db.GetExecutor(ctx, s.db).ExecContext(ctx, upsertValueQuery, key, value, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// SetMany writes all entries in one transaction, or none of them.
func (s *SQLiteKeyValueStore) SetMany(ctx context.Context, entries map[string]string) error {
	return db.RunInTransaction(ctx, s.db, func(txCtx context.Context) error {
		for key, value := range entries {
			if err := s.Set(txCtx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

const deleteValueQuery = `DELETE FROM local_storage WHERE key = ?`

func (s *SQLiteKeyValueStore) Delete(ctx context.Context, key string) error {
	_, err := db.GetExecutor(ctx, s.db).ExecContext(ctx, deleteValueQuery, key)
	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// MemoryKeyValueStore keeps values in process memory. Nothing survives a restart.
type MemoryKeyValueStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryKeyValueStore() *MemoryKeyValueStore {
	return &MemoryKeyValueStore{
		values: make(map[string]string),
	}
}

func (m *MemoryKeyValueStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *MemoryKeyValueStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKeyValueStore) SetMany(_ context.Context, entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range entries {
		m.values[key] = value
	}
	return nil
}

func (m *MemoryKeyValueStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
