package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key     TEXT PRIMARY KEY,
	value   BLOB NOT NULL,
	version INTEGER NOT NULL
)`

// SQLiteStore persists values in a single-file database. Writes are
// versioned: Update only commits when the row still carries the version it
// read, so several processes can share one file.
type SQLiteStore struct {
	db *sql.DB

	// serialises updates from this process; cross-process races fall back
	// to the version check
	mu sync.Mutex
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, _, err := s.read(ctx, key)
	return v, err
}

func (s *SQLiteStore) read(ctx context.Context, key string) ([]byte, int64, error) {
	var (
		v   []byte
		ver int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT value, version FROM kv WHERE key = ?`, key).Scan(&v, &ver)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite get failed: %w", err)
	}
	return v, ver, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, version) VALUES (?, ?, 1)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = kv.version + 1
	`, key, value)
	if err != nil {
		return fmt.Errorf("sqlite set failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		old, ver, err := s.read(ctx, key)
		found := true
		if errors.Is(err, ErrNotFound) {
			found = false
		} else if err != nil {
			return err
		}

		next, err := fn(old, found)
		if err != nil {
			return err
		}

		ok, err := s.commit(ctx, key, next, ver, found)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrConflict
}

// commit writes next if the row is still at ver. It reports false when
// another writer got there first.
func (s *SQLiteStore) commit(ctx context.Context, key string, next []byte, ver int64, found bool) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if found {
		res, err = s.db.ExecContext(ctx,
			`UPDATE kv SET value = ?, version = version + 1 WHERE key = ? AND version = ?`,
			next, key, ver)
	} else {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO kv (key, value, version) VALUES (?, ?, 1) ON CONFLICT(key) DO NOTHING`,
			key, next)
	}
	if err != nil {
		return false, fmt.Errorf("sqlite update failed: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite update failed: %w", err)
	}
	return n == 1, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
