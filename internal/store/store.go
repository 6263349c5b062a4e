// Package store provides the typed key/value PersistentStore the payload
// state machine persists its fields through. The sqlite-backed
// implementation follows the teacher's db-access shape: open per call,
// wrap every error, CREATE TABLE IF NOT EXISTS on first use.
package store

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Store is the PersistentStore contract from the spec: typed get/set,
// existence check, delete. Each Set is atomic and durable before it
// returns; a writer either fully replaces the prior value or leaves it
// intact.
type Store interface {
	Exists(key string) bool
	GetI64(key string) (int64, bool)
	GetString(key string) (string, bool)
	SetI64(key string, value int64) error
	SetString(key string, value string) error
	Delete(key string) error
}

// SQLite is the crash-safe, single-writer PersistentStore backing, a
// single table of typed rows keyed by stable string names.
type SQLite struct {
	path string
}

func NewSQLite(path string) (*SQLite, error) {
	s := &SQLite{path: path}
	if err := s.withDB(func(db *sql.DB) error {
		_, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv_state(
			key TEXT PRIMARY KEY,
			int_value INTEGER,
			str_value TEXT
		);`)
		if err != nil {
			return fmt.Errorf("failed to create kv_state table: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLite) withDB(f func(db *sql.DB) error) error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Err(closeErr).Msg("failed to close database")
		}
	}()
	return f(db)
}

func (s *SQLite) Exists(key string) bool {
	var exists bool
	_ = s.withDB(func(db *sql.DB) error {
		row := db.QueryRow("SELECT 1 FROM kv_state WHERE key = ?;", key)
		exists = row.Scan(new(int)) == nil
		return nil
	})
	return exists
}

func (s *SQLite) GetI64(key string) (int64, bool) {
	var value int64
	var ok bool
	err := s.withDB(func(db *sql.DB) error {
		row := db.QueryRow("SELECT int_value FROM kv_state WHERE key = ?;", key)
		var v sql.NullInt64
		if err := row.Scan(&v); err != nil {
			return nil //nolint:nilerr // absent/unparseable -> not ok, not a StorageError
		}
		if !v.Valid {
			return nil
		}
		value, ok = v.Int64, true
		return nil
	})
	if err != nil {
		log.Err(err).Str("key", key).Msg("failed to read persisted int64")
		return 0, false
	}
	return value, ok
}

func (s *SQLite) GetString(key string) (string, bool) {
	var value string
	var ok bool
	err := s.withDB(func(db *sql.DB) error {
		row := db.QueryRow("SELECT str_value FROM kv_state WHERE key = ?;", key)
		var v sql.NullString
		if err := row.Scan(&v); err != nil {
			return nil //nolint:nilerr
		}
		if !v.Valid {
			return nil
		}
		value, ok = v.String, true
		return nil
	})
	if err != nil {
		log.Err(err).Str("key", key).Msg("failed to read persisted string")
		return "", false
	}
	return value, ok
}

func (s *SQLite) SetI64(key string, value int64) error {
	err := s.withDB(func(db *sql.DB) error {
		_, err := db.Exec(
			"INSERT INTO kv_state (key, int_value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET int_value = excluded.int_value;",
			key, value,
		)
		return err
	})
	if err != nil {
		log.Err(err).Str("key", key).Msg("failed to persist int64")
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

func (s *SQLite) SetString(key string, value string) error {
	err := s.withDB(func(db *sql.DB) error {
		_, err := db.Exec(
			"INSERT INTO kv_state (key, str_value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET str_value = excluded.str_value;",
			key, value,
		)
		return err
	})
	if err != nil {
		log.Err(err).Str("key", key).Msg("failed to persist string")
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

func (s *SQLite) Delete(key string) error {
	err := s.withDB(func(db *sql.DB) error {
		_, err := db.Exec("DELETE FROM kv_state WHERE key = ?;", key)
		return err
	})
	if err != nil {
		log.Err(err).Str("key", key).Msg("failed to delete persisted key")
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}
