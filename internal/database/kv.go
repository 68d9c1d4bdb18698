package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// KVStore is the sqlite-backed persistence store for deployments without
// redis. The reservation set lives in a single row of a key-value table.
type KVStore struct {
	db     *sql.DB
	key    string
	logger *zerolog.Logger
}

func NewKVStore(path, key string, logger *zerolog.Logger) (*KVStore, error) {
	// Создаем директорию для БД, если её нет
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	query := `CREATE TABLE IF NOT EXISTS kv_store (
        key TEXT PRIMARY KEY,
        value BLOB NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    )`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	logger.Info().Str("path", path).Msg("sqlite kv store initialized")
	return &KVStore{db: db, key: key, logger: logger}, nil
}

func (s *KVStore) Load(ctx context.Context) ([]byte, error) {
	var value []byte
	query := `SELECT value FROM kv_store WHERE key = ?`
	err := s.db.QueryRowContext(ctx, query, s.key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payload: %w", err)
	}
	return value, nil
}

func (s *KVStore) Save(ctx context.Context, payload []byte) error {
	query := `INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
              ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
	if _, err := s.db.ExecContext(ctx, query, s.key, payload); err != nil {
		return fmt.Errorf("failed to save payload: %w", err)
	}
	return nil
}

func (s *KVStore) Clear(ctx context.Context) error {
	query := `DELETE FROM kv_store WHERE key = ?`
	if _, err := s.db.ExecContext(ctx, query, s.key); err != nil {
		return fmt.Errorf("failed to clear payload: %w", err)
	}
	return nil
}

func (s *KVStore) Close() error {
	return s.db.Close()
}
