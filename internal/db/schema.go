package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var schema_stmts = []string{
	`PRAGMA journal_mode=WAL;`,
	`PRAGMA foreign_keys=ON;`,
	`CREATE TABLE IF NOT EXISTS personalities (
		name TEXT PRIMARY KEY,
		version TEXT NOT NULL DEFAULT '',
		rating INTEGER NOT NULL DEFAULT 0,
		book TEXT NOT NULL DEFAULT '',
		face TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		style TEXT NOT NULL DEFAULT '',
		raw_params TEXT NOT NULL DEFAULT '[]',
		engine_params TEXT NOT NULL DEFAULT '{}',
		ponder TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	);`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value
	);`,
	`CREATE INDEX IF NOT EXISTS idx_personalities_rating ON personalities(rating);`,
	`CREATE INDEX IF NOT EXISTS idx_personalities_book ON personalities(book);`,
}

type Store struct {
	db *sqlx.DB
}

func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// keep it predictable; this is a single-instance service.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	for _, stmt := range schema_stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	if err := insertDefaultSettings(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func insertDefaultSettings(ctx context.Context, db *sqlx.DB) error {
	defaults := []struct {
		key   string
		value any
	}{
		{keyDefaultBook, DefaultSettings.DefaultBook},
		{keySelectPolicy, DefaultSettings.SelectPolicy},
		{keyBookMaxPlies, DefaultSettings.BookMaxPlies},
	}
	for _, d := range defaults {
		if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, d.key, d.value); err != nil {
			return fmt.Errorf("insert default setting %s: %w", d.key, err)
		}
	}
	return nil
}
