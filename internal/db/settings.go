package db

import (
	"context"
	"fmt"
	"strconv"

	"yowbook/internal/book"
)

const (
	keyDefaultBook  = "default_book"
	keySelectPolicy = "select_policy"
	keyBookMaxPlies = "book_max_plies"
)

// DefaultSettings are used for keys that are missing or hold junk.
var DefaultSettings = Settings{
	SelectPolicy: string(book.PolicyWeighted),
	BookMaxPlies: 16,
}

func (s *Store) GetSettings(ctx context.Context) (Settings, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT key, CAST(value AS TEXT) AS value
		FROM settings
	`); err != nil {
		return Settings{}, err
	}

	out := DefaultSettings
	for _, row := range rows {
		switch row.Key {
		case keyDefaultBook:
			out.DefaultBook = row.Value
		case keySelectPolicy:
			// a policy this build does not know keeps the default
			if p, err := book.ParsePolicy(row.Value); err == nil {
				out.SelectPolicy = string(p)
			}
		case keyBookMaxPlies:
			if v, err := strconv.Atoi(row.Value); err == nil && v >= 0 {
				out.BookMaxPlies = v
			}
		}
	}
	return out, nil
}

// UpdateSettings stores settings after normalizing the policy name. An
// unknown policy or a negative line length is rejected.
func (s *Store) UpdateSettings(ctx context.Context, settings Settings) (err error) {
	policy, err := book.ParsePolicy(settings.SelectPolicy)
	if err != nil {
		return err
	}
	if settings.BookMaxPlies < 0 {
		return fmt.Errorf("book_max_plies must be >= 0, got %d", settings.BookMaxPlies)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	values := []struct {
		key   string
		value any
	}{
		{keyDefaultBook, settings.DefaultBook},
		{keySelectPolicy, string(policy)},
		{keyBookMaxPlies, settings.BookMaxPlies},
	}
	for _, v := range values {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, v.key, v.value); err != nil {
			return fmt.Errorf("save setting %s: %w", v.key, err)
		}
	}
	return tx.Commit()
}
