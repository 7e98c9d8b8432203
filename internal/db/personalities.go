package db

import (
	"context"
	"fmt"
)

// list all personalities, strongest first
func (s *Store) ListPersonalities(ctx context.Context) ([]Personality, error) {
	var out []Personality
	err := s.db.SelectContext(ctx, &out, `
		SELECT name, version, rating, book, face, summary, bio, style,
			raw_params, engine_params, ponder, updated_at
		FROM personalities
		ORDER BY rating DESC, name ASC
	`)
	return out, err
}

// find a personality by its name; sql.ErrNoRows when absent
func (s *Store) PersonalityByName(ctx context.Context, name string) (Personality, error) {
	var p Personality
	err := s.db.GetContext(ctx, &p, `
		SELECT name, version, rating, book, face, summary, bio, style,
			raw_params, engine_params, ponder, updated_at
		FROM personalities
		WHERE name = ?
	`, name)
	return p, err
}

// insert or update a personality; "::" is a literal colon in a named query
func (s *Store) UpsertPersonality(ctx context.Context, p Personality) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO personalities (name, version, rating, book, face, summary, bio, style, raw_params, engine_params, ponder)
		VALUES (:name, :version, :rating, :book, :face, :summary, :bio, :style, :raw_params, :engine_params, :ponder)
		ON CONFLICT(name) DO UPDATE SET
			version = excluded.version,
			rating = excluded.rating,
			book = excluded.book,
			face = excluded.face,
			summary = excluded.summary,
			bio = excluded.bio,
			style = excluded.style,
			raw_params = excluded.raw_params,
			engine_params = excluded.engine_params,
			ponder = excluded.ponder,
			updated_at = strftime('%Y-%m-%dT%H::%M::%fZ','now')
	`, p)
	return err
}

// replace the whole catalog in one transaction
func (s *Store) ReplacePersonalities(ctx context.Context, ps []Personality) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM personalities`); err != nil {
		return err
	}
	for _, p := range ps {
		if _, err = tx.NamedExecContext(ctx, `
			INSERT INTO personalities (name, version, rating, book, face, summary, bio, style, raw_params, engine_params, ponder)
			VALUES (:name, :version, :rating, :book, :face, :summary, :bio, :style, :raw_params, :engine_params, :ponder)
		`, p); err != nil {
			return fmt.Errorf("insert personality %s: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

// count all personalities
func (s *Store) CountPersonalities(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM personalities`)
	return n, err
}

// how many personalities play from each book
func (s *Store) BookUsage(ctx context.Context) ([]BookUsage, error) {
	var out []BookUsage
	err := s.db.SelectContext(ctx, &out, `
		SELECT book, COUNT(*) AS count
		FROM personalities
		WHERE book <> ''
		GROUP BY book
		ORDER BY count DESC, book ASC
	`)
	return out, err
}
