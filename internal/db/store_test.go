package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "yowbook.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPersonalityUpsertAndList(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.UpsertPersonality(ctx, Personality{
		Name: "Josh", Rating: 1500, Book: "Gambit.bin", RawParams: "[]", EngineParams: `{"opp":"100"}`,
	}))
	require.NoError(t, s.UpsertPersonality(ctx, Personality{
		Name: "Wizard", Rating: 2700, Book: "Wizard.bin", RawParams: "[]", EngineParams: "{}",
	}))

	// second upsert updates in place
	require.NoError(t, s.UpsertPersonality(ctx, Personality{
		Name: "Josh", Rating: 1550, Book: "Gambit.bin", Style: "fast", RawParams: "[]", EngineParams: "{}",
	}))

	n, err := s.CountPersonalities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := s.ListPersonalities(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Wizard", list[0].Name)
	assert.Equal(t, "Josh", list[1].Name)
	assert.Equal(t, 1550, list[1].Rating)
	assert.Equal(t, "fast", list[1].Style)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, list[1].UpdatedAt)

	p, err := s.PersonalityByName(ctx, "Josh")
	require.NoError(t, err)
	assert.Equal(t, "{}", p.EngineParams)

	_, err = s.PersonalityByName(ctx, "Nobody")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestReplacePersonalities(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.UpsertPersonality(ctx, Personality{Name: "Old", RawParams: "[]", EngineParams: "{}"}))
	require.NoError(t, s.ReplacePersonalities(ctx, []Personality{
		{Name: "A", Book: "x.bin", RawParams: "[]", EngineParams: "{}"},
		{Name: "B", Book: "x.bin", RawParams: "[]", EngineParams: "{}"},
		{Name: "C", Book: "y.bin", RawParams: "[]", EngineParams: "{}"},
	}))

	n, err := s.CountPersonalities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	usage, err := s.BookUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, []BookUsage{{Book: "x.bin", Count: 2}, {Book: "y.bin", Count: 1}}, usage)

	// a duplicate name rolls the whole replacement back
	err = s.ReplacePersonalities(ctx, []Personality{
		{Name: "D", RawParams: "[]", EngineParams: "{}"},
		{Name: "D", RawParams: "[]", EngineParams: "{}"},
	})
	require.Error(t, err)
	n, err = s.CountPersonalities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, Settings{SelectPolicy: "weighted", BookMaxPlies: 16}, got)

	want := Settings{DefaultBook: "Wizard.bin", SelectPolicy: "uniform", BookMaxPlies: 24}
	require.NoError(t, s.UpdateSettings(ctx, want))
	got, err = s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// the policy name is normalized on the way in
	require.NoError(t, s.UpdateSettings(ctx, Settings{SelectPolicy: " Uniform ", BookMaxPlies: 2}))
	got, err = s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "uniform", got.SelectPolicy)

	assert.Error(t, s.UpdateSettings(ctx, Settings{SelectPolicy: "bogus"}))
	assert.Error(t, s.UpdateSettings(ctx, Settings{BookMaxPlies: -1}))
	got, err = s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got.BookMaxPlies)
}

func TestSettingsIgnoreJunkValues(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.db.ExecContext(ctx, `UPDATE settings SET value = 'bogus' WHERE key = 'select_policy'`)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, `UPDATE settings SET value = -3 WHERE key = 'book_max_plies'`)
	require.NoError(t, err)

	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings, got)
}
