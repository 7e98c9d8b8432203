package book

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"yowbook/internal/rules"
)

func newTestLibrary(t *testing.T, opts ...Option) (*Library, string) {
	t.Helper()
	dir := t.TempDir()
	writeBook(t, dir, "Gambit.bin",
		testEntry{key: startKey, move: "e2e4", weight: 3},
		testEntry{key: startKey, move: "d2d4", weight: 0},
		testEntry{key: startKey, move: "c2c4", weight: 1},
		testEntry{key: e4Key, move: "d7d5", weight: 1},
		testEntry{key: e4d5Key, move: "e4d5", weight: 2, learn: 7},
	)
	writeBook(t, dir, "NoBook.bin")
	lib, err := NewLibrary(dir, opts...)
	require.NoError(t, err)
	return lib, dir
}

func TestLibraryLookupMoves(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	moves, err := lib.LookupMoves(ctx, nil, "Gambit.bin")
	require.NoError(t, err)
	assert.Equal(t, []MoveWeight{
		{UCI: "e2e4", Weight: 3},
		{UCI: "c2c4", Weight: 1},
		{UCI: "d2d4", Weight: 0},
	}, moves)

	moves, err = lib.LookupMoves(ctx, []string{"e4", "d5"}, "Gambit.bin")
	require.NoError(t, err)
	assert.Equal(t, []MoveWeight{{UCI: "e4d5", Weight: 2, Learn: 7}}, moves)
}

func TestLibraryLookupAbsentPositionIsEmpty(t *testing.T) {
	lib, _ := newTestLibrary(t)
	moves, err := lib.LookupMoves(context.Background(), []string{"g1f3"}, "Gambit.bin")
	require.NoError(t, err)
	assert.Empty(t, moves)

	moves, err = lib.LookupMoves(context.Background(), nil, "NoBook.bin")
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestLibraryLookupFEN(t *testing.T) {
	lib, _ := newTestLibrary(t)
	moves, err := lib.LookupFEN(context.Background(),
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", "Gambit.bin")
	require.NoError(t, err)
	assert.Equal(t, []MoveWeight{{UCI: "d7d5", Weight: 1}}, moves)

	_, err = lib.LookupFEN(context.Background(), "garbage", "Gambit.bin")
	assert.True(t, errors.Is(err, ErrBadFEN))
}

func TestLibraryErrors(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	_, err := lib.LookupMoves(ctx, nil, "Missing.bin")
	assert.True(t, errors.Is(err, ErrBookNotFound))

	for _, name := range []string{"", "..", "../Gambit.bin", "sub/Gambit.bin"} {
		_, err = lib.LookupMoves(ctx, nil, name)
		assert.True(t, errors.Is(err, ErrBadBookName), name)
	}

	_, err = lib.LookupMoves(ctx, []string{"e4", "e4"}, "Gambit.bin")
	assert.True(t, errors.Is(err, rules.ErrIllegalMove))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = lib.LookupMoves(cancelled, nil, "Gambit.bin")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLibrarySelectMove(t *testing.T) {
	lib, _ := newTestLibrary(t, WithRand(&seqRand{draws: []int{3}}))
	ctx := context.Background()

	mv, ok, err := lib.SelectMove(ctx, nil, "Gambit.bin", PolicyWeighted)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c2c4", mv)

	mv, ok, err = lib.SelectMove(ctx, []string{"g1f3"}, "Gambit.bin", PolicyWeighted)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, NoMove, mv)

	_, _, err = lib.SelectMove(ctx, []string{"f3", "e5", "g4", "Qh4"}, "Gambit.bin", PolicyWeighted)
	assert.True(t, errors.Is(err, rules.ErrNoLegalMoves))
}

func TestLibrarySelectNeverPicksZeroWeight(t *testing.T) {
	lib, _ := newTestLibrary(t)
	for i := 0; i < 500; i++ {
		mv, ok, err := lib.SelectMove(context.Background(), nil, "Gambit.bin", PolicyWeighted)
		require.NoError(t, err)
		require.True(t, ok)
		require.NotEqual(t, "d2d4", mv)
	}
}

func TestLibraryLine(t *testing.T) {
	lib, _ := newTestLibrary(t, WithRand(&seqRand{draws: []int{0}}))
	line, err := lib.Line(context.Background(), "Gambit.bin", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"e2e4", "d7d5", "e4d5"}, line)

	line, err = lib.Line(context.Background(), "Gambit.bin", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"e2e4", "d7d5"}, line)
}

func TestLibraryReloadsChangedBook(t *testing.T) {
	lib, dir := newTestLibrary(t)
	first, err := lib.Book("Gambit.bin")
	require.NoError(t, err)
	again, err := lib.Book("Gambit.bin")
	require.NoError(t, err)
	assert.Same(t, first, again)

	path := writeBook(t, dir, "Gambit.bin", testEntry{key: startKey, move: "g1f3", weight: 1})
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	reloaded, err := lib.Book("Gambit.bin")
	require.NoError(t, err)
	assert.NotSame(t, first, reloaded)
	assert.Equal(t, 1, reloaded.Len())
}

func TestLibraryConcurrentLookups(t *testing.T) {
	defer goleak.VerifyNone(t)

	lib, _ := newTestLibrary(t)
	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			moves := []string{}
			if i%2 == 1 {
				moves = []string{"e2e4"}
			}
			if _, _, err := lib.SelectMove(context.Background(), moves, "Gambit.bin", PolicyWeighted); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestLibrarySharesSeededRandAcrossGoroutines(t *testing.T) {
	lib, _ := newTestLibrary(t, WithRand(rand.New(rand.NewSource(1))))

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			mv, ok, err := lib.SelectMove(context.Background(), nil, "Gambit.bin", PolicyUniform)
			if err != nil {
				errs <- err
				return
			}
			if !ok || mv == NoMove {
				errs <- errors.New("no move from the start position")
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := lib.Line(context.Background(), "Gambit.bin", 4); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestLibraryDir(t *testing.T) {
	lib, dir := newTestLibrary(t)
	assert.Equal(t, dir, lib.Dir())
	_, err := os.Stat(filepath.Join(lib.Dir(), "Gambit.bin"))
	assert.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
	names, err := lib.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"Gambit.bin", "NoBook.bin"}, names)
}
