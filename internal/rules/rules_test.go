package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyStart(t *testing.T) {
	res, err := Apply("", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Applied)
	assert.Len(t, res.Legal, 20)
	assert.False(t, res.Terminal())
	assert.Contains(t, res.Legal, "e2e4")
}

func TestApplyMixedNotation(t *testing.T) {
	res, err := Apply(StartFEN, []string{"e4", "e7e5", "Nf3"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Applied)
	assert.Equal(t, "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2", res.FEN)
}

func TestApplyStopsAtIllegalMove(t *testing.T) {
	res, err := Apply(StartFEN, []string{"e2e4", "e2e4", "d7d5"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
}

func TestApplyBadFEN(t *testing.T) {
	_, err := Apply("not a fen", nil)
	assert.Error(t, err)
}

func TestReplayIllegal(t *testing.T) {
	_, err := Replay([]string{"e2e4", "zz"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllegalMove))
}

func TestReplayCheckmate(t *testing.T) {
	res, err := Replay([]string{"f2f3", "e7e5", "g2g4", "d8h4"})
	require.NoError(t, err)
	assert.True(t, res.Checkmate)
	assert.True(t, res.Terminal())
	assert.Empty(t, res.Legal)
	assert.Equal(t, "0-1", res.Outcome)
}

func TestFENFromMoves(t *testing.T) {
	fen, err := FENFromMoves(nil)
	require.NoError(t, err)
	assert.Equal(t, StartFEN, fen)
}
