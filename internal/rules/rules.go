// Package rules replays move lists on a chess board and reports the
// resulting position, the legal replies and whether the game is over.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrIllegalMove  = errors.New("illegal move")
	ErrNoLegalMoves = errors.New("no legal moves")
)

type Result struct {
	Position *chess.Position
	FEN      string
	// Applied counts the moves played before the first one that could not be
	// decoded or was illegal.
	Applied   int
	Legal     []string
	Outcome   string
	Method    string
	Checkmate bool
	Stalemate bool
}

// Terminal reports whether the side to move has no legal move or the game
// has otherwise ended.
func (r Result) Terminal() bool {
	return len(r.Legal) == 0 || r.Outcome != string(chess.NoOutcome)
}

// Apply plays moves from fen (the standard start when empty). Moves may be
// SAN ("Nf3"), UCI ("g1f3") or long algebraic ("Ng1-f3"). Replay stops at the
// first move that does not apply; only an unparsable fen is an error.
func Apply(fen string, moves []string) (Result, error) {
	if strings.TrimSpace(fen) == "" {
		fen = StartFEN
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return Result{}, fmt.Errorf("parse fen %q: %w", fen, err)
	}
	g := chess.NewGame(opt)

	applied := 0
	for _, s := range moves {
		s = strings.TrimSpace(s)
		if s == "" {
			break
		}
		mv, err := decodeSloppy(g.Position(), s)
		if err != nil {
			break
		}
		if err := g.Move(mv); err != nil {
			break
		}
		applied++
	}

	valid := g.ValidMoves()
	legal := make([]string, 0, len(valid))
	for _, mv := range valid {
		legal = append(legal, mv.String())
	}

	method := g.Method()
	return Result{
		Position:  g.Position(),
		FEN:       g.Position().String(),
		Applied:   applied,
		Legal:     legal,
		Outcome:   string(g.Outcome()),
		Method:    method.String(),
		Checkmate: method == chess.Checkmate,
		Stalemate: method == chess.Stalemate,
	}, nil
}

// Replay plays moves from the standard start and fails with ErrIllegalMove
// when any of them does not apply.
func Replay(moves []string) (Result, error) {
	res, err := Apply(StartFEN, moves)
	if err != nil {
		return Result{}, err
	}
	if res.Applied != len(moves) {
		return res, fmt.Errorf("move %d (%q): %w", res.Applied+1, moves[res.Applied], ErrIllegalMove)
	}
	return res, nil
}

// FENFromMoves returns the position reached by moves from the standard start.
func FENFromMoves(moves []string) (string, error) {
	res, err := Replay(moves)
	if err != nil {
		return "", err
	}
	return res.FEN, nil
}

func decodeSloppy(pos *chess.Position, s string) (*chess.Move, error) {
	notations := []chess.Notation{
		chess.AlgebraicNotation{},
		chess.UCINotation{},
		chess.LongAlgebraicNotation{},
	}
	var lastErr error
	for _, n := range notations {
		mv, err := n.Decode(pos, s)
		if err == nil {
			return mv, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
