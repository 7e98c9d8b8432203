package book

import (
	"fmt"
	"strconv"
	"strings"

	polyglot "github.com/corentings/chess/v2"
	"github.com/notnil/chess"
)

// Fingerprint is the polyglot Zobrist key of a position.
type Fingerprint uint64

func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// FingerprintOf computes the polyglot key of pos. The en-passant file only
// contributes when a pawn of the side to move stands ready to capture.
func FingerprintOf(pos *chess.Position) (Fingerprint, error) {
	return fingerprintFields(pos, strings.Fields(pos.String()))
}

// FingerprintFEN parses fen and computes its polyglot key.
func FingerprintFEN(fen string) (Fingerprint, error) {
	pos, err := positionFromFEN(fen)
	if err != nil {
		return 0, err
	}
	return FingerprintOf(pos)
}

func fingerprintFields(pos *chess.Position, fields []string) (Fingerprint, error) {
	if len(fields) < 4 {
		return 0, fmt.Errorf("hash position: short fen %q", strings.Join(fields, " "))
	}
	if fields[3] != "-" && !enPassantCapturable(pos, fields[1], fields[3]) {
		fields[3] = "-"
	}
	fen := strings.Join(fields, " ")

	hasher := polyglot.NewChessHasher()
	hash, err := hasher.HashPosition(fen)
	if err != nil {
		return 0, fmt.Errorf("hash position %q: %w", fen, err)
	}
	v, err := strconv.ParseUint(hash, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse position hash %q: %w", hash, err)
	}
	return Fingerprint(v), nil
}

func enPassantCapturable(pos *chess.Position, turn, target string) bool {
	if len(target) != 2 {
		return false
	}
	file := int(target[0] - 'a')
	if file < 0 || file > 7 {
		return false
	}

	pawn := chess.WhitePawn
	rank := chess.Rank5
	if turn == "b" {
		pawn = chess.BlackPawn
		rank = chess.Rank4
	}

	board := pos.Board()
	for _, f := range []int{file - 1, file + 1} {
		if f < 0 || f > 7 {
			continue
		}
		if board.Piece(chess.NewSquare(chess.File(f), rank)) == pawn {
			return true
		}
	}
	return false
}

func positionFromFEN(fen string) (*chess.Position, error) {
	opt, err := chess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrBadFEN, fen, err)
	}
	return chess.NewGame(opt).Position(), nil
}
