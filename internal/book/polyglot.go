package book

import (
	"fmt"
	"os"
	"sort"

	"github.com/notnil/chess"

	"yowbook/internal/binrec"
)

// polyglot entries are 16 bytes, big-endian: key, move, weight, learn.
const entrySize = 16

type Entry struct {
	Key    Fingerprint
	Move   uint16
	Weight uint16
	Learn  uint32
}

// UCI renders the stored move without board context, so castling keeps the
// king-takes-rook form the format uses.
func (e Entry) UCI() string {
	return decodeMove(e.Move)
}

// MoveWeight is a book move resolved against a position.
type MoveWeight struct {
	UCI    string `json:"move"`
	Weight int    `json:"weight"`
	Learn  uint32 `json:"learn"`
}

type Book struct {
	entries []Entry
}

// Load reads and indexes the book at path. Only a failure to read the file
// is an error; an empty or truncated book yields fewer entries.
func Load(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read book: %w", err)
	}
	return Parse(data), nil
}

// Parse indexes raw polyglot bytes. A trailing partial entry is dropped.
func Parse(data []byte) *Book {
	n := len(data) / entrySize
	entries := make([]Entry, n)
	for i := range entries {
		off := i * entrySize
		entries[i] = Entry{
			Key:    Fingerprint(binrec.Uint64BE(data, off)),
			Move:   binrec.Uint16BE(data, off+8),
			Weight: binrec.Uint16BE(data, off+10),
			Learn:  binrec.Uint32BE(data, off+12),
		}
	}
	if !sort.SliceIsSorted(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key }) {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	}
	return &Book{entries: entries}
}

func (b *Book) Len() int {
	return len(b.entries)
}

// Entries returns every entry stored under key, in file order.
func (b *Book) Entries(key Fingerprint) []Entry {
	i := sort.Search(len(b.entries), func(i int) bool { return b.entries[i].Key >= key })
	j := i
	for j < len(b.entries) && b.entries[j].Key == key {
		j++
	}
	if i == j {
		return nil
	}
	out := make([]Entry, j-i)
	copy(out, b.entries[i:j])
	return out
}

// Moves returns the candidates for pos, heaviest first. Castling entries are
// rewritten to the king's destination square.
func (b *Book) Moves(pos *chess.Position) ([]MoveWeight, error) {
	key, err := FingerprintOf(pos)
	if err != nil {
		return nil, err
	}
	entries := b.Entries(key)
	out := make([]MoveWeight, 0, len(entries))
	board := pos.Board()
	for _, e := range entries {
		uci := e.UCI()
		if fixed, ok := castlingMoves[uci]; ok && board.Piece(squareOf(uci[:2])).Type() == chess.King {
			uci = fixed
		}
		out = append(out, MoveWeight{UCI: uci, Weight: int(e.Weight), Learn: e.Learn})
	}
	sortCandidates(out)
	return out, nil
}

// Lookup returns the heaviest book move for pos.
func (b *Book) Lookup(pos *chess.Position) (string, bool) {
	moves, err := b.Moves(pos)
	if err != nil || len(moves) == 0 || moves[0].Weight == 0 {
		return NoMove, false
	}
	return moves[0].UCI, true
}

func sortCandidates(moves []MoveWeight) {
	sort.SliceStable(moves, func(i, j int) bool {
		if moves[i].Weight != moves[j].Weight {
			return moves[i].Weight > moves[j].Weight
		}
		return moves[i].UCI < moves[j].UCI
	})
}

var castlingMoves = map[string]string{
	"e1h1": "e1g1",
	"e1a1": "e1c1",
	"e8h8": "e8g8",
	"e8a8": "e8c8",
}

var promotionPieces = [...]string{"", "n", "b", "r", "q"}

// decodeMove unpacks a polyglot move: to file/rank in bits 0-5, from
// file/rank in bits 6-11, promotion piece in bits 12-14.
func decodeMove(m uint16) string {
	toFile := m & 7
	toRank := (m >> 3) & 7
	fromFile := (m >> 6) & 7
	fromRank := (m >> 9) & 7
	promo := (m >> 12) & 7

	buf := []byte{
		byte('a' + fromFile), byte('1' + fromRank),
		byte('a' + toFile), byte('1' + toRank),
	}
	s := string(buf)
	if int(promo) < len(promotionPieces) {
		s += promotionPieces[promo]
	}
	return s
}

// EncodeMove packs a UCI move into the polyglot representation.
func EncodeMove(uci string) (uint16, error) {
	if len(uci) != 4 && len(uci) != 5 {
		return 0, fmt.Errorf("encode move %q: bad length", uci)
	}
	for i, c := range []byte(uci[:4]) {
		lo, hi := byte('a'), byte('h')
		if i%2 == 1 {
			lo, hi = '1', '8'
		}
		if c < lo || c > hi {
			return 0, fmt.Errorf("encode move %q: bad square", uci)
		}
	}
	m := uint16(uci[2]-'a') |
		uint16(uci[3]-'1')<<3 |
		uint16(uci[0]-'a')<<6 |
		uint16(uci[1]-'1')<<9
	if len(uci) == 5 {
		promo := -1
		for i, p := range promotionPieces {
			if i > 0 && p == uci[4:] {
				promo = i
			}
		}
		if promo < 0 {
			return 0, fmt.Errorf("encode move %q: bad promotion", uci)
		}
		m |= uint16(promo) << 12
	}
	return m, nil
}

func squareOf(s string) chess.Square {
	return chess.NewSquare(chess.File(s[0]-'a'), chess.Rank(s[1]-'1'))
}
