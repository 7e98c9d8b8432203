package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/notnil/chess"

	"yowbook/internal/book"
	"yowbook/internal/rules"
)

type BookMoveView struct {
	UCI     string  `json:"move"`
	SAN     string  `json:"san,omitempty"`
	Weight  int     `json:"weight"`
	Learn   uint32  `json:"learn"`
	Percent float64 `json:"percent"`
	NextFEN string  `json:"next_fen,omitempty"`
}

type BookMovesResponse struct {
	Book  string         `json:"book"`
	FEN   string         `json:"fen"`
	Moves []BookMoveView `json:"moves"`
}

type BookMoveResponse struct {
	Book   string `json:"book"`
	Move   string `json:"move"`
	Found  bool   `json:"found"`
	Policy string `json:"policy"`
}

type BookLineResponse struct {
	Book  string   `json:"book"`
	Moves []string `json:"moves"`
}

type BookView struct {
	Name string `json:"name"`
	// Personalities counts the catalog entries that play from this book.
	Personalities int `json:"personalities"`
}

func (h *Handler) handleBooks(w http.ResponseWriter, r *http.Request) {
	names, err := h.lib.Names()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	usage, err := h.store.BookUsage(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	counts := make(map[string]int, len(usage))
	for _, u := range usage {
		counts[u.Book] = u.Count
	}

	out := make([]BookView, 0, len(names))
	for _, name := range names {
		out = append(out, BookView{Name: name, Personalities: counts[name]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": out})
}

func (h *Handler) handleBookMoves(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("book")
	fen := strings.TrimSpace(r.URL.Query().Get("fen"))

	var (
		moves []book.MoveWeight
		err   error
	)
	if fen != "" {
		moves, err = h.lib.LookupFEN(ctx, fen, name)
	} else {
		played := parseMoves(r.URL.Query().Get("moves"))
		moves, err = h.lib.LookupMoves(ctx, played, name)
		if err == nil {
			fen, err = rules.FENFromMoves(played)
		}
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, BookMovesResponse{
		Book:  name,
		FEN:   fen,
		Moves: moveViews(fen, moves),
	})
}

func (h *Handler) handleBookMove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("book")

	raw := strings.TrimSpace(r.URL.Query().Get("policy"))
	if raw == "" && h.store != nil {
		settings, err := h.store.GetSettings(ctx)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		raw = settings.SelectPolicy
	}
	policy, err := book.ParsePolicy(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	mv, ok, err := h.lib.SelectMove(ctx, parseMoves(r.URL.Query().Get("moves")), name, policy)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BookMoveResponse{Book: name, Move: mv, Found: ok, Policy: string(policy)})
}

func (h *Handler) handleBookLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("book")

	plies := 0
	if v := strings.TrimSpace(r.URL.Query().Get("plies")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid plies", http.StatusBadRequest)
			return
		}
		plies = n
	} else if h.store != nil {
		settings, err := h.store.GetSettings(ctx)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		plies = settings.BookMaxPlies
	}

	line, err := h.lib.Line(ctx, name, plies)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BookLineResponse{Book: name, Moves: line})
}

// parseMoves splits a move list on commas and whitespace.
func parseMoves(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

func moveViews(fen string, moves []book.MoveWeight) []BookMoveView {
	total := 0
	for _, mv := range moves {
		total += mv.Weight
	}

	out := make([]BookMoveView, 0, len(moves))
	for _, mv := range moves {
		view := BookMoveView{UCI: mv.UCI, Weight: mv.Weight, Learn: mv.Learn}
		if total > 0 {
			view.Percent = float64(mv.Weight) * 100 / float64(total)
		}
		opt, err := chess.FEN(fen)
		if err != nil {
			out = append(out, view)
			continue
		}
		game := chess.NewGame(opt)
		decoded, err := chess.UCINotation{}.Decode(game.Position(), mv.UCI)
		if err == nil {
			view.SAN = chess.AlgebraicNotation{}.Encode(game.Position(), decoded)
			if err := game.Move(decoded); err == nil {
				view.NextFEN = game.Position().String()
			}
		}
		out = append(out, view)
	}
	return out
}
