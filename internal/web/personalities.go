package web

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"yowbook/internal/db"
	"yowbook/internal/personality"
)

type PersonalityView struct {
	Name    string            `json:"name"`
	Version string            `json:"version"`
	Rating  int               `json:"rating"`
	Book    string            `json:"book"`
	Face    string            `json:"face"`
	Summary string            `json:"summary"`
	Bio     string            `json:"bio"`
	Style   string            `json:"style"`
	Raw     []int32           `json:"raw,omitempty"`
	Params  map[string]string `json:"out,omitempty"`
	Ponder  string            `json:"ponder,omitempty"`
	Source  string            `json:"source"`
}

func viewFromRow(p db.Personality) (PersonalityView, error) {
	v := PersonalityView{
		Name:    p.Name,
		Version: p.Version,
		Rating:  p.Rating,
		Book:    p.Book,
		Face:    p.Face,
		Summary: p.Summary,
		Bio:     p.Bio,
		Style:   p.Style,
		Ponder:  p.Ponder,
		Source:  "catalog",
	}
	if err := json.Unmarshal([]byte(p.RawParams), &v.Raw); err != nil {
		return PersonalityView{}, fmt.Errorf("personality %s raw params: %w", p.Name, err)
	}
	if err := json.Unmarshal([]byte(p.EngineParams), &v.Params); err != nil {
		return PersonalityView{}, fmt.Errorf("personality %s engine params: %w", p.Name, err)
	}
	return v, nil
}

func viewFromRecord(rec personality.Record) PersonalityView {
	return PersonalityView{
		Name:    rec.Name,
		Version: rec.Version,
		Rating:  rec.Rating,
		Book:    rec.Book,
		Face:    rec.Face,
		Summary: rec.Summary,
		Bio:     rec.Bio,
		Style:   rec.Style,
		Raw:     rec.Raw,
		Source:  "record",
	}
}

func (h *Handler) handlePersonalities(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListPersonalities(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]PersonalityView, 0, len(rows))
	for _, row := range rows {
		v, err := viewFromRow(row)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

// handlePersonality serves the imported catalog entry, falling back to
// decoding the record directly when the catalog has none.
func (h *Handler) handlePersonality(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	row, err := h.store.PersonalityByName(r.Context(), name)
	if err == nil {
		v, err := viewFromRow(row)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
		return
	}
	if !errors.Is(err, sql.ErrNoRows) {
		h.fail(w, r, err)
		return
	}

	rec, err := h.dec.Decode(name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewFromRecord(rec))
}
