package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"yowbook/internal/book"
	"yowbook/internal/db"
)

func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.adminToken == "" {
			http.Error(w, "admin disabled (no admin token)", http.StatusForbidden)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if token == "" {
			token = strings.TrimSpace(r.URL.Query().Get("token"))
		}
		if token == "" {
			http.Error(w, "missing admin token", http.StatusUnauthorized)
			return
		}
		if !tokensEqual(token, h.adminToken) {
			http.Error(w, "invalid admin token", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func tokensEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsView(settings))
}

type SettingsView struct {
	DefaultBook  string `json:"default_book"`
	SelectPolicy string `json:"select_policy"`
	BookMaxPlies int    `json:"book_max_plies"`
}

func settingsView(s db.Settings) SettingsView {
	return SettingsView{
		DefaultBook:  s.DefaultBook,
		SelectPolicy: s.SelectPolicy,
		BookMaxPlies: s.BookMaxPlies,
	}
}

func (h *Handler) handleSettingsSave(w http.ResponseWriter, r *http.Request) {
	var in SettingsView
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid settings: "+err.Error(), http.StatusBadRequest)
		return
	}
	policy, err := book.ParsePolicy(in.SelectPolicy)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if in.BookMaxPlies < 0 {
		http.Error(w, "book_max_plies must be >= 0", http.StatusBadRequest)
		return
	}
	if in.DefaultBook != "" {
		if _, err := h.lib.Book(in.DefaultBook); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	settings := db.Settings{
		DefaultBook:  strings.TrimSpace(in.DefaultBook),
		SelectPolicy: string(policy),
		BookMaxPlies: in.BookMaxPlies,
	}
	if err := h.store.UpdateSettings(r.Context(), settings); err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Info("settings updated")
	writeJSON(w, http.StatusOK, settingsView(settings))
}
