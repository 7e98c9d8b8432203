package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"yowbook/internal/book"
	"yowbook/internal/db"
	"yowbook/internal/personality"
)

type Handler struct {
	lib   *book.Library
	dec   *personality.Decoder
	store *db.Store
	log   *zap.Logger

	adminToken string
}

func NewHandler(lib *book.Library, dec *personality.Decoder, store *db.Store, adminToken string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		lib:        lib,
		dec:        dec,
		store:      store,
		log:        log,
		adminToken: adminToken,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/books", h.handleBooks)
	mux.HandleFunc("GET /api/books/{book}/moves", h.handleBookMoves)
	mux.HandleFunc("GET /api/books/{book}/move", h.handleBookMove)
	mux.HandleFunc("GET /api/books/{book}/line", h.handleBookLine)

	mux.HandleFunc("GET /api/personalities", h.handlePersonalities)
	mux.HandleFunc("GET /api/personalities/{name}", h.handlePersonality)

	mux.HandleFunc("GET /api/settings", h.handleSettings)
	mux.HandleFunc("PUT /api/settings", h.requireAdmin(h.handleSettingsSave))
}

// WithRequestLog tags every request with an id and logs its completion.
func (h *Handler) WithRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		h.log.Info("request",
			zap.String("id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
