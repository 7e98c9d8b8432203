package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"go.uber.org/zap"

	"yowbook/internal/book"
	"yowbook/internal/config"
	"yowbook/internal/db"
	"yowbook/internal/personality"
	"yowbook/internal/web"
)

type App struct {
	cfg   config.Config
	log   *zap.Logger
	store *db.Store
	lib   *book.Library
	dec   *personality.Decoder

	adminToken string
	handler    http.Handler

	closeOnce sync.Once
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	for _, dir := range []string{cfg.DataDir, cfg.BooksDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	lib, err := book.NewLibrary(cfg.BooksDir,
		book.WithLogger(log.Named("book")),
		book.WithCacheSize(cfg.BookCacheSize),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	dec := personality.NewDecoder(cfg.PersonalitiesDir, cfg.SubstitutionTable(), log.Named("personality"))

	token, source, err := adminToken(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	log.Info("admin token ready", zap.String("source", string(source)))

	h := web.NewHandler(lib, dec, store, token, log.Named("web"))
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	return &App{
		cfg:        cfg,
		log:        log,
		store:      store,
		lib:        lib,
		dec:        dec,
		adminToken: token,
		handler:    h.WithRequestLog(mux),
	}, nil
}

func (a *App) Router() http.Handler {
	return a.handler
}

func (a *App) AdminToken() string {
	return a.adminToken
}

type Summary struct {
	BooksDir string
	Books    int
	Records  int
	Catalog  int
}

// Summary counts what the service will serve. Missing book or record
// directories count as empty.
func (a *App) Summary(ctx context.Context) (Summary, error) {
	s := Summary{BooksDir: a.lib.Dir()}
	if books, err := a.lib.Names(); err == nil {
		s.Books = len(books)
	} else {
		a.log.Warn("list books", zap.Error(err))
	}
	if names, err := a.dec.Names(); err == nil {
		s.Records = len(names)
	} else {
		a.log.Warn("list personality records", zap.Error(err))
	}
	n, err := a.store.CountPersonalities(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("count catalog: %w", err)
	}
	s.Catalog = n
	return s, nil
}

func (a *App) Close() {
	a.closeOnce.Do(func() {
		_ = a.store.Close()
	})
}
