package book

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/notnil/chess"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"yowbook/internal/rules"
)

var (
	ErrBookNotFound = errors.New("book not found")
	ErrBadBookName  = errors.New("bad book name")
	ErrBadFEN       = errors.New("bad fen")
)

const (
	DefaultCacheSize = 64
	// MaxLinePlies bounds Line when the caller sets no limit; books may cycle.
	MaxLinePlies = 200
)

type cachedBook struct {
	book *Book
	mod  time.Time
}

// Library serves lookups against the books of one directory. Parsed books
// are shared read-only between callers and reloaded when the file changes.
type Library struct {
	dir   string
	rnd   RandSource
	log   *zap.Logger
	cache *lru.Cache[string, cachedBook]
	loads singleflight.Group
}

type Option func(*libraryOptions)

type libraryOptions struct {
	rnd       RandSource
	log       *zap.Logger
	cacheSize int
}

// WithRand sets the source used by SelectMove and Line. Library serializes
// its draws, so a seeded *math/rand.Rand may be shared by concurrent lookups.
func WithRand(rnd RandSource) Option {
	return func(o *libraryOptions) { o.rnd = rnd }
}

func WithLogger(log *zap.Logger) Option {
	return func(o *libraryOptions) { o.log = log }
}

func WithCacheSize(n int) Option {
	return func(o *libraryOptions) { o.cacheSize = n }
}

func NewLibrary(dir string, opts ...Option) (*Library, error) {
	o := libraryOptions{rnd: globalRand{}, cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	switch o.rnd.(type) {
	case nil:
		o.rnd = globalRand{}
	case globalRand, *lockedRand:
	default:
		o.rnd = &lockedRand{src: o.rnd}
	}
	if o.cacheSize <= 0 {
		o.cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, cachedBook](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create book cache: %w", err)
	}
	return &Library{dir: dir, rnd: o.rnd, log: o.log, cache: cache}, nil
}

// Names lists the book files in the library directory, sorted.
func (l *Library) Names() ([]string, error) {
	dirents, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read books dir: %w", err)
	}
	var out []string
	for _, de := range dirents {
		if de.IsDir() || !strings.EqualFold(filepath.Ext(de.Name()), ".bin") {
			continue
		}
		out = append(out, de.Name())
	}
	sort.Strings(out)
	return out, nil
}

func (l *Library) Dir() string {
	return l.dir
}

// Book returns the parsed book called name, loading it on first use.
func (l *Library) Book(name string) (*Book, error) {
	path, err := l.path(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBookNotFound, name)
		}
		return nil, fmt.Errorf("stat book: %w", err)
	}

	if c, ok := l.cache.Get(path); ok && c.mod.Equal(info.ModTime()) {
		l.log.Debug("book cache hit", zap.String("book", name))
		return c.book, nil
	}

	v, err, _ := l.loads.Do(path, func() (any, error) {
		start := time.Now()
		b, err := Load(path)
		if err != nil {
			return nil, err
		}
		l.cache.Add(path, cachedBook{book: b, mod: info.ModTime()})
		l.log.Info("book loaded",
			zap.String("book", name),
			zap.Int("entries", b.Len()),
			zap.Duration("took", time.Since(start)),
		)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Book), nil
}

func (l *Library) path(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrBadBookName, name)
	}
	return filepath.Join(l.dir, name), nil
}

// LookupMoves replays moves from the standard start and returns every book
// candidate for the resulting position. An absent position is an empty list.
func (l *Library) LookupMoves(ctx context.Context, moves []string, bookName string) ([]MoveWeight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := rules.Replay(moves)
	if err != nil {
		return nil, err
	}
	return l.lookup(res.Position, bookName)
}

// LookupFEN returns every book candidate for the position fen describes.
func (l *Library) LookupFEN(ctx context.Context, fen, bookName string) ([]MoveWeight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pos, err := positionFromFEN(fen)
	if err != nil {
		return nil, err
	}
	return l.lookup(pos, bookName)
}

func (l *Library) lookup(pos *chess.Position, bookName string) ([]MoveWeight, error) {
	b, err := l.Book(bookName)
	if err != nil {
		return nil, err
	}
	return b.Moves(pos)
}

// SelectMove picks a book move for the position reached by moves. The bool
// is false, with NoMove, when the book has nothing eligible.
func (l *Library) SelectMove(ctx context.Context, moves []string, bookName string, policy Policy) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return NoMove, false, err
	}
	res, err := rules.Replay(moves)
	if err != nil {
		return NoMove, false, err
	}
	if res.Terminal() {
		return NoMove, false, rules.ErrNoLegalMoves
	}
	candidates, err := l.lookup(res.Position, bookName)
	if err != nil {
		return NoMove, false, err
	}
	mv, ok := Select(policy, candidates, l.rnd)
	return mv.UCI, ok, nil
}

// Line follows weighted book moves from the standard start until the book
// runs out or maxPlies moves were played (MaxLinePlies when maxPlies <= 0).
func (l *Library) Line(ctx context.Context, bookName string, maxPlies int) ([]string, error) {
	b, err := l.Book(bookName)
	if err != nil {
		return nil, err
	}

	if maxPlies <= 0 {
		maxPlies = MaxLinePlies
	}
	line := make([]string, 0, 8)
	pos := chess.StartingPosition()
	notation := chess.UCINotation{}
	for {
		if err := ctx.Err(); err != nil {
			return line, err
		}
		if len(line) >= maxPlies {
			break
		}
		candidates, err := b.Moves(pos)
		if err != nil {
			return line, err
		}
		pick, ok := WeightedSelect(candidates, l.rnd)
		if !ok {
			break
		}
		mv, err := notation.Decode(pos, pick.UCI)
		if err != nil {
			break
		}
		line = append(line, pick.UCI)
		pos = pos.Update(mv)
	}
	return line, nil
}
