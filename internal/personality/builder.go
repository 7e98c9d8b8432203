package personality

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Profile is a catalog entry: the decoded record merged with its engine
// tuning strings.
type Profile struct {
	Record
	Params map[string]string `json:"out"`
	Ponder string            `json:"ponder"`
}

// Override replaces parts of a built profile. Empty fields keep the decoded
// value.
type Override struct {
	Rename  string `yaml:"rename" json:"rename,omitempty"`
	Book    string `yaml:"book" json:"book,omitempty"`
	Summary string `yaml:"summary" json:"summary,omitempty"`
	Bio     string `yaml:"bio" json:"bio,omitempty"`
	Style   string `yaml:"style" json:"style,omitempty"`
}

// DefaultOverrides fix book references the records get wrong and recast the
// top opponent as the Wizard.
var DefaultOverrides = map[string]Override{
	"Chessmaster": {
		Rename:  "Wizard",
		Summary: "Beats puny humans",
		Bio: "Ye Old Wizard simulates and pays tribute to the classic Chessmaster personalities. " +
			"Chessmaster was the most popular PC chess program ever made, playing and teaching chess " +
			"with millions of kids and adults from 1988 to 2007. It used Johan de Köning's chess engine " +
			"The King to simulate chess opponentes of all rating levels. Play the Wizard himself or his " +
			"many chess personalities here.",
		Style: "The Wizard is the top opponent of Ye Old Wizard. He will do his very best to grind you " +
			"into the ground with his kindly instructive presence.",
	},
	"Shakespeare": {Book: "PawnMoves.bin"},
	"Smyslov":     {Book: "SmyslovV.bin"},
	"Shirov":      {Book: "ShirovA.bin"},
}

type Builder struct {
	dec       *Decoder
	engines   map[string]EngineConfig
	overrides map[string]Override
	log       *zap.Logger
}

func NewBuilder(dec *Decoder, engines map[string]EngineConfig, overrides map[string]Override, log *zap.Logger) *Builder {
	if overrides == nil {
		overrides = DefaultOverrides
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{dec: dec, engines: engines, overrides: overrides, log: log}
}

// Build decodes the record of every configured personality. A personality
// without a record keeps only its engine strings; a malformed record fails
// the build.
func (b *Builder) Build(ctx context.Context) ([]Profile, error) {
	names := make([]string, 0, len(b.engines))
	for name := range b.engines {
		names = append(names, name)
	}
	sort.Strings(names)

	var mu sync.Mutex
	profiles := make([]Profile, 0, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := b.profile(name)
			if err != nil {
				return err
			}
			mu.Lock()
			profiles = append(profiles, p)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	b.log.Info("built personality catalog", zap.Int("profiles", len(profiles)))
	return profiles, nil
}

func (b *Builder) profile(name string) (Profile, error) {
	cfg := b.engines[name]
	p := Profile{Record: Record{Name: name}, Params: cfg.Params, Ponder: cfg.Ponder}

	rec, err := b.dec.Decode(name)
	switch {
	case err == nil:
		p.Record = rec
	case errors.Is(err, ErrNotFound):
		b.log.Debug("no record for personality", zap.String("name", name))
	default:
		return Profile{}, err
	}

	if o, ok := b.overrides[name]; ok {
		applyOverride(&p, o)
	}
	return p, nil
}

func applyOverride(p *Profile, o Override) {
	if o.Rename != "" {
		p.Name = o.Rename
	}
	if o.Book != "" {
		p.Book = o.Book
	}
	if o.Summary != "" {
		p.Summary = o.Summary
	}
	if o.Bio != "" {
		p.Bio = o.Bio
	}
	if o.Style != "" {
		p.Style = o.Style
	}
}

// ExportJSON writes profiles as a JSON object keyed by name.
func ExportJSON(w io.Writer, profiles []Profile) error {
	byName := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		byName[p.Name] = p
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(byName); err != nil {
		return fmt.Errorf("encode personalities: %w", err)
	}
	return nil
}
