// Package personality decodes legacy opponent profile records and builds
// the personality catalog from them.
package personality

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrNotFound means no record exists for the name; callers may skip it.
	ErrNotFound = errors.New("personality not found")
	// ErrMalformed means a record exists but cannot be decoded.
	ErrMalformed = errors.New("malformed personality record")
)

type Record struct {
	Name    string  `json:"name"`
	Version string  `json:"version"`
	Raw     []int32 `json:"raw"`
	Rating  int     `json:"rating"`
	Book    string  `json:"book"`
	Face    string  `json:"face"`
	Summary string  `json:"summary"`
	Bio     string  `json:"bio"`
	Style   string  `json:"style"`
}

func (r *Record) textField(name string) *string {
	switch name {
	case fieldVersion:
		return &r.Version
	case fieldBook:
		return &r.Book
	case fieldFace:
		return &r.Face
	case fieldSummary:
		return &r.Summary
	case fieldBio:
		return &r.Bio
	case fieldStyle:
		return &r.Style
	}
	return nil
}

// DecodeRecord decodes one profile record and normalizes its text: the
// rating placeholder is resolved, file references get their canonical
// extensions and subs are applied in order.
func DecodeRecord(buf []byte, subs []Substitution) (Record, error) {
	if len(buf) < MinRecordSize {
		return Record{}, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformed, len(buf), MinRecordSize)
	}
	fields := decodeLayout(buf, recordLayout)

	raw := fields.ints[fieldRaw]
	rec := Record{
		Version: fields.text[fieldVersion],
		Raw:     raw,
		Rating:  int(raw[RatingIndex]),
		Book:    fields.text[fieldBook],
		Face:    fields.text[fieldFace],
		Summary: fields.text[fieldSummary],
		Bio:     fields.text[fieldBio],
	}
	rec.Style = InterpolateRating(fields.text[fieldStyle], rec.Rating)
	normalizeExtensions(&rec)
	ApplySubstitutions(&rec, subs)
	return rec, nil
}

// Decoder reads profile records named <name>.CMP from one directory.
type Decoder struct {
	dir  string
	subs []Substitution
	log  *zap.Logger
}

func NewDecoder(dir string, subs []Substitution, log *zap.Logger) *Decoder {
	if subs == nil {
		subs = DefaultSubstitutions
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Decoder{dir: dir, subs: subs, log: log}
}

// Decode reads and decodes the record for name.
func (d *Decoder) Decode(name string) (Record, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	data, err := d.read(name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			d.log.Warn("personality not found", zap.String("name", name))
		}
		return Record{}, err
	}

	rec, err := DecodeRecord(data, d.subs)
	if err != nil {
		d.log.Error("decode personality", zap.String("name", name), zap.Error(err))
		return Record{}, fmt.Errorf("decode %s: %w", name, err)
	}
	rec.Name = name
	return rec, nil
}

func (d *Decoder) read(name string) ([]byte, error) {
	for _, ext := range []string{".CMP", ".cmp"} {
		data, err := os.ReadFile(filepath.Join(d.dir, name+ext))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read personality %s: %w", name, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Names lists the personalities that have a record in the directory.
func (d *Decoder) Names() ([]string, error) {
	dirents, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("read personalities dir: %w", err)
	}
	seen := make(map[string]bool)
	var out []string
	for _, de := range dirents {
		name := de.Name()
		ext := filepath.Ext(name)
		if de.IsDir() || !strings.EqualFold(ext, ".cmp") {
			continue
		}
		base := strings.TrimSuffix(name, ext)
		if !seen[base] {
			seen[base] = true
			out = append(out, base)
		}
	}
	return out, nil
}
