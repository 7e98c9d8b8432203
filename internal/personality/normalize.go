package personality

import (
	"path/filepath"
	"strconv"
	"strings"
)

// RatingPlaceholder in the style text is replaced by the rating.
const RatingPlaceholder = "%d"

// Substitution is one find/replace applied to a text field. Tables are
// applied in order, so a later pair may rewrite text an earlier pair produced.
type Substitution struct {
	Field string `yaml:"field" json:"field"`
	Old   string `yaml:"old" json:"old"`
	New   string `yaml:"new" json:"new"`
}

// DefaultSubstitutions strips the legacy product branding from profile text.
var DefaultSubstitutions = []Substitution{
	{Field: fieldVersion, Old: "Chessmaster ", New: ""},
	{Field: fieldBio, Old: "\u0092", New: "'"},
	{Field: fieldStyle, Old: " in Chessmaster® Grandmaster Edition", New: ""},
	{Field: fieldBio, Old: " (see this Classic Game in the Chessmaster Library)", New: ""},
	{Field: fieldBio, Old: " Grandmaster Evans is a frequent contributor to Chessmaster.", New: ""},
	{Field: fieldStyle, Old: "all the Chessmaster® Grandmaster Edition opponents", New: "all the Wizard opponents"},
	{Field: fieldStyle, Old: "Chessmaster® Grandmaster Edition", New: "Ye Old Wizard"},
	{Field: fieldBio, Old: "Chessmaster", New: "Wizard"},
	{Field: fieldStyle, Old: "Chessmaster", New: "Wizard"},
	{
		Field: fieldBio,
		Old:   "and buys the best and latest version of Wizard as soon as it hits the stores.",
		New:   "and even made a web app that simulates the chess personalites of Chessmaster, his favorite old chess program.",
	},
}

type extensionRule struct {
	field     string
	legacy    []string
	canonical string
}

var extensionRules = []extensionRule{
	{field: fieldBook, legacy: []string{".obk"}, canonical: ".bin"},
	{field: fieldFace, legacy: []string{".bmp"}, canonical: ".png"},
}

// ApplySubstitutions rewrites rec's text fields with subs, in order.
func ApplySubstitutions(rec *Record, subs []Substitution) {
	for _, s := range subs {
		if s.Old == "" {
			continue
		}
		p := rec.textField(s.Field)
		if p == nil {
			continue
		}
		*p = strings.ReplaceAll(*p, s.Old, s.New)
	}
}

// InterpolateRating replaces the rating placeholder in style.
func InterpolateRating(style string, rating int) string {
	return strings.ReplaceAll(style, RatingPlaceholder, strconv.Itoa(rating))
}

// normalizeExtension swaps a legacy extension, in any case, for canonical.
func normalizeExtension(name string, legacy []string, canonical string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return name
	}
	for _, l := range legacy {
		if strings.EqualFold(ext, l) {
			return strings.TrimSuffix(name, ext) + canonical
		}
	}
	return name
}

func normalizeExtensions(rec *Record) {
	for _, r := range extensionRules {
		if p := rec.textField(r.field); p != nil {
			*p = normalizeExtension(*p, r.legacy, r.canonical)
		}
	}
}
