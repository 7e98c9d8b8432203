package personality

import "yowbook/internal/binrec"

type fieldKind int

const (
	textField fieldKind = iota
	int32Field
)

// field names one window of a legacy profile record.
type field struct {
	name       string
	start, end int
	kind       fieldKind
}

const (
	fieldVersion = "version"
	fieldRaw     = "raw"
	fieldBook    = "book"
	fieldFace    = "face"
	fieldSummary = "summary"
	fieldBio     = "bio"
	fieldStyle   = "style"
)

// recordLayout is the legacy CMP layout. The book and face windows share
// byte 452 and byte 1581 belongs to no field; both quirks are part of the
// format.
var recordLayout = []field{
	{name: fieldVersion, start: 0, end: 32, kind: textField},
	{name: fieldRaw, start: 32, end: 192, kind: int32Field},
	{name: fieldBook, start: 192, end: 453, kind: textField},
	{name: fieldFace, start: 452, end: 482, kind: textField},
	{name: fieldSummary, start: 482, end: 582, kind: textField},
	{name: fieldBio, start: 582, end: 1581, kind: textField},
	{name: fieldStyle, start: 1582, end: binrec.End, kind: textField},
}

const (
	// MinRecordSize is the shortest record whose every window fits; the
	// style text may then be empty.
	MinRecordSize = 1582
	RawParamCount = 40
	// RatingIndex locates the rating inside the raw parameters.
	RatingIndex = 6
)

type decodedFields struct {
	text map[string]string
	ints map[string][]int32
}

// decodeLayout reads every window of layout from buf. buf must already be
// long enough for the layout.
func decodeLayout(buf []byte, layout []field) decodedFields {
	out := decodedFields{
		text: make(map[string]string, len(layout)),
		ints: make(map[string][]int32, 1),
	}
	for _, f := range layout {
		switch f.kind {
		case textField:
			out.text[f.name] = binrec.Text(buf, f.start, f.end)
		case int32Field:
			out.ints[f.name] = binrec.Int32s(buf, f.start, f.end)
		}
	}
	return out
}
