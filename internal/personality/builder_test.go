package personality

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const engineCfg = `Josh
cm_parm opp=100 opn=100 opb=100
cm_parm opr=100 opq=100
cm_parm myp=90 myn=110
cm_parm cfd=-50
cm_parm sop=0 avd=0
cm_parm rnd=10 sel=9 md=99 tts=16777216
ponder=1

Chessmaster
cm_parm opp=120
cm_parm opr=100
cm_parm myp=100
cm_parm cfd=0
cm_parm sop=100
cm_parm rnd=0
ponder=0
`

func TestParseEngineStrings(t *testing.T) {
	cfgs, err := ParseEngineStrings(strings.NewReader(strings.ReplaceAll(engineCfg, "\n", "\r\n")))
	require.NoError(t, err)
	require.Len(t, cfgs, 2)

	josh := cfgs["Josh"]
	assert.Equal(t, "Josh", josh.Name)
	assert.Equal(t, "ponder=1", josh.Ponder)
	assert.Equal(t, "-50", josh.Params["cfd"])
	assert.Equal(t, "16777216", josh.Params["tts"])
	assert.Len(t, josh.Params, 14)
	assert.NotContains(t, josh.Params, "cm_parm")
}

func TestParseEngineStringsBadToken(t *testing.T) {
	_, err := ParseEngineStrings(strings.NewReader("Josh\ncm_parm opp\n"))
	assert.Error(t, err)
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	dir := t.TempDir()
	writeRecord(t, dir, "Josh.CMP", buildRecord(recordSpec{
		book:  "Gambit.OBK",
		style: "Josh plays like a %d.",
		raw:   map[int]int32{RatingIndex: 1500},
	}))
	cfgs, err := ParseEngineStrings(strings.NewReader(engineCfg))
	require.NoError(t, err)
	return NewBuilder(NewDecoder(dir, nil, nil), cfgs, nil, nil)
}

func TestBuilderBuild(t *testing.T) {
	b := newTestBuilder(t)
	profiles, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	josh := profiles[0]
	assert.Equal(t, "Josh", josh.Name)
	assert.Equal(t, 1500, josh.Rating)
	assert.Equal(t, "Gambit.bin", josh.Book)
	assert.Equal(t, "Josh plays like a 1500.", josh.Style)
	assert.Equal(t, "90", josh.Params["myp"])

	// no record on disk: the engine strings survive and the override applies
	wizard := profiles[1]
	assert.Equal(t, "Wizard", wizard.Name)
	assert.Equal(t, "Beats puny humans", wizard.Summary)
	assert.Equal(t, "120", wizard.Params["opp"])
	assert.Zero(t, wizard.Rating)
}

func TestBuilderMalformedRecordFails(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "Josh.CMP", []byte("too short"))
	b := NewBuilder(NewDecoder(dir, nil, nil), map[string]EngineConfig{"Josh": {Name: "Josh"}}, nil, nil)
	_, err := b.Build(context.Background())
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestBuilderCustomOverrides(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "Shirov.CMP", buildRecord(recordSpec{book: "Shirov.obk"}))
	overrides := map[string]Override{"Shirov": {Book: "ShirovA.bin", Style: "Sharp."}}
	b := NewBuilder(NewDecoder(dir, nil, nil), map[string]EngineConfig{"Shirov": {Name: "Shirov"}}, overrides, nil)

	profiles, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "ShirovA.bin", profiles[0].Book)
	assert.Equal(t, "Sharp.", profiles[0].Style)
}

func TestExportJSON(t *testing.T) {
	profiles, err := newTestBuilder(t).Build(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, profiles))

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Contains(t, decoded, "Josh")
	require.Contains(t, decoded, "Wizard")
	assert.Equal(t, "Gambit.bin", decoded["Josh"]["book"])
	assert.Equal(t, float64(1500), decoded["Josh"]["rating"])
	assert.Equal(t, "100", decoded["Josh"]["out"].(map[string]any)["opp"])
}
