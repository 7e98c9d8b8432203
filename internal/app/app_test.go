package app

import (
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yowbook/internal/config"
	"yowbook/internal/personality"
)

const engineCfg = `Josh
cm_parm opp=100
cm_parm opr=100
cm_parm myp=100
cm_parm cfd=0
cm_parm sop=0
cm_parm rnd=0
ponder=1

Shirov
cm_parm opp=90
cm_parm opr=100
cm_parm myp=100
cm_parm cfd=0
cm_parm sop=0
cm_parm rnd=0
ponder=0
`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		DataDir:          dir,
		BooksDir:         filepath.Join(dir, "books"),
		PersonalitiesDir: filepath.Join(dir, "cmp"),
		EngineCfgPath:    filepath.Join(dir, "personalities.cfg"),
		DBPath:           filepath.Join(dir, "yowbook.sqlite"),
		BookCacheSize:    4,
	}
}

func writeRecord(t *testing.T, cfg config.Config, name, book string, rating int32) {
	t.Helper()
	require.NoError(t, os.MkdirAll(cfg.PersonalitiesDir, 0o755))
	buf := make([]byte, personality.MinRecordSize)
	copy(buf[192:], book)
	binary.LittleEndian.PutUint32(buf[32+personality.RatingIndex*4:], uint32(rating))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.PersonalitiesDir, name+".CMP"), buf, 0o644))
}

func TestNewServesAPI(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	token, err := os.ReadFile(filepath.Join(cfg.DataDir, "admin.token"))
	require.NoError(t, err)
	assert.Equal(t, a.AdminToken(), strings.TrimSpace(string(token)))
	assert.Len(t, a.AdminToken(), 64)

	sum, err := a.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{BooksDir: cfg.BooksDir}, sum)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	// the token survives a restart
	a.Close()
	b, err := New(cfg, nil)
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, a.AdminToken(), b.AdminToken())
}

func TestAdminTokenSources(t *testing.T) {
	cfg := testConfig(t)
	cfg.AdminToken = " configured "
	token, source, err := adminToken(cfg)
	require.NoError(t, err)
	assert.Equal(t, "configured", token)
	assert.Equal(t, tokenFromConfig, source)
	assert.NoFileExists(t, filepath.Join(cfg.DataDir, adminTokenFileName))

	cfg.AdminToken = ""
	generated, source, err := adminToken(cfg)
	require.NoError(t, err)
	assert.Equal(t, tokenGenerated, source)

	again, source, err := adminToken(cfg)
	require.NoError(t, err)
	assert.Equal(t, tokenFromFile, source)
	assert.Equal(t, generated, again)
}

func TestBuildAndImportCatalog(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.EngineCfgPath, []byte(engineCfg), 0o644))
	writeRecord(t, cfg, "Josh", "Gambit.OBK", 1500)
	writeRecord(t, cfg, "Shirov", "Shirov.obk", 2700)

	ctx := context.Background()
	profiles, err := BuildCatalog(ctx, cfg, nil)
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	a, err := New(cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	n, err := ImportCatalog(ctx, a.store, profiles, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	writeRecord(t, cfg, "Extra", "", 0)
	sum, err := a.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Records)
	assert.Equal(t, 2, sum.Catalog)

	rows, err := a.store.ListPersonalities(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Shirov", rows[0].Name)
	assert.Equal(t, "ShirovA.bin", rows[0].Book)
	assert.Contains(t, rows[0].EngineParams, `"opp":"90"`)
	assert.Equal(t, "Josh", rows[1].Name)
	assert.Equal(t, "Gambit.bin", rows[1].Book)
	assert.Equal(t, "ponder=1", rows[1].Ponder)
}

func TestImportCatalogMergeKeepsOthers(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()

	first := []personality.Profile{
		{Record: personality.Record{Name: "Josh", Book: "Gambit.bin", Rating: 1500}},
		{Record: personality.Record{Name: "Shirov", Book: "ShirovA.bin", Rating: 2700}},
	}
	n, err := ImportCatalog(ctx, a.store, first, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	update := []personality.Profile{
		{Record: personality.Record{Name: "Josh", Book: "Josh.bin", Rating: 1550}, Params: map[string]string{"opp": "100"}},
		{Record: personality.Record{Name: "Wizard", Rating: 2900}},
	}
	n, err = ImportCatalog(ctx, a.store, update, false)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	josh, err := a.store.PersonalityByName(ctx, "Josh")
	require.NoError(t, err)
	assert.Equal(t, "Josh.bin", josh.Book)
	assert.Equal(t, 1550, josh.Rating)
	assert.Equal(t, `{"opp":"100"}`, josh.EngineParams)
	assert.Equal(t, "[]", josh.RawParams)

	// replacing drops what the new build no longer has
	n, err = ImportCatalog(ctx, a.store, update, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBuildCatalogMissingEngineConfig(t *testing.T) {
	_, err := BuildCatalog(context.Background(), testConfig(t), nil)
	assert.Error(t, err)
}
