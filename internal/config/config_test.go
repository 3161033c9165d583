package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	h := Default()

	assert.Equal(t, 3, h.Geometry.HeaderMinScore)
	assert.InDelta(t, 0.18, h.Geometry.FirstPageHeaderRatio, 0.001)
	assert.InDelta(t, 0.10, h.Geometry.LaterPageHeaderRatio, 0.001)
	assert.InDelta(t, 65, h.Columns.DeductionOffset, 0.001)
	assert.InDelta(t, 0.38, h.Columns.RadiusGapRatio, 0.001)
	assert.InDelta(t, 20, h.Columns.MinRadius, 0.001)
	assert.InDelta(t, 50, h.Columns.MaxRadius, 0.001)
	assert.Equal(t, 4, h.Columns.SampleSize)
	assert.InDelta(t, 80, h.Anchors.DateWallOffset, 0.001)
	assert.Contains(t, h.Keywords.Blacklist, "PROMEDIO")
	assert.Contains(t, h.Keywords.Charge, "CARGOS")
	assert.Contains(t, h.Keywords.Deposit, "ABONOS")
	assert.False(t, h.Columns.DepositFirst)
}

func TestRoundTrip(t *testing.T) {
	h := Default()
	h.Columns.DeductionOffset = 70
	first := true
	h.Banks["Banorte"] = BankOverride{DepositFirst: &first}

	path := filepath.Join(t.TempDir(), "heuristics.yaml")
	require.NoError(t, Save(path, h))

	got, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 70, got.Columns.DeductionOffset, 0.001)
	require.Contains(t, got.Banks, "Banorte")
	require.NotNil(t, got.Banks["Banorte"].DepositFirst)
	assert.True(t, *got.Banks["Banorte"].DepositFirst)
	assert.Equal(t, h.Keywords, got.Keywords)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("columns:\n  max_radius: 45\n"), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 45, got.Columns.MaxRadius, 0.001)
	assert.InDelta(t, 20, got.Columns.MinRadius, 0.001)
	assert.InDelta(t, 2, got.Slicing.BaselineEpsilon, 0.001)
	assert.NotEmpty(t, got.Keywords.ClosingTrigger)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("columns: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestForBank(t *testing.T) {
	h := Default()
	first := true
	offset := 80.0
	h.Banks["banorte"] = BankOverride{
		DepositFirst:         &first,
		DeductionOffset:      &offset,
		ExtraClosingTriggers: []string{"RESUMEN DE COMISIONES"},
	}

	got := h.ForBank("BANORTE")
	assert.True(t, got.Columns.DepositFirst)
	assert.InDelta(t, 80, got.Columns.DeductionOffset, 0.001)
	assert.Contains(t, got.Keywords.ClosingTrigger, "RESUMEN DE COMISIONES")

	// receiver untouched
	assert.False(t, h.Columns.DepositFirst)
	assert.InDelta(t, 65, h.Columns.DeductionOffset, 0.001)
	assert.NotContains(t, h.Keywords.ClosingTrigger, "RESUMEN DE COMISIONES")

	unknown := h.ForBank("Nope")
	assert.Equal(t, h.Columns, unknown.Columns)
}

func TestLoadServer(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STATEMENT_ADDR", ":9090")
	t.Setenv("STATEMENT_CLASSIFY_TIMEOUT", "5s")
	t.Setenv("STATEMENT_CLASSIFY_CONCURRENCY", "")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 5*time.Second, cfg.ClassifyTimeout)
	assert.Equal(t, 4, cfg.ClassifyConcurrency)
	assert.Equal(t, "uncategorized", cfg.FallbackCategory)
}

func TestLoadServerRejectsZeroConcurrency(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STATEMENT_CLASSIFY_CONCURRENCY", "0")

	_, err := LoadServer()
	assert.Error(t, err)
}

func TestLoadServerReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STATEMENT_FALLBACK_CATEGORY=otros\n"), 0o644))
	t.Setenv("STATEMENT_FALLBACK_CATEGORY", "")
	os.Unsetenv("STATEMENT_FALLBACK_CATEGORY")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "otros", cfg.FallbackCategory)
}

func TestLoadHeuristicsEmptyPath(t *testing.T) {
	h, err := LoadHeuristics("")
	require.NoError(t, err)
	assert.Equal(t, Default().Geometry, h.Geometry)
}
