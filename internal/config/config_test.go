package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/sheetreduce/internal/coerce"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 500, c.MaxRows)
	assert.Equal(t, "smart", c.Strategy)
	assert.Equal(t, 1, c.Parallelism)
	assert.Equal(t, 10, c.ContextRows)
	assert.Equal(t, 500, c.MaxDataPoints)
	assert.Equal(t, "lttb", c.Algorithm)
	assert.Equal(t, "average", c.Aggregation)
	assert.Equal(t, "none", c.GroupBy)
	assert.Equal(t, "json", c.OutputFormat)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "console", c.LogFormat)

	loc, err := c.Locale()
	require.NoError(t, err)
	assert.Equal(t, coerce.Locale{DecimalSeparator: '.', ThousandsSeparator: ','}, loc)
}

func TestLoad_FileAndEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	content := "max_rows: 200\nstrategy: random\ndecimal_separator: \",\"\nthousands_separator: \".\"\n"
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	t.Setenv("SHEETREDUCE_MAX_DATA_POINTS", "250")
	t.Setenv("SHEETREDUCE_STRATEGY", "first")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 200, c.MaxRows)
	assert.Equal(t, "first", c.Strategy, "env wins over file")
	assert.Equal(t, 250, c.MaxDataPoints)

	loc, err := c.Locale()
	require.NoError(t, err)
	assert.Equal(t, ',', loc.DecimalSeparator)
	assert.Equal(t, '.', loc.ThousandsSeparator)
}

func TestLoad_MissingExplicitFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 500, c.MaxRows)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("algorithm: spline\n"), 0o644))
	_, err := Load(p)
	assert.ErrorContains(t, err, "algorithm")
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Set("group_by", "Week"))
	require.NoError(t, c.Set("max_rows", "42"))

	p := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, Save(c, p))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "week", got.GroupBy)
	assert.Equal(t, 42, got.MaxRows)
}

func TestSet(t *testing.T) {
	tests := []struct {
		key, val string
		wantErr  string
	}{
		{"strategy", "stratified", ""},
		{"strategy", "cluster", "strategy"},
		{"max_rows", "-5", "invalid int for max_rows"},
		{"max_rows", "ten", "invalid int for max_rows"},
		{"thousands_separator", ".", "must differ"},
		{"thousands_separator", "space", ""},
		{"decimal_separator", "::", "single character"},
		{"output_format", "xml", "output_format"},
		{"log_format", "text", "log_format"},
		{"nope", "1", "unknown key"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.val, func(t *testing.T) {
			c := &Global{DecimalSeparator: ".", ThousandsSeparator: ","}
			before := *c
			err := c.Set(tt.key, tt.val)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				assert.Equal(t, before, *c, "failed Set must not modify the config")
				return
			}
			require.NoError(t, err)
			got, err := c.Get(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.val, got)
		})
	}
}

func TestSet_DecimalCommaMovesThousandsToDot(t *testing.T) {
	c := &Global{DecimalSeparator: ".", ThousandsSeparator: ","}
	require.NoError(t, c.Set("decimal_separator", ","))
	assert.Equal(t, ",", c.DecimalSeparator)
	assert.Equal(t, ".", c.ThousandsSeparator)

	loc, err := c.Locale()
	require.NoError(t, err)
	v, ok := loc.ParseNumber("1.234,5")
	require.True(t, ok)
	assert.Equal(t, 1234.5, v)

	// an explicit non-comma thousands separator is left alone
	c = &Global{DecimalSeparator: ".", ThousandsSeparator: "space"}
	require.NoError(t, c.Set("decimal_separator", ","))
	assert.Equal(t, "space", c.ThousandsSeparator)
}

func TestKeysCoverGet(t *testing.T) {
	c := &Global{}
	for _, k := range Keys() {
		_, err := c.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestDefault(t *testing.T) {
	assert.Equal(t, "500", Default("max_rows"))
	assert.Equal(t, "lttb", Default("algorithm"))
	assert.Equal(t, "", Default("missing"))
}
