package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/sheetreduce/internal/utils"
)

type sample struct {
	TotalRows int      `json:"totalRows"`
	Headers   []string `json:"headers"`
}

func TestEncode(t *testing.T) {
	v := sample{TotalRows: 3, Headers: []string{"a", "b"}}

	js, err := utils.Encode(v, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalRows":3,"headers":["a","b"]}`, string(js))

	ym, err := utils.Encode(v, "YAML")
	require.NoError(t, err)
	assert.Contains(t, string(ym), "totalRows: 3")
	assert.Contains(t, string(ym), "- a")

	_, err = utils.Encode(v, "xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestSafeWriteFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out", "result.json")
	require.NoError(t, utils.SafeWriteFile(p, []byte("{}")))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
	_, err = os.Stat(p + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
