package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so state does not leak
// between invocations of the shared rootCmd.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeCSV(t *testing.T, dir, name string, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,date,amount,region\n")
	regions := []string{"north", "south", "east", "west"}
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%d,%s,%d.5,%s\n", i, start.AddDate(0, 0, i).Format("2006-01-02"), (i*37)%1000, regions[i%4])
	}
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(p, []byte(b.String()), 0o644))
	return p
}

func TestCLI_SampleJSON(t *testing.T) {
	home := isolateHome(t)
	p := writeCSV(t, home, "orders.csv", 1000)

	out, err := runCmd(t, "sample", p, "--max-rows", "100", "--strategy", "systematic")
	require.NoError(t, err)

	var res struct {
		TotalRows  int     `json:"totalRows"`
		SampleSize int     `json:"sampleSize"`
		Strategy   string  `json:"strategy"`
		Samples    [][]any `json:"samples"`
		Aggregates struct {
			RowCount int `json:"rowCount"`
		} `json:"aggregates"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1000, res.TotalRows)
	assert.Equal(t, 100, res.SampleSize)
	assert.Equal(t, "systematic", res.Strategy)
	assert.Len(t, res.Samples, 100)
	assert.Equal(t, 1000, res.Aggregates.RowCount)
}

func TestCLI_SampleSeedIsReproducible(t *testing.T) {
	home := isolateHome(t)
	p := writeCSV(t, home, "orders.csv", 500)

	a, err := runCmd(t, "sample", p, "--max-rows", "20", "--strategy", "random", "--seed", "7")
	require.NoError(t, err)
	b, err := runCmd(t, "sample", p, "--max-rows", "20", "--strategy", "random", "--seed", "7")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, a, `"seed": 7`)
}

func TestCLI_SampleContextDigest(t *testing.T) {
	home := isolateHome(t)
	p := writeCSV(t, home, "orders.csv", 300)

	out, err := runCmd(t, "sample", p, "--max-rows", "50", "--context", "--context-rows", "3")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "[DATASET SUMMARY]"))
	assert.Contains(t, out, "Rows: 300 (sampled 50")
	assert.Contains(t, out, "[SCHEMA]")
	assert.Contains(t, out, "[SAMPLE ROWS]")

	small, err := runCmd(t, "sample", p, "--max-rows", "50", "--context", "--context-rows", "3", "--token-limit", "40")
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(small))/4, 40)
}

func TestCLI_SampleWritesYAMLFile(t *testing.T) {
	home := isolateHome(t)
	p := writeCSV(t, home, "orders.csv", 10)
	dest := filepath.Join(home, "out", "orders.yaml")

	out, err := runCmd(t, "sample", p, "--format", "yaml", "-o", dest)
	require.NoError(t, err)
	assert.Empty(t, out)
	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(b), "strategy: full")
	assert.Contains(t, string(b), "totalRows: 10")
}

func TestCLI_Profile(t *testing.T) {
	home := isolateHome(t)
	p := writeCSV(t, home, "orders.csv", 40)

	out, err := runCmd(t, "profile", p, "--parallelism", "4")
	require.NoError(t, err)
	var agg struct {
		RowCount    int `json:"rowCount"`
		ColumnStats []struct {
			Name     string `json:"name"`
			DataType string `json:"dataType"`
		} `json:"columnStats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &agg))
	assert.Equal(t, 40, agg.RowCount)
	require.Len(t, agg.ColumnStats, 4)
	assert.Equal(t, "number", agg.ColumnStats[0].DataType)
	assert.Equal(t, "date", agg.ColumnStats[1].DataType)
	assert.Equal(t, "string", agg.ColumnStats[3].DataType)
}

type decimateOut struct {
	Data               []map[string]any `json:"data"`
	OriginalSize       int              `json:"originalSize"`
	OptimizedSize      int              `json:"optimizedSize"`
	AggregationApplied bool             `json:"aggregationApplied"`
	Method             string           `json:"method"`
}

func TestCLI_DecimateMonthly(t *testing.T) {
	home := isolateHome(t)
	p := writeCSV(t, home, "orders.csv", 1000)

	out, err := runCmd(t, "decimate", p, "--x", "date", "--y", "amount", "--group-by", "month")
	require.NoError(t, err)
	var res decimateOut
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1000, res.OriginalSize)
	assert.Equal(t, "time-aggregation-month", res.Method)
	assert.True(t, res.AggregationApplied)
	assert.Len(t, res.Data, 33)
	assert.Equal(t, "2021-01", res.Data[0]["_period"])
}

func TestCLI_DecimateDefaultsToNumericColumns(t *testing.T) {
	home := isolateHome(t)
	p := writeCSV(t, home, "orders.csv", 1000)

	out, err := runCmd(t, "decimate", p, "--x", "id", "--max-points", "50", "--algorithm", "average", "--aggregation", "max")
	require.NoError(t, err)
	var res decimateOut
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "average", res.Method)
	require.Len(t, res.Data, 50)
	// amount aggregated to a float, region carried from the bucket's first row
	_, ok := res.Data[0]["amount"].(float64)
	assert.True(t, ok)
	assert.Equal(t, "north", res.Data[0]["region"])
}

func TestCLI_DecimateChartRecommendation(t *testing.T) {
	home := isolateHome(t)
	p := writeCSV(t, home, "orders.csv", 800)

	out, err := runCmd(t, "decimate", p, "--x", "id", "--y", "amount", "--chart", "scatter", "--max-points", "200")
	require.NoError(t, err)
	var res decimateOut
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "nth", res.Method)
	assert.LessOrEqual(t, len(res.Data), 201)
}

func TestCLI_DecimateErrors(t *testing.T) {
	home := isolateHome(t)
	p := writeCSV(t, home, "orders.csv", 10)

	_, err := runCmd(t, "decimate", p, "--x", "missing")
	assert.ErrorContains(t, err, `x column "missing" not found`)

	_, err = runCmd(t, "decimate", p, "--x", "id", "--algorithm", "spline")
	assert.ErrorContains(t, err, "unknown algorithm")

	_, err = runCmd(t, "decimate", p)
	assert.Error(t, err)
}

func TestCLI_Recommend(t *testing.T) {
	home := isolateHome(t)
	p := writeCSV(t, home, "orders.csv", 6000)

	out, err := runCmd(t, "recommend", p, "--x", "date")
	require.NoError(t, err)
	var rec struct {
		Reduce     bool `json:"reduce"`
		TimeSeries bool `json:"timeSeries"`
		Options    struct {
			GroupBy   string `json:"groupBy"`
			Algorithm string `json:"decimationAlgorithm"`
		} `json:"options"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.True(t, rec.Reduce)
	assert.True(t, rec.TimeSeries)
	assert.Equal(t, "week", rec.Options.GroupBy)
	assert.Equal(t, "lttb", rec.Options.Algorithm)

	out, err = runCmd(t, "recommend", p, "--x", "id", "--chart", "bar")
	require.NoError(t, err)
	assert.Contains(t, out, `"decimationAlgorithm": "average"`)
	assert.Contains(t, out, `"aggregationMethod": "sum"`)
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolateHome(t)
	cfgPath := filepath.Join(home, "cfg", "config.yaml")

	_, err := runCmd(t, "config", "set", "strategy", "first", "--config", cfgPath)
	require.NoError(t, err)
	_, err = runCmd(t, "config", "set", "strategy", "bogus", "--config", cfgPath)
	assert.Error(t, err)

	_, err = runCmd(t, "config", "set", "decimal_separator", ",", "--config", cfgPath)
	require.NoError(t, err)

	out, err := runCmd(t, "config", "show", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "decimal_separator: ,\n")
	assert.Contains(t, out, "thousands_separator: .\n")
	assert.Contains(t, out, "strategy: first\n")
	assert.Contains(t, out, "max_rows: 500\n")

	// the saved strategy drives sampling
	p := writeCSV(t, home, "orders.csv", 600)
	out, err = runCmd(t, "sample", p, "--config", cfgPath, "--max-rows", "5")
	require.NoError(t, err)
	assert.Contains(t, out, `"strategy": "first"`)
}

func TestCLI_BatchAvoidsOverwrite(t *testing.T) {
	home := isolateHome(t)
	writeCSV(t, filepath.Join(home, "d1"), "metrics.csv", 30)
	writeCSV(t, filepath.Join(home, "d2"), "metrics.csv", 30)
	outDir := filepath.Join(home, "results")

	out, err := runCmd(t, "batch", filepath.Join(home, "d*", "metrics.csv"), "--out-dir", outDir, "--max-rows", "10", "--jobs", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "[1/2] metrics.csv → metrics.json")
	assert.Contains(t, out, "[2/2] metrics.csv → metrics__2.json")

	for _, name := range []string{"metrics.json", "metrics__2.json"} {
		b, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err)
		assert.Contains(t, string(b), `"sampleSize": 10`)
	}

	_, err = runCmd(t, "batch", filepath.Join(home, "d1", "metrics.csv"), "--out-dir", outDir, "--context", "-q")
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(outDir, "metrics.context.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "[DATASET SUMMARY]"))
}

func TestCLI_BatchNoMatches(t *testing.T) {
	home := isolateHome(t)
	_, err := runCmd(t, "batch", filepath.Join(home, "*.csv"), "--out-dir", home)
	assert.ErrorContains(t, err, "no input files matched")
}

func TestOutputBase(t *testing.T) {
	assert.Equal(t, "report", outputBase("/x/report.xlsx", ""))
	assert.Equal(t, "report__sheet-q1-sales", outputBase("/x/report.xlsx", "Q1 Sales!"))
	assert.Equal(t, "report__sheet-sheet", outputBase("report.xlsx", "!!"))
}
