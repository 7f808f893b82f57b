package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/sheetreduce/internal/coerce"
	"github.com/KaramelBytes/sheetreduce/internal/decimate"
	"github.com/KaramelBytes/sheetreduce/internal/sampling"
)

// Global configuration structure.
type Global struct {
	// Sampling
	MaxRows     int    `mapstructure:"max_rows" yaml:"max_rows"`
	Strategy    string `mapstructure:"strategy" yaml:"strategy"`
	Parallelism int    `mapstructure:"parallelism" yaml:"parallelism"`
	ContextRows int    `mapstructure:"context_rows" yaml:"context_rows"`
	TokenLimit  int    `mapstructure:"token_limit" yaml:"token_limit"`

	// Decimation
	MaxDataPoints int    `mapstructure:"max_data_points" yaml:"max_data_points"`
	Algorithm     string `mapstructure:"algorithm" yaml:"algorithm"`
	Aggregation   string `mapstructure:"aggregation" yaml:"aggregation"`
	GroupBy       string `mapstructure:"group_by" yaml:"group_by"`

	// Number parsing
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator"`

	// Output and logging
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat    string `mapstructure:"log_format" yaml:"log_format"`
}

// EnvPrefix is prepended to upper-cased keys for environment overrides,
// e.g. SHEETREDUCE_MAX_ROWS.
const EnvPrefix = "SHEETREDUCE"

var defaults = map[string]any{
	"max_rows":            sampling.DefaultMaxRows,
	"strategy":            string(sampling.StrategySmart),
	"parallelism":         1,
	"context_rows":        10,
	"token_limit":         0,
	"max_data_points":     decimate.DefaultMaxDataPoints,
	"algorithm":           string(decimate.AlgorithmLTTB),
	"aggregation":         string(decimate.AggregateAverage),
	"group_by":            string(decimate.GroupNone),
	"decimal_separator":   ".",
	"thousands_separator": ",",
	"output_format":       "json",
	"log_level":           "info",
	"log_format":          "console",
}

// Keys returns every configuration key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Default returns the string form of a key's built-in default, or "" for
// unknown keys.
func Default(key string) string {
	d, ok := defaults[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(d)
}

// DefaultPath returns ~/.sheetreduce/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".sheetreduce", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.sheetreduce/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A missing config file is not an error.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks enum values and limits.
func (c *Global) Validate() error {
	if c.MaxRows < 0 {
		return fmt.Errorf("invalid max_rows: %d", c.MaxRows)
	}
	if c.MaxDataPoints < 0 {
		return fmt.Errorf("invalid max_data_points: %d", c.MaxDataPoints)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("invalid parallelism: %d", c.Parallelism)
	}
	if _, err := sampling.ParseStrategy(c.Strategy); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if _, err := decimate.ParseAlgorithm(c.Algorithm); err != nil {
		return fmt.Errorf("algorithm: %w", err)
	}
	if _, err := decimate.ParseAggregation(c.Aggregation); err != nil {
		return fmt.Errorf("aggregation: %w", err)
	}
	if _, err := decimate.ParseGranularity(c.GroupBy); err != nil {
		return fmt.Errorf("group_by: %w", err)
	}
	switch strings.ToLower(c.OutputFormat) {
	case "", "json", "yaml":
	default:
		return fmt.Errorf("invalid output_format: %s (use json or yaml)", c.OutputFormat)
	}
	if _, err := c.Locale(); err != nil {
		return err
	}
	return nil
}

// Locale builds the number-parsing locale from the separator settings.
func (c *Global) Locale() (coerce.Locale, error) {
	dec, err := separator("decimal_separator", c.DecimalSeparator, '.')
	if err != nil {
		return coerce.Locale{}, err
	}
	th, err := separator("thousands_separator", c.ThousandsSeparator, ',')
	if err != nil {
		return coerce.Locale{}, err
	}
	if dec == th {
		return coerce.Locale{}, fmt.Errorf("decimal_separator and thousands_separator must differ (both %q)", dec)
	}
	return coerce.Locale{DecimalSeparator: dec, ThousandsSeparator: th}, nil
}

func separator(key, s string, def rune) (rune, error) {
	switch {
	case s == "":
		return def, nil
	case s == "space":
		return ' ', nil
	case utf8.RuneCountInString(s) == 1:
		r, _ := utf8.DecodeRuneInString(s)
		return r, nil
	}
	return 0, fmt.Errorf("invalid %s: %q (use a single character or \"space\")", key, s)
}

// Set assigns one key from its string form and validates the result.
func (c *Global) Set(key, val string) error {
	next := *c
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "max_rows":
		next.MaxRows, err = atoi()
	case "parallelism":
		next.Parallelism, err = atoi()
	case "context_rows":
		next.ContextRows, err = atoi()
	case "token_limit":
		next.TokenLimit, err = atoi()
	case "max_data_points":
		next.MaxDataPoints, err = atoi()
	case "strategy":
		next.Strategy = strings.ToLower(val)
	case "algorithm":
		next.Algorithm = strings.ToLower(val)
	case "aggregation":
		next.Aggregation = strings.ToLower(val)
	case "group_by":
		next.GroupBy = strings.ToLower(val)
	case "decimal_separator":
		next.DecimalSeparator = val
		// a decimal comma moves the default thousands comma to a dot
		if val == "," && next.ThousandsSeparator == "," {
			next.ThousandsSeparator = "."
		}
	case "thousands_separator":
		next.ThousandsSeparator = val
	case "output_format":
		next.OutputFormat = strings.ToLower(val)
	case "log_level":
		next.LogLevel = strings.ToLower(val)
	case "log_format":
		switch strings.ToLower(val) {
		case "console", "json":
			next.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use console or json)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Get returns the string form of one key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "max_rows":
		return strconv.Itoa(c.MaxRows), nil
	case "parallelism":
		return strconv.Itoa(c.Parallelism), nil
	case "context_rows":
		return strconv.Itoa(c.ContextRows), nil
	case "token_limit":
		return strconv.Itoa(c.TokenLimit), nil
	case "max_data_points":
		return strconv.Itoa(c.MaxDataPoints), nil
	case "strategy":
		return c.Strategy, nil
	case "algorithm":
		return c.Algorithm, nil
	case "aggregation":
		return c.Aggregation, nil
	case "group_by":
		return c.GroupBy, nil
	case "decimal_separator":
		return c.DecimalSeparator, nil
	case "thousands_separator":
		return c.ThousandsSeparator, nil
	case "output_format":
		return c.OutputFormat, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}
