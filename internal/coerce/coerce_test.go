package coerce

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{"  -3.5 ", -3.5, true},
		{"+7", 7, true},
		{".5", 0.5, true},
		{"5.", 5, true},
		{"1,234", 1234, true},
		{"1,234,567.89", 1234567.89, true},
		{"$1,200", 1200, true},
		{"-$1,200.50", -1200.5, true},
		{"$-3", -3, true},
		{"€12", 12, true},
		{"2.5K", 2500, true},
		{"3m", 3e6, true},
		{"1.2B", 1.2e9, true},
		{"12%", 12, true},
		{"1e3", 1000, true},
		{"2.5E-2", 0.025, true},
		{"1 ", 1, true},
		{"", 0, false},
		{"   ", 0, false},
		{"cat", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"0x10", 0, false},
		{"1e308k", 0, false},
		{"-2e308", 0, false},
		{"1,2,3", 0, false},
		{"12,34", 0, false},
		{"1,2345", 0, false},
		{"1.2.3", 0, false},
		{"1e", 0, false},
		{"$", 0, false},
		{"-", 0, false},
		{"K", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestLocaleParseNumber(t *testing.T) {
	eu := Locale{DecimalSeparator: ',', ThousandsSeparator: '.'}
	got, ok := eu.ParseNumber("1.000,5")
	require.True(t, ok)
	assert.InDelta(t, 1000.5, got, 1e-9)

	got, ok = eu.ParseNumber("0,55")
	require.True(t, ok)
	assert.InDelta(t, 0.55, got, 1e-9)

	_, ok = eu.ParseNumber("1,000.5")
	assert.False(t, ok)

	spaced := Locale{DecimalSeparator: '.', ThousandsSeparator: ' '}
	got, ok = spaced.ParseNumber("12 500.25")
	require.True(t, ok)
	assert.InDelta(t, 12500.25, got, 1e-9)

	commaOnly := Locale{DecimalSeparator: ','}
	got, ok = commaOnly.ParseNumber("3,25")
	require.True(t, ok)
	assert.InDelta(t, 3.25, got, 1e-9)
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"int", 5, 5, true},
		{"int64", int64(-9), -9, true},
		{"uint8", uint8(200), 200, true},
		{"float32", float32(1.5), 1.5, true},
		{"float64", 2.25, 2.25, true},
		{"json number", json.Number("17"), 17, true},
		{"string", "1,000", 1000, true},
		{"nil", nil, 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(1), 0, false},
		{"bool", true, 0, false},
		{"struct", struct{}{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Number(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestToFloatCoercesToZero(t *testing.T) {
	assert.Equal(t, 0.0, ToFloat("n/a"))
	assert.Equal(t, 0.0, ToFloat(nil))
	assert.Equal(t, 12.0, ToFloat("$12"))
}

func TestParseBool(t *testing.T) {
	v, ok := ParseBool("TRUE")
	assert.True(t, ok)
	assert.True(t, v)
	v, ok = ParseBool(" false ")
	assert.True(t, ok)
	assert.False(t, v)
	_, ok = ParseBool("yes")
	assert.False(t, ok)
	_, ok = ParseBool(1)
	assert.False(t, ok)
}

func TestParseTime(t *testing.T) {
	for _, s := range []string{
		"2024-03-05",
		"2024/03/05",
		"03/05/2024",
		"2024-03-05 10:30",
		"2024-03-05T10:30:00Z",
		"2024-03",
		"Mar 5, 2024",
	} {
		_, ok := ParseTime(s)
		assert.True(t, ok, s)
	}
	for _, v := range []any{"", "cat", "2024-13-45", 20240101, nil, time.Time{}} {
		_, ok := ParseTime(v)
		assert.False(t, ok, "%v", v)
	}
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	got, ok := ParseTime(now)
	require.True(t, ok)
	assert.True(t, got.Equal(now))
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(""))
	assert.True(t, IsNull("  "))
	assert.False(t, IsNull("0"))
	assert.False(t, IsNull(0))
	assert.False(t, IsNull(false))
}
