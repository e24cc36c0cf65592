package dataprocessing

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"fraction stays fraction", "0.99", 0.99},
		{"percent sign", "99%", 99},
		{"thousands separator", "1,234", 1234},
		{"million suffix", "50M", 50000000},
		{"fractional million", "0.5M", 500000},
		{"thousand suffix lower", "1.5k", 1500},
		{"dollar", "$100", 100},
		{"yen with separator", "¥1,500", 1500},
		{"fullwidth yen", "￥2,000", 2000},
		{"inner whitespace", " 1 234 ", 1234},
		{"negative", "-12.5", -12.5},
		{"exponent", "1e3", 1000},
		{"leading number wins", "12abc", 12},
		{"garbage", "abc", 0},
		{"N/A", " N/A ", 0},
		{"na lower", "na", 0},
		{"dash", "-", 0},
		{"empty", "", 0},
		{"symbols only", "$%", 0},
		{"bare suffix", "M", 0},
		{"overflow", "1e999", 0},
		{"nil", nil, 0},
		{"int", 42, 42},
		{"int64", int64(-7), -7},
		{"float32", float32(0.5), 0.5},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
		{"json number", json.Number("2.5"), 2.5},
		{"bool unsupported", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanNumber(tt.in)
			assert.Equal(t, tt.want, got)
			assert.False(t, math.IsNaN(got) || math.IsInf(got, 0))
		})
	}
}

func TestCleanNumberRoundTrip(t *testing.T) {
	inputs := []string{"0.99", "99%", "1,234", "50M", "0.5M", "$100", "-3.25", "0", "123456789.125", "1e-7"}
	for _, in := range inputs {
		first := CleanNumber(in)
		assert.Equal(t, first, CleanNumber(FormatNumber(first)), in)
	}
}

func TestRescalePercent(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.5, 50},
		{1, 100},
		{0.25, 25},
		{1.5, 1.5},
		{99, 99},
		{100, 100},
		{0, 0},
		{-0.5, -0.5},
		{250, 250},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, RescalePercent(tt.in), 1e-9, "rescale %v", tt.in)
	}
}

func TestCleanPercent(t *testing.T) {
	assert.InDelta(t, 98.0, CleanPercent("0.98"), 1e-9)
	assert.InDelta(t, 98.0, CleanPercent("98%"), 1e-9)
	assert.Equal(t, 0.0, CleanPercent("N/A"))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 89.09, Round(980.0/1100.0*100, 2))
	assert.Equal(t, 2.35, Round(2.345, 2))
	assert.Equal(t, -2.35, Round(-2.345, 2))
	assert.Equal(t, 15000.0, Round(14999.5, 0))
	assert.Equal(t, 0.0, Round(math.NaN(), 2))
	assert.Equal(t, 0.0, Round(math.Inf(-1), 2))
}

func TestParseCPM(t *testing.T) {
	assert.Equal(t, 1500.0, ParseCPM("", 1500))
	assert.Equal(t, 1500.0, ParseCPM("   ", 1500))
	assert.Equal(t, 2000.0, ParseCPM("2,000", 1500))
	assert.Equal(t, 800.0, ParseCPM("¥800", 1500))
	assert.Equal(t, 0.0, ParseCPM("abc", 1500))
	assert.Equal(t, 0.0, ParseCPM("-5", 1500))
}
