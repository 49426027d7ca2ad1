package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightLbs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *int
	}{
		{"stone and pounds", "8-13", intPtr(125)},
		{"stone only", "9-0", intPtr(126)},
		{"ten stone", "10-7", intPtr(147)},
		{"plain pounds", "140", intPtr(140)},
		{"empty", "", nil},
		{"garbage", "heavy", nil},
		{"pounds out of range", "8-14", nil},
		{"negative stone", "-8-3", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WeightLbs(tt.input))
		})
	}
}

func TestFurlongs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *float64
	}{
		{"furlongs only", "7f", floatPtr(7)},
		{"miles and furlongs", "2m4f", floatPtr(20)},
		{"miles only", "1m", floatPtr(8)},
		{"half furlong", "7½f", floatPtr(7.5)},
		{"mile with half furlong", "1m2½f", floatPtr(10.5)},
		{"empty", "", nil},
		{"not a distance", "about a mile", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Furlongs(tt.input)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.expected, *got, 0.001)
		})
	}
}

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *int
	}{
		{"plain metres", "2414", intPtr(2414)},
		{"seven furlongs", "7f", intPtr(1408)},
		{"two miles", "2m", intPtr(3219)},
		{"zero", "0", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DistanceMeters(tt.input))
		})
	}
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		expectAmount string
		expectCode   *string
	}{
		{"sterling with separator", "£5,900", "5900", strPtr("GBP")},
		{"euro", "€4,690", "4690", strPtr("EUR")},
		{"dollar", "$12000", "12000", strPtr("USD")},
		{"bare number", "7500.50", "7500.5", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, code := Currency(tt.input)
			require.NotNil(t, amount)
			assert.Equal(t, tt.expectAmount, amount.String())
			assert.Equal(t, tt.expectCode, code)
		})
	}

	t.Run("empty", func(t *testing.T) {
		amount, code := Currency("")
		assert.Nil(t, amount)
		assert.Nil(t, code)
	})

	t.Run("symbol without amount", func(t *testing.T) {
		amount, code := Currency("£")
		assert.Nil(t, amount)
		assert.Nil(t, code)
	})
}

func TestDate(t *testing.T) {
	got := Date("2024-03-15")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *got)

	assert.Nil(t, Date(""))
	assert.Nil(t, Date("15th of March"))
}

func TestDateTime(t *testing.T) {
	got := DateTime("2024-03-15T14:30:00Z")
	require.NotNil(t, got)
	assert.Equal(t, 14, got.Hour())

	got = DateTime("2024-03-15T14:30:00")
	require.NotNil(t, got)
	assert.Equal(t, 30, got.Minute())

	assert.Nil(t, DateTime("half two"))
}

func TestStr(t *testing.T) {
	assert.Nil(t, Str(""))
	assert.Nil(t, Str("   "))
	got := Str(" Newmarket ")
	require.NotNil(t, got)
	assert.Equal(t, "Newmarket", *got)
}

func TestDecimal(t *testing.T) {
	got := Decimal("3.50")
	require.NotNil(t, got)
	assert.Equal(t, "3.5", got.String())

	assert.Nil(t, Decimal("-"))
	assert.Nil(t, Decimal("evens"))
}

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }
