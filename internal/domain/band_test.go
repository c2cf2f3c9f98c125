package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandTable_Match(t *testing.T) {
	table := BandTable{
		{Lower: 0, Upper: 10, Message: "low", Cooldown: time.Hour},
		{Lower: 10, Upper: 20, Message: "high", Cooldown: time.Hour},
		{Lower: 20, Upper: math.Inf(1), Message: "extreme", Cooldown: time.Minute},
	}

	tests := []struct {
		name    string
		value   float64
		message string
		matched bool
	}{
		{"inside first band", 7.5, "low", true},
		{"lower bound inclusive", 0, "low", true},
		{"upper bound exclusive", 10, "high", true},
		{"second band", 15, "high", true},
		{"open upper bound", 1e6, "extreme", true},
		{"below table", -3, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			band, ok := table.Match(tt.value)
			assert.Equal(t, tt.matched, ok)
			if tt.matched {
				assert.Equal(t, tt.message, band.Message)
			}
		})
	}
}

func TestBandTable_Match_FirstMatchWins(t *testing.T) {
	// Overlapping bands are resolved strictly by table order.
	table := BandTable{
		{Lower: 0, Upper: 20, Message: "first"},
		{Lower: 5, Upper: 15, Message: "shadowed"},
	}

	band, ok := table.Match(10)
	require.True(t, ok)
	assert.Equal(t, "first", band.Message)
}

func TestBandTable_Validate(t *testing.T) {
	tests := []struct {
		name    string
		table   BandTable
		wantErr string
	}{
		{"valid", BandTable{{Lower: 0, Upper: 10, Cooldown: time.Hour}}, ""},
		{"open upper bound", BandTable{{Lower: 40, Upper: math.Inf(1)}}, ""},
		{"empty table", BandTable{}, "no bands"},
		{"inverted range", BandTable{{Lower: 10, Upper: 5}}, "band 0"},
		{"equal bounds", BandTable{{Lower: 10, Upper: 10}}, "band 0"},
		{"negative cooldown", BandTable{{Lower: 0, Upper: 1, Cooldown: -time.Second}}, "cooldown"},
		{"NaN bound", BandTable{{Lower: math.NaN(), Upper: 10}}, "numeric"},
		{"second band bad", BandTable{{Lower: 0, Upper: 1}, {Lower: 3, Upper: 2}}, "band 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBandTable_Overlaps(t *testing.T) {
	t.Run("disjoint bands", func(t *testing.T) {
		table := BandTable{
			{Lower: 0, Upper: 10, Message: "low"},
			{Lower: 10, Upper: 20, Message: "high"},
		}
		assert.Empty(t, table.Overlaps())
	})

	t.Run("overlapping bands reported", func(t *testing.T) {
		table := BandTable{
			{Lower: 0, Upper: 15, Message: "low"},
			{Lower: 10, Upper: 20, Message: "high"},
		}
		warnings := table.Overlaps()
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], `"low"`)
		assert.Contains(t, warnings[0], `"high"`)
	})
}
