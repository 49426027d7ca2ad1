package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePosition(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		status PositionStatus
		finish int
	}{
		{"plain number", "1", PositionFinished, 1},
		{"ordinal first", "1st", PositionFinished, 1},
		{"ordinal second", "2nd", PositionFinished, 2},
		{"ordinal third", "3rd", PositionFinished, 3},
		{"ordinal fourth", "4th", PositionFinished, 4},
		{"won keyword", "WON", PositionFinished, 1},
		{"lowercase won", "won", PositionFinished, 1},
		{"double digit", "12", PositionFinished, 12},
		{"fell", "F", PositionNonFinisher, 0},
		{"pulled up", "PU", PositionNonFinisher, 0},
		{"unseated", "UR", PositionNonFinisher, 0},
		{"brought down", "BD", PositionNonFinisher, 0},
		{"refused", "REF", PositionNonFinisher, 0},
		{"disqualified", "DSQ", PositionDisqualified, 0},
		{"void", "VOID", PositionDisqualified, 0},
		{"empty", "", PositionUnknown, 0},
		{"dash", "-", PositionUnknown, 0},
		{"zero", "0", PositionUnknown, 0},
		{"garbage", "???", PositionUnknown, 0},
		{"whitespace padded", "  3rd  ", PositionFinished, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := ParsePosition(tt.input)
			assert.Equal(t, tt.status, pos.Status)
			if tt.status == PositionFinished {
				assert.Equal(t, tt.finish, pos.Finish)
			}
		})
	}
}

func TestPositionCounting(t *testing.T) {
	t.Run("winner", func(t *testing.T) {
		pos := ParsePosition("1")
		assert.True(t, pos.CountsAsRun())
		assert.True(t, pos.Won())
		assert.True(t, pos.Placed())
	})

	t.Run("non-finisher counts as run but never places", func(t *testing.T) {
		pos := ParsePosition("PU")
		assert.True(t, pos.CountsAsRun())
		assert.False(t, pos.Won())
		assert.False(t, pos.Placed())
		assert.Nil(t, pos.FinishPtr())
	})

	t.Run("unknown does not count as run", func(t *testing.T) {
		pos := ParsePosition("")
		assert.False(t, pos.CountsAsRun())
	})

	t.Run("fourth does not place", func(t *testing.T) {
		pos := ParsePosition("4")
		assert.False(t, pos.Placed())
	})
}
