package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	sep1 := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		cell string
		want time.Time
	}{
		{"iso", "2025-09-01", sep1},
		{"compact", "20250901", sep1},
		{"serial", "45901", sep1},
		{"serial with fraction", "45901.5", sep1},
		{"padded", "  2025-09-01  ", sep1},
		{"empty", "", time.Time{}},
		{"blank", "   ", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.cell)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, cell := range []string{"yesterday", "2025/09/01", "0931x"} {
		_, err := ParseDate(cell)
		assert.Error(t, err, "cell %q", cell)
	}
}

func TestFromSerial(t *testing.T) {
	assert.Equal(t, time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC), FromSerial(1))
	assert.Equal(t, time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), FromSerial(45901))
}
