package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2000-01-01", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)},
		{" 2000-01-01 ", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2000-01-01T10:30", time.Date(2000, 1, 1, 10, 30, 0, 0, time.UTC)},
		{"2000-01-01T10:30:15", time.Date(2000, 1, 1, 10, 30, 15, 0, time.UTC)},
		{"2000-01-01 10:30:15", time.Date(2000, 1, 1, 10, 30, 15, 0, time.UTC)},
		{"2000-01-01T10:30:00+02:00", time.Date(2000, 1, 1, 8, 30, 0, 0, time.UTC)},
		{"2000-01-01T10:30:00.5Z", time.Date(2000, 1, 1, 10, 30, 0, 500000000, time.UTC)},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %v", tt.in, got)
		assert.Equal(t, time.UTC, got.Location())
	}

	for _, bad := range []string{"", "last tuesday", "2000-13-01", "01/02/2000", "today"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseOperand(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 30, 0, 0, time.FixedZone("X", -2*3600))

	tests := map[string]time.Time{
		"today":      time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		"Yesterday":  time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		"tomorrow":   time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		"2000-02-01": time.Date(2000, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range tests {
		got, err := ParseOperand(in, now)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOperand("last tuesday", now)
	assert.Error(t, err)
}
