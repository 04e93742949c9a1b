package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestFormatDuration verifies human-facing duration rendering:
// sub-second values in milliseconds, longer values rounded.
func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{0, "0ms"},
		{42 * time.Millisecond, "42ms"},
		{999 * time.Millisecond, "999ms"},
		{time.Second, "1s"},
		{1500 * time.Millisecond, "1.5s"},
		{2*time.Minute + 3*time.Second, "2m3s"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDuration(tt.d))
		})
	}
}
