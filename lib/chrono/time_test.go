package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManualTime(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := NewManualTime(start)
	require.Equal(t, start, clock.Now())

	clock.Advance(48 * time.Hour)
	require.Equal(t, start.Add(48*time.Hour), clock.Now())

	clock.Set(start)
	require.Equal(t, start, clock.Now())
}
