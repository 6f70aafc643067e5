package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClockIsFrozen(t *testing.T) {
	start := time.Date(2025, 8, 21, 12, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start, clock.Now(), "clock must not move on its own")
}

func TestManualClockAdvance(t *testing.T) {
	start := time.Date(2025, 8, 21, 12, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)

	clock.Advance(48 * time.Hour)

	assert.Equal(t, start.Add(48*time.Hour), clock.Now())
}

func TestManualClockSet(t *testing.T) {
	clock := NewManualClock(time.Date(2025, 8, 21, 12, 0, 0, 0, time.UTC))
	pinned := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	clock.Set(pinned)

	assert.Equal(t, pinned, clock.Now())
}
