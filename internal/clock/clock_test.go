package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/hubsession/internal/clock"
)

func TestRealNowKeepsMonotonicReading(t *testing.T) {
	now := clock.Real{}.Now()
	assert.WithinDuration(t, time.Now(), now, time.Second)
	assert.Contains(t, now.String(), "m=", "monotonic reading is stripped")

	// Round(0) drops the monotonic reading; the two must differ.
	assert.NotEqual(t, now.String(), now.Round(0).String())
}

func TestManualAdvance(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m := clock.NewManual(start)

	assert.Equal(t, start, m.Now())

	m.Advance(1500 * time.Millisecond)
	assert.Equal(t, start.Add(1500*time.Millisecond), m.Now())

	m.Advance(-time.Hour)
	assert.Equal(t, start.Add(1500*time.Millisecond), m.Now(), "negative advance is ignored")
}

func TestManualSet(t *testing.T) {
	m := clock.NewManual(time.Unix(0, 0))
	target := time.Unix(1700000000, 0)

	m.Set(target)
	assert.True(t, target.Equal(m.Now()))
}
