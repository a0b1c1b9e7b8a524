package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsFirstCall(t *testing.T) {
	r := NewRateLimiter(time.Hour)
	assert.True(t, r.Allow())
}

func TestRateLimiterBlocksWithinInterval(t *testing.T) {
	r := NewRateLimiter(time.Hour)
	require := assert.New(t)
	require.True(r.Allow())
	require.False(r.Allow())
}

func TestRateLimiterAllowsAfterIntervalElapses(t *testing.T) {
	r := NewRateLimiter(10 * time.Millisecond)
	assert.True(t, r.Allow())
	time.Sleep(20 * time.Millisecond)
	assert.True(t, r.Allow())
}
