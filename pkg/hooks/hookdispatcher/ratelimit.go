package hookdispatcher

import "time"

// rateLimiter is a token bucket that resets to full every 60 seconds
// rather than refilling gradually — this matches dispatcher.rs's
// RateLimiter exactly (see SPEC_FULL.md §4.9 and DESIGN.md's Open
// Question decisions), not the gradual-refill bucket a reader might
// otherwise expect.
type rateLimiter struct {
	tokens     uint32
	maxTokens  uint32
	lastRefill time.Time
}

func newRateLimiter(maxTokens uint32) *rateLimiter {
	return &rateLimiter{tokens: maxTokens, maxTokens: maxTokens, lastRefill: time.Now()}
}

func (r *rateLimiter) tryConsume() bool {
	r.refill()
	if r.tokens > 0 {
		r.tokens--
		return true
	}
	return false
}

func (r *rateLimiter) refill() {
	if time.Since(r.lastRefill) >= 60*time.Second {
		r.tokens = r.maxTokens
		r.lastRefill = time.Now()
	}
}
