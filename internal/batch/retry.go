package batch

import (
	"context"
	"math"
	"math/rand"
	"time"

	"mediacrate/internal/model"
)

const (
	basicBackoffBase       = 0.35
	basicBackoffCapSecs    = 2.5
	basicBackoffJitterSecs = 0.20

	aggressiveBackoffBase       = 0.60
	aggressiveBackoffCapSecs    = 8.0
	aggressiveBackoffJitterSecs = 0.45

	aggressiveRetryFloor = 5
)

// RetryLimit resolves the per-job retry ceiling: off disables retries no
// matter the count, aggressive guarantees at least five.
func RetryLimit(retryCount int, profile model.RetryProfile) int {
	if retryCount < 0 {
		retryCount = 0
	}
	switch model.NormalizeRetryProfile(string(profile)) {
	case model.RetryOff:
		return 0
	case model.RetryAggressive:
		if retryCount < aggressiveRetryFloor {
			return aggressiveRetryFloor
		}
		return retryCount
	default:
		return retryCount
	}
}

// Backoff returns the wait before retry attempt attemptIndex (1-based):
// capped exponential growth plus a small random jitter so parallel retries
// do not hammer a host in lockstep.
func Backoff(attemptIndex int, profile model.RetryProfile) time.Duration {
	if attemptIndex < 1 {
		attemptIndex = 1
	}
	var base, ceiling, jitter float64
	switch model.NormalizeRetryProfile(string(profile)) {
	case model.RetryOff:
		return 0
	case model.RetryAggressive:
		base, ceiling, jitter = aggressiveBackoffBase, aggressiveBackoffCapSecs, aggressiveBackoffJitterSecs
	default:
		base, ceiling, jitter = basicBackoffBase, basicBackoffCapSecs, basicBackoffJitterSecs
	}
	delay := math.Min(ceiling, base*math.Pow(2, float64(attemptIndex-1)))
	delay += rand.Float64() * jitter
	return time.Duration(delay * float64(time.Second))
}

// waitRetryWindow sleeps out a backoff delay but wakes early on any control
// change. It returns the interrupt state if the job was paused, stopped, or
// the batch cancelled while waiting; ok=false means the delay elapsed and
// the retry may proceed.
func (c *controls) waitRetryWindow(ctx context.Context, jobID string, delay time.Duration) (model.State, bool) {
	deadline := time.Now().Add(delay)
	for {
		// take the signal channel before the state check so a change
		// landing in between still wakes this waiter
		changed := c.signal()
		if state, ok := c.interruptState(ctx, jobID); ok {
			return state, ok
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", false
		}
		wait := remaining
		if wait > 500*time.Millisecond {
			wait = 500 * time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-changed:
		case <-ctx.Done():
		case <-timer.C:
		}
		timer.Stop()
	}
}
