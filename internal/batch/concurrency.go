package batch

// EffectiveConcurrency picks the worker count for a batch. When adaptive
// sizing is on, large batches are throttled so a single host is not hit by
// a dozen simultaneous downloads, and a bandwidth cap forces near-serial
// transfers since parallelism under a shared rate limit only adds
// contention.
func EffectiveConcurrency(requested, jobCount, speedLimitKBps int, adaptive bool) int {
	clamped := requested
	if clamped < 1 {
		clamped = 1
	}
	if !adaptive || jobCount <= 1 {
		return min(clamped, max(1, jobCount))
	}
	if speedLimitKBps > 0 {
		return min(clamped, 2, jobCount)
	}
	if jobCount >= 24 {
		return min(clamped, 6)
	}
	if jobCount >= 12 {
		return min(clamped, 5)
	}
	return min(clamped, jobCount)
}
