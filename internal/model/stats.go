package model

// BatchStats is a point-in-time rollup of job states, used by live
// status consumers.
type BatchStats struct {
	Queued      int
	Downloading int
	Retrying    int
	Paused      int
	InProgress  int
	Done        int
	Skipped     int
	Failed      int
	Cancelled   int
}

func ComputeBatchStats(states []State) BatchStats {
	var stats BatchStats
	for _, s := range states {
		switch s {
		case StateQueued:
			stats.Queued++
		case StateDownloading:
			stats.Downloading++
		case StateRetrying:
			stats.Retrying++
		case StatePaused:
			stats.Paused++
		case StateDone:
			stats.Done++
		case StateSkipped:
			stats.Skipped++
		case StateError:
			stats.Failed++
		case StateCancelled:
			stats.Cancelled++
		}
	}
	stats.InProgress = stats.Queued + stats.Downloading + stats.Retrying + stats.Paused
	return stats
}
