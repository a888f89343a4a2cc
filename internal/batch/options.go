package batch

import (
	"mediacrate/internal/model"
)

// ProgressFunc receives per-job progress updates, percent in [0,100].
type ProgressFunc func(jobID string, percent float64, message string)

// StatusFunc receives job lifecycle state changes.
type StatusFunc func(jobID string, state model.State)

// LogFunc receives human-readable log lines, already prefixed with the job
// id where one applies.
type LogFunc func(message string)

// Options configure one batch run. Callbacks are optional and may be
// invoked concurrently from worker goroutines.
type Options struct {
	Concurrency      int
	RetryCount       int
	RetryProfile     model.RetryProfile
	SkipExisting     bool
	FilenameTemplate string
	ConflictPolicy   string
	SpeedLimitKBps   int

	OnProgress ProgressFunc
	OnStatus   StatusFunc
	OnLog      LogFunc
}

func (o Options) emitProgress(jobID string, percent float64, message string) {
	if o.OnProgress != nil {
		o.OnProgress(jobID, percent, message)
	}
}

func (o Options) emitStatus(jobID string, state model.State) {
	if o.OnStatus != nil {
		o.OnStatus(jobID, state)
	}
}

func (o Options) emitLog(message string) {
	if o.OnLog != nil {
		o.OnLog(message)
	}
}
