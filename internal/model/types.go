package model

// Job is one requested media download. It is immutable once built: the
// queue owns it until dequeued, then the executing worker owns it for the
// duration of that attempt.
type Job struct {
	JobID         string `json:"job_id"`
	URL           string `json:"url"`
	FormatChoice  string `json:"format_choice"`
	QualityChoice string `json:"quality_choice"`
	OutputDir     string `json:"output_dir"`
}

// Result is the per-job outcome of a batch run.
type Result struct {
	JobID      string `json:"job_id"`
	URL        string `json:"url"`
	State      State  `json:"state"`
	OutputPath string `json:"output_path,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Summary aggregates one batch run. Results preserve input order.
type Summary struct {
	Total     int      `json:"total"`
	Completed int      `json:"completed"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Cancelled int      `json:"cancelled"`
	Retried   int      `json:"retried"`
	Results   []Result `json:"results"`
}

// RetryProfile selects the retry ceiling and backoff curve for a batch.
type RetryProfile string

const (
	RetryOff        RetryProfile = "off"
	RetryBasic      RetryProfile = "basic"
	RetryAggressive RetryProfile = "aggressive"
)

// NormalizeRetryProfile maps unknown values to the basic profile.
func NormalizeRetryProfile(raw string) RetryProfile {
	switch RetryProfile(normalizeToken(raw)) {
	case RetryOff:
		return RetryOff
	case RetryAggressive:
		return RetryAggressive
	default:
		return RetryBasic
	}
}

const (
	ConflictSkip      = "skip"
	ConflictRename    = "rename"
	ConflictOverwrite = "overwrite"
)

// NormalizeConflictPolicy maps unknown values to skip.
func NormalizeConflictPolicy(raw string) string {
	switch normalizeToken(raw) {
	case ConflictRename:
		return ConflictRename
	case ConflictOverwrite:
		return ConflictOverwrite
	default:
		return ConflictSkip
	}
}
