package ytdlp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"mediacrate/internal/faults"
	"mediacrate/internal/model"
)

var percentPattern = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)%`)

var importantLogTokens = []string{
	"error:",
	"warning:",
	"has already been downloaded",
}

// Lines that signal yt-dlp is past the raw transfer and merging/converting.
var postProcessingTokens = []string{
	"[merger]",
	"merging formats",
	"[extractaudio]",
	"extracting audio",
	"[ffmpeg]",
	"post-process",
	"post process",
	"fixup",
	"deleting original file",
}

// AttemptControls connects one attempt to the orchestrator's control plane.
// All fields are optional; nil checks sit on the hot path.
type AttemptControls struct {
	// Interrupt resolves the job's interrupt state: cancelled beats
	// paused, ok=false means keep going.
	Interrupt func() (model.State, bool)
	// Attach/Detach expose the running process so pause/stop can kill it
	// immediately instead of at the next progress tick.
	Attach func(kill func())
	Detach func()
}

// AttemptOptions carry per-batch settings plus the sinks for one attempt.
type AttemptOptions struct {
	SkipExisting     bool
	FilenameTemplate string
	ConflictPolicy   string
	SpeedLimitKBps   int

	Progress func(percent float64, message string)
	Log      func(message string)
	Controls AttemptControls
}

func (o AttemptOptions) interrupt() (model.State, bool) {
	if o.Controls.Interrupt == nil {
		return "", false
	}
	return o.Controls.Interrupt()
}

func (o AttemptOptions) progress(percent float64, message string) {
	if o.Progress != nil {
		o.Progress(percent, message)
	}
}

func (o AttemptOptions) log(message string) {
	if o.Log != nil {
		o.Log(message)
	}
}

// attemptScan accumulates what the output stream revealed about an attempt.
type attemptScan struct {
	mu                   sync.Mutex
	lastError            string
	outputPath           string
	sawAlreadyDownloaded bool
	postProcessingNotice bool
	interrupted          model.State
}

func (s *attemptScan) snapshot() (lastError, outputPath string, skipped bool, interrupted model.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError, s.outputPath, s.sawAlreadyDownloaded, s.interrupted
}

// RunAttempt executes exactly one download attempt for the job. Interrupt
// state is re-checked on every output line and at process exit; a pause or
// stop kills the process tree and reports the interrupt state rather than
// the resulting non-zero exit.
func (c *Client) RunAttempt(ctx context.Context, job model.Job, opts AttemptOptions) model.Result {
	if ctx.Err() != nil {
		return makeResult(job, model.StateCancelled, "", "")
	}
	if state, ok := opts.interrupt(); ok {
		return makeResult(job, state, "", "")
	}

	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		return makeResult(job, model.StateError, "", err.Error())
	}
	args, _, err := c.BuildCommand(job, CommandOptions{
		SkipExisting:     opts.SkipExisting,
		FilenameTemplate: opts.FilenameTemplate,
		ConflictPolicy:   opts.ConflictPolicy,
		SpeedLimitKBps:   opts.SpeedLimitKBps,
	})
	if err != nil {
		return makeResult(job, model.StateError, "", err.Error())
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.SysProcAttr = sysProcAttr()
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return makeResult(job, model.StateError, "", fmt.Sprintf("setup stdout pipe: %v", err))
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return makeResult(job, model.StateError, "", fmt.Sprintf("setup stderr pipe: %v", err))
	}
	if err := cmd.Start(); err != nil {
		return makeResult(job, model.StateError, "", fmt.Sprintf("start yt-dlp: %v", err))
	}

	kill := func() { terminateTree(cmd) }
	if opts.Controls.Attach != nil {
		opts.Controls.Attach(kill)
	}
	defer func() {
		if opts.Controls.Detach != nil {
			opts.Controls.Detach()
		}
	}()

	scan := &attemptScan{}
	var wg sync.WaitGroup
	wg.Add(2)
	go c.consumeStream(stdoutPipe, scan, opts, kill, &wg)
	go c.consumeStream(stderrPipe, scan, opts, kill, &wg)
	wg.Wait()

	waitErr := cmd.Wait()
	lastError, outputPath, skipped, interrupted := scan.snapshot()

	// an interrupt observed mid-stream decided this attempt and killed the
	// process; the non-zero exit that follows is not an error, and a resume
	// landing before the process finished dying must not override it
	if interrupted != "" {
		return makeResult(job, interrupted, outputPath, "")
	}
	if state, ok := opts.interrupt(); ok {
		return makeResult(job, state, outputPath, "")
	}

	if waitErr == nil {
		opts.progress(100, "Done")
		if skipped {
			return makeResult(job, model.StateSkipped, outputPath, "")
		}
		return makeResult(job, model.StateDone, outputPath, "")
	}

	message := lastError
	if message == "" {
		message = fmt.Sprintf("yt-dlp failed: %v", waitErr)
	}
	return makeResult(
		job,
		model.StateError,
		outputPath,
		faults.FriendlyFormatError(job.FormatChoice, job.QualityChoice, message),
	)
}

func (c *Client) consumeStream(r io.Reader, scan *attemptScan, opts AttemptOptions, kill func(), wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	scanner.Split(splitByNewlineOrCR)
	for scanner.Scan() {
		clean := faults.Sanitize(scanner.Text())
		if clean == "" {
			continue
		}

		if state, ok := opts.interrupt(); ok {
			scan.mu.Lock()
			if scan.interrupted == "" {
				scan.interrupted = state
				kill()
			}
			scan.mu.Unlock()
			continue // keep draining until the pipe closes
		}

		scan.mu.Lock()
		scan.lastError = clean
		lowered := strings.ToLower(clean)
		if strings.Contains(lowered, "has already been downloaded") {
			scan.sawAlreadyDownloaded = true
		}
		if path := parseOutputPath(clean); path != "" {
			scan.outputPath = path
		}
		notifyPostProcessing := false
		if !scan.postProcessingNotice && isPostProcessingLine(lowered) {
			scan.postProcessingNotice = true
			notifyPostProcessing = true
		}
		scan.mu.Unlock()

		if isImportantLogLine(lowered) {
			opts.log(clean)
		}
		if notifyPostProcessing {
			opts.progress(99, "Post-processing...")
		}
		if m := percentPattern.FindStringSubmatch(clean); m != nil {
			percent, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				percent = 0
			}
			opts.progress(clampPercent(percent), clean)
		}
	}
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 99 {
		return 99
	}
	return p
}

func parseOutputPath(line string) string {
	if _, after, ok := strings.Cut(line, "Destination:"); ok {
		return strings.TrimSpace(after)
	}
	if _, after, ok := strings.Cut(line, "Merging formats into"); ok {
		return strings.Trim(strings.TrimSpace(after), `"`)
	}
	return ""
}

func isImportantLogLine(lowered string) bool {
	for _, token := range importantLogTokens {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}

func isPostProcessingLine(lowered string) bool {
	for _, token := range postProcessingTokens {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}

// errTextCap bounds the error text carried in a result; full output is
// already streamed to the log sink.
const errTextCap = 500

func makeResult(job model.Job, state model.State, outputPath, errText string) model.Result {
	return model.Result{
		JobID:      job.JobID,
		URL:        job.URL,
		State:      state,
		OutputPath: outputPath,
		Error:      faults.Truncate(faults.Sanitize(errText), errTextCap),
	}
}

// yt-dlp rewrites progress lines with bare carriage returns; split on either
// terminator so progress is seen as it happens.
func splitByNewlineOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			if i == 0 {
				return 1, nil, nil
			}
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
