// Package batch coordinates concurrent download jobs: a bounded worker
// pool draining an unbounded queue, per-job pause/resume/stop, retry with
// interruptible backoff, and ordered summary assembly.
package batch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"mediacrate/internal/faults"
	"mediacrate/internal/model"
	"mediacrate/internal/ytdlp"
)

// Runner executes one download attempt. *ytdlp.Client satisfies it; tests
// substitute fakes.
type Runner interface {
	RunAttempt(ctx context.Context, job model.Job, opts ytdlp.AttemptOptions) model.Result
}

// Service runs batches and exposes the control plane. The control state
// outlives individual batches so pause/stop flags set between runs are
// cleared when their job ids reappear.
type Service struct {
	runner Runner
	log    *zap.Logger
	ctrl   *controls

	mu     sync.Mutex
	active *batchState
}

func New(runner Runner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		runner: runner,
		log:    logger,
		ctrl:   newControls(),
	}
}

// batchState is the per-run bookkeeping shared by the workers.
type batchState struct {
	opts       Options
	maxRetries int
	workers    int
	queue      *jobQueue
	cancel     context.CancelFunc

	mu        sync.Mutex
	accepting bool
	pending   int
	order     []string
	jobs      map[string]model.Job
	results   map[string]model.Result
	retried   int
}

func (bs *batchState) storeResult(jobID string, result model.Result) {
	bs.mu.Lock()
	bs.results[jobID] = result
	bs.mu.Unlock()
}

// PauseJob suspends a job: its running process is killed and the job goes
// back to the queue until resumed.
func (s *Service) PauseJob(jobID string) {
	s.ctrl.pause(jobID)
}

// ResumeJob lifts a pause; the job is picked up again by the next free
// worker.
func (s *Service) ResumeJob(jobID string) {
	s.ctrl.resume(jobID)
}

// StopJob cancels a single job permanently for this batch.
func (s *Service) StopJob(jobID string) {
	s.ctrl.stop(jobID)
}

// CancelAll aborts the active batch: every running process is killed and
// all unfinished jobs resolve as cancelled.
func (s *Service) CancelAll() {
	s.mu.Lock()
	bs := s.active
	s.mu.Unlock()
	if bs != nil && bs.cancel != nil {
		bs.cancel()
	}
	s.ctrl.cancelAll()
}

// EnqueueJob adds a job to the running batch. It reports false when no
// batch is active, the batch is already winding down, or the job is
// malformed or a duplicate.
func (s *Service) EnqueueJob(job model.Job) bool {
	key := strings.TrimSpace(job.JobID)
	if key == "" || strings.TrimSpace(job.URL) == "" {
		return false
	}
	s.mu.Lock()
	bs := s.active
	s.mu.Unlock()
	if bs == nil {
		return false
	}
	bs.mu.Lock()
	if !bs.accepting {
		bs.mu.Unlock()
		return false
	}
	if _, exists := bs.jobs[key]; exists {
		bs.mu.Unlock()
		return false
	}
	bs.pending++
	bs.jobs[key] = job
	bs.order = append(bs.order, key)
	bs.mu.Unlock()

	s.ctrl.clearFlags([]string{key})
	bs.queue.push(queueItem{job: job})
	bs.opts.emitStatus(key, model.StateQueued)
	s.ctrl.notify()
	return true
}

// Run executes the batch and blocks until every job reaches a terminal
// state. The returned summary always has one result per job, in input
// order, with dynamically enqueued jobs appended in arrival order.
func (s *Service) Run(ctx context.Context, jobs []model.Job, opts Options) (summary model.Summary) {
	if len(jobs) == 0 {
		return model.Summary{Results: []model.Result{}}
	}

	defer func() {
		if r := recover(); r != nil {
			reason := faults.Sanitize(fmt.Sprintf("batch failed: %v", r))
			s.log.Error("batch aborted", zap.String("reason", reason))
			opts.emitLog("ERROR: " + reason)
			summary = allFailedSummary(jobs, reason)
		}
	}()

	jobIDs := make([]string, 0, len(jobs))
	for _, job := range jobs {
		if key := strings.TrimSpace(job.JobID); key != "" {
			jobIDs = append(jobIDs, key)
		}
	}
	s.ctrl.clearFlags(jobIDs)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := max(1, min(opts.Concurrency, len(jobs)))
	profile := model.NormalizeRetryProfile(string(opts.RetryProfile))
	bs := &batchState{
		opts:       opts,
		maxRetries: RetryLimit(opts.RetryCount, profile),
		workers:    workers,
		queue:      newJobQueue(),
		cancel:     cancel,
		accepting:  true,
		pending:    len(jobs),
		jobs:       map[string]model.Job{},
		results:    map[string]model.Result{},
	}
	bs.opts.RetryProfile = profile
	for _, job := range jobs {
		key := strings.TrimSpace(job.JobID)
		bs.order = append(bs.order, key)
		if key != "" {
			bs.jobs[key] = job
		}
		bs.queue.push(queueItem{job: job})
		opts.emitStatus(job.JobID, model.StateQueued)
	}

	s.mu.Lock()
	s.active = bs
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.active == bs {
			s.active = nil
		}
		s.mu.Unlock()
		s.ctrl.clearFlags(jobIDs)
	}()

	s.log.Info("batch started",
		zap.Int("jobs", len(jobs)),
		zap.Int("workers", workers),
		zap.Int("max_retries", bs.maxRetries),
		zap.String("retry_profile", string(profile)),
	)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			s.workerLoop(runCtx, bs)
		}()
	}
	wg.Wait()

	summary = s.buildSummary(runCtx, bs)
	s.log.Info("batch finished",
		zap.Int("total", summary.Total),
		zap.Int("completed", summary.Completed),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("cancelled", summary.Cancelled),
		zap.Int("retried", summary.Retried),
	)
	return summary
}

func (s *Service) workerLoop(ctx context.Context, bs *batchState) {
	for {
		item := bs.queue.pop()
		if item.stop {
			return
		}
		s.processJob(ctx, bs, item.job)
	}
}

// processJob drives one queue item to completion or a pause requeue. A
// panic inside an attempt fails that job only; the worker keeps serving
// the queue.
func (s *Service) processJob(ctx context.Context, bs *batchState, job model.Job) {
	result := model.Result{JobID: job.JobID, URL: job.URL, State: model.StateError}
	countAsComplete := true
	func() {
		defer func() {
			if r := recover(); r != nil {
				msg := faults.Sanitize(fmt.Sprintf("%v", r))
				result = model.Result{
					JobID: job.JobID,
					URL:   job.URL,
					State: model.StateError,
					Error: msg,
				}
				countAsComplete = true
				s.log.Error("worker recovered from panic",
					zap.String("job_id", job.JobID),
					zap.String("error", msg),
				)
				bs.opts.emitLog(fmt.Sprintf("[%s] ERROR: %s", job.JobID, msg))
			}
		}()
		var retried int
		result, countAsComplete, retried = s.runWithRetries(ctx, bs, job)
		if retried > 0 {
			bs.mu.Lock()
			bs.retried += retried
			bs.mu.Unlock()
		}
	}()

	s.completeJob(bs, countAsComplete)

	if !countAsComplete {
		// the job went back on the queue paused; wait briefly for a
		// control change so a lone paused job does not spin the pool
		changed := s.ctrl.signal()
		timer := time.NewTimer(500 * time.Millisecond)
		select {
		case <-changed:
		case <-ctx.Done():
		case <-timer.C:
		}
		timer.Stop()
		return
	}

	bs.storeResult(strings.TrimSpace(job.JobID), result)
	bs.opts.emitStatus(job.JobID, model.NormalizeState(string(result.State)))
}

// completeJob decrements the pending counter and, when it hits zero,
// closes intake and publishes exactly one stop sentinel per worker. The
// decrement and the accepting flip share one critical section so an
// enqueue cannot slip in after the count reaches zero.
func (s *Service) completeJob(bs *batchState, countAsComplete bool) {
	if !countAsComplete {
		return
	}
	drained := false
	bs.mu.Lock()
	if bs.pending > 0 {
		bs.pending--
		if bs.pending == 0 {
			bs.accepting = false
			drained = true
		}
	}
	bs.mu.Unlock()
	if drained {
		for i := 0; i < bs.workers; i++ {
			bs.queue.push(queueItem{stop: true})
		}
		s.ctrl.notify()
	}
}

// runWithRetries runs a job through its attempts. The bool result reports
// whether the job finished (true) or was requeued paused (false); the int
// is how many retry waits were fully served.
func (s *Service) runWithRetries(ctx context.Context, bs *batchState, job model.Job) (model.Result, bool, int) {
	attempt := 0
	retried := 0
	for {
		if state, ok := s.ctrl.interruptState(ctx, job.JobID); ok {
			if state == model.StatePaused {
				return s.requeuePaused(bs, job), false, retried
			}
			return cancelledResult(job), true, retried
		}

		bs.opts.emitStatus(job.JobID, model.StateDownloading)
		result := s.runner.RunAttempt(ctx, job, s.attemptOptions(ctx, bs, job))

		if result.State == model.StatePaused {
			return s.requeuePaused(bs, job), false, retried
		}

		shouldRetry := ctx.Err() == nil &&
			!s.ctrl.isStopped(job.JobID) &&
			result.State == model.StateError &&
			faults.Retryable(result.Error) &&
			attempt < bs.maxRetries
		if !shouldRetry {
			if result.State == model.StateError && result.Error != "" {
				category, _ := faults.Classify(result.Error)
				bs.opts.emitLog(fmt.Sprintf("[%s] %s", job.JobID, faults.FormatClassified(result.Error)))
				bs.opts.emitLog(fmt.Sprintf("[%s] hint: %s", job.JobID, faults.Hint(category)))
			}
			return result, true, retried
		}

		attempt++
		bs.opts.emitStatus(job.JobID, model.StateRetrying)
		delay := Backoff(attempt, bs.opts.RetryProfile)
		bs.opts.emitLog(fmt.Sprintf("[%s] retry %d/%d in %.2fs", job.JobID, attempt, bs.maxRetries, delay.Seconds()))
		if state, ok := s.ctrl.waitRetryWindow(ctx, job.JobID, delay); ok {
			if state == model.StatePaused {
				return s.requeuePaused(bs, job), false, retried
			}
			return cancelledResult(job), true, retried
		}
		// only a fully served wait counts as a retry
		retried++
	}
}

func (s *Service) requeuePaused(bs *batchState, job model.Job) model.Result {
	bs.opts.emitStatus(job.JobID, model.StatePaused)
	bs.queue.push(queueItem{job: job})
	return model.Result{JobID: job.JobID, URL: job.URL, State: model.StatePaused}
}

func cancelledResult(job model.Job) model.Result {
	return model.Result{JobID: job.JobID, URL: job.URL, State: model.StateCancelled}
}

func (s *Service) attemptOptions(ctx context.Context, bs *batchState, job model.Job) ytdlp.AttemptOptions {
	jobID := job.JobID
	return ytdlp.AttemptOptions{
		SkipExisting:     bs.opts.SkipExisting,
		FilenameTemplate: bs.opts.FilenameTemplate,
		ConflictPolicy:   bs.opts.ConflictPolicy,
		SpeedLimitKBps:   bs.opts.SpeedLimitKBps,
		Progress: func(percent float64, message string) {
			bs.opts.emitProgress(jobID, percent, message)
		},
		Log: func(message string) {
			bs.opts.emitLog(fmt.Sprintf("[%s] %s", jobID, message))
		},
		Controls: ytdlp.AttemptControls{
			Interrupt: func() (model.State, bool) {
				return s.ctrl.interruptState(ctx, jobID)
			},
			Attach: func(kill func()) { s.ctrl.attach(jobID, kill) },
			Detach: func() { s.ctrl.detach(jobID) },
		},
	}
}

// buildSummary assembles results in job order, synthesizing a terminal
// result for any job that never produced one.
func (s *Service) buildSummary(ctx context.Context, bs *batchState) model.Summary {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	results := make([]model.Result, 0, len(bs.order))
	seen := map[string]bool{}
	for _, id := range bs.order {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if r, ok := bs.results[id]; ok {
			results = append(results, r)
			continue
		}
		job := bs.jobs[id]
		state := model.StateError
		errText := "Internal error: result missing for job."
		if ctx.Err() != nil || s.ctrl.isStopped(id) {
			state = model.StateCancelled
			errText = ""
		}
		results = append(results, model.Result{
			JobID: id,
			URL:   job.URL,
			State: state,
			Error: errText,
		})
	}
	for id, r := range bs.results {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		results = append(results, r)
	}

	summary := model.Summary{
		Total:   len(results),
		Retried: bs.retried,
		Results: results,
	}
	for _, r := range results {
		switch r.State {
		case model.StateDone:
			summary.Completed++
		case model.StateSkipped:
			summary.Skipped++
		case model.StateCancelled:
			summary.Cancelled++
		case model.StateError:
			summary.Failed++
		}
	}
	return summary
}

// allFailedSummary is the terminal answer when the batch itself could not
// run: every job fails with the same reason so nothing is left dangling.
func allFailedSummary(jobs []model.Job, reason string) model.Summary {
	results := make([]model.Result, 0, len(jobs))
	for _, job := range jobs {
		results = append(results, model.Result{
			JobID: job.JobID,
			URL:   job.URL,
			State: model.StateError,
			Error: reason,
		})
	}
	return model.Summary{
		Total:   len(results),
		Failed:  len(results),
		Results: results,
	}
}
