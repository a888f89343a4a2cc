package batch

import (
	"context"
	"strings"
	"sync"

	"mediacrate/internal/model"
)

// controls is the shared pause/resume/stop plane. It outlives any single
// batch so the UI can flip a job's state while a worker is mid-attempt.
//
// changed acts as a broadcast: it is closed and replaced under mu on every
// control change, so waiters can select on the old channel with a deadline.
type controls struct {
	mu      sync.Mutex
	changed chan struct{}
	paused  map[string]bool
	stopped map[string]bool
	kills   map[string]func()
}

func newControls() *controls {
	return &controls{
		changed: make(chan struct{}),
		paused:  map[string]bool{},
		stopped: map[string]bool{},
		kills:   map[string]func(){},
	}
}

func controlKey(jobID string) string {
	return strings.TrimSpace(jobID)
}

// signal returns the channel that closes on the next control change.
// Grab it BEFORE re-checking state so a change between the check and the
// wait is never lost.
func (c *controls) signal() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changed
}

func (c *controls) notify() {
	c.mu.Lock()
	close(c.changed)
	c.changed = make(chan struct{})
	c.mu.Unlock()
}

func (c *controls) pause(jobID string) {
	key := controlKey(jobID)
	if key == "" {
		return
	}
	c.mu.Lock()
	c.paused[key] = true
	kill := c.kills[key]
	c.mu.Unlock()
	if kill != nil {
		kill()
	}
	c.notify()
}

func (c *controls) resume(jobID string) {
	key := controlKey(jobID)
	if key == "" {
		return
	}
	c.mu.Lock()
	delete(c.paused, key)
	c.mu.Unlock()
	c.notify()
}

func (c *controls) stop(jobID string) {
	key := controlKey(jobID)
	if key == "" {
		return
	}
	c.mu.Lock()
	c.stopped[key] = true
	delete(c.paused, key)
	kill := c.kills[key]
	c.mu.Unlock()
	if kill != nil {
		kill()
	}
	c.notify()
}

// cancelAll kills every attached process and wipes per-job flags. The
// caller cancels the batch context separately; cleared flags keep the job
// ids reusable in the next batch.
func (c *controls) cancelAll() {
	c.mu.Lock()
	running := make([]func(), 0, len(c.kills))
	for _, kill := range c.kills {
		running = append(running, kill)
	}
	c.kills = map[string]func(){}
	c.paused = map[string]bool{}
	c.stopped = map[string]bool{}
	c.mu.Unlock()
	for _, kill := range running {
		kill()
	}
	c.notify()
}

func (c *controls) isPaused(jobID string) bool {
	key := controlKey(jobID)
	if key == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused[key]
}

func (c *controls) isStopped(jobID string) bool {
	key := controlKey(jobID)
	if key == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped[key]
}

func (c *controls) attach(jobID string, kill func()) {
	key := controlKey(jobID)
	if key == "" || kill == nil {
		return
	}
	c.mu.Lock()
	c.kills[key] = kill
	c.mu.Unlock()
}

func (c *controls) detach(jobID string) {
	key := controlKey(jobID)
	if key == "" {
		return
	}
	c.mu.Lock()
	delete(c.kills, key)
	c.mu.Unlock()
}

// clearFlags drops stale pause/stop marks for job ids about to run, so a
// stop from a previous batch cannot leak into this one.
func (c *controls) clearFlags(jobIDs []string) {
	c.mu.Lock()
	for _, id := range jobIDs {
		key := controlKey(id)
		delete(c.paused, key)
		delete(c.stopped, key)
	}
	c.mu.Unlock()
}

// interruptState resolves a job's interrupt: a stop or batch cancellation
// wins over a pause, and ok=false means the job should keep running.
func (c *controls) interruptState(ctx context.Context, jobID string) (model.State, bool) {
	if ctx.Err() != nil || c.isStopped(jobID) {
		return model.StateCancelled, true
	}
	if c.isPaused(jobID) {
		return model.StatePaused, true
	}
	return "", false
}
