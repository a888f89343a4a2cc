package batch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"mediacrate/internal/model"
)

func TestInterruptStateStopWinsOverPause(t *testing.T) {
	ctrl := newControls()
	ctrl.pause("j1")
	ctrl.stop("j1")
	state, ok := ctrl.interruptState(context.Background(), "j1")
	if !ok || state != model.StateCancelled {
		t.Fatalf("interrupt = (%q, %v), want cancelled", state, ok)
	}
}

func TestInterruptStatePause(t *testing.T) {
	ctrl := newControls()
	ctrl.pause("j1")
	state, ok := ctrl.interruptState(context.Background(), "j1")
	if !ok || state != model.StatePaused {
		t.Fatalf("interrupt = (%q, %v), want paused", state, ok)
	}
	ctrl.resume("j1")
	if _, ok := ctrl.interruptState(context.Background(), "j1"); ok {
		t.Fatal("resume should clear the interrupt")
	}
}

func TestInterruptStateCancelledContext(t *testing.T) {
	ctrl := newControls()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	state, ok := ctrl.interruptState(ctx, "j1")
	if !ok || state != model.StateCancelled {
		t.Fatalf("interrupt = (%q, %v), want cancelled on context cancel", state, ok)
	}
}

func TestStopDiscardsPauseFlag(t *testing.T) {
	ctrl := newControls()
	ctrl.pause("j1")
	ctrl.stop("j1")
	if ctrl.isPaused("j1") {
		t.Fatal("stop should discard the pause flag")
	}
	if !ctrl.isStopped("j1") {
		t.Fatal("stop flag missing")
	}
}

func TestPauseKillsAttachedProcess(t *testing.T) {
	ctrl := newControls()
	var killed atomic.Bool
	ctrl.attach("j1", func() { killed.Store(true) })
	ctrl.pause("j1")
	if !killed.Load() {
		t.Fatal("pause should kill the attached process")
	}
	ctrl.detach("j1")
	killed.Store(false)
	ctrl.stop("j1")
	if killed.Load() {
		t.Fatal("detached process must not be killed again")
	}
}

func TestCancelAllKillsAndClears(t *testing.T) {
	ctrl := newControls()
	var kills atomic.Int32
	ctrl.attach("j1", func() { kills.Add(1) })
	ctrl.attach("j2", func() { kills.Add(1) })
	ctrl.pause("j3")
	ctrl.stop("j4")
	kills.Store(0)
	ctrl.cancelAll()
	if kills.Load() != 2 {
		t.Fatalf("kills = %d, want both attached processes killed", kills.Load())
	}
	if ctrl.isPaused("j3") || ctrl.isStopped("j4") {
		t.Fatal("cancelAll should wipe per-job flags")
	}
}

func TestClearFlagsScopedToGivenIDs(t *testing.T) {
	ctrl := newControls()
	ctrl.stop("j1")
	ctrl.pause("j2")
	ctrl.stop("other")
	ctrl.clearFlags([]string{"j1", "j2"})
	if ctrl.isStopped("j1") || ctrl.isPaused("j2") {
		t.Fatal("flags for the given ids should be cleared")
	}
	if !ctrl.isStopped("other") {
		t.Fatal("flags for other ids must survive")
	}
}

func TestBlankJobIDIsIgnored(t *testing.T) {
	ctrl := newControls()
	ctrl.pause("  ")
	ctrl.stop("")
	if ctrl.isPaused("") || ctrl.isStopped("") {
		t.Fatal("blank ids must not register control flags")
	}
}

func TestWaitRetryWindowWakesOnPause(t *testing.T) {
	ctrl := newControls()
	done := make(chan struct{})
	var state model.State
	var interrupted bool
	go func() {
		state, interrupted = ctrl.waitRetryWindow(context.Background(), "j1", 30*time.Second)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	ctrl.pause("j1")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waitRetryWindow did not wake on the control change")
	}
	if !interrupted || state != model.StatePaused {
		t.Fatalf("wait = (%q, %v), want paused interrupt", state, interrupted)
	}
}

func TestWaitRetryWindowElapsesClean(t *testing.T) {
	ctrl := newControls()
	start := time.Now()
	state, interrupted := ctrl.waitRetryWindow(context.Background(), "j1", 80*time.Millisecond)
	if interrupted {
		t.Fatalf("unexpected interrupt %q", state)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Fatalf("window returned after %v, before the delay elapsed", elapsed)
	}
}
