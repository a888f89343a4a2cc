package batch

import (
	"testing"
	"time"

	"mediacrate/internal/model"
)

func TestRetryLimit(t *testing.T) {
	cases := []struct {
		name    string
		count   int
		profile model.RetryProfile
		want    int
	}{
		{"off ignores count", 7, model.RetryOff, 0},
		{"basic uses count", 3, model.RetryBasic, 3},
		{"basic zero", 0, model.RetryBasic, 0},
		{"basic negative clamps", -2, model.RetryBasic, 0},
		{"aggressive floors at five", 2, model.RetryAggressive, 5},
		{"aggressive keeps larger count", 9, model.RetryAggressive, 9},
		{"unknown profile falls back to basic", 4, model.RetryProfile("weird"), 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RetryLimit(tc.count, tc.profile); got != tc.want {
				t.Fatalf("RetryLimit(%d, %q) = %d, want %d", tc.count, tc.profile, got, tc.want)
			}
		})
	}
}

func TestBackoffOffIsZero(t *testing.T) {
	for attempt := 1; attempt <= 5; attempt++ {
		if d := Backoff(attempt, model.RetryOff); d != 0 {
			t.Fatalf("Backoff(%d, off) = %v, want 0", attempt, d)
		}
	}
}

func TestBackoffBasicBounds(t *testing.T) {
	cases := []struct {
		attempt  int
		min, max time.Duration
	}{
		{1, 350 * time.Millisecond, 550 * time.Millisecond},
		{2, 700 * time.Millisecond, 900 * time.Millisecond},
		{3, 1400 * time.Millisecond, 1600 * time.Millisecond},
		// capped at 2.5s plus jitter from here on
		{4, 2500 * time.Millisecond, 2700 * time.Millisecond},
		{10, 2500 * time.Millisecond, 2700 * time.Millisecond},
	}
	for _, tc := range cases {
		for i := 0; i < 20; i++ {
			d := Backoff(tc.attempt, model.RetryBasic)
			if d < tc.min || d > tc.max {
				t.Fatalf("Backoff(%d, basic) = %v, want [%v, %v]", tc.attempt, d, tc.min, tc.max)
			}
		}
	}
}

func TestBackoffAggressiveBounds(t *testing.T) {
	cases := []struct {
		attempt  int
		min, max time.Duration
	}{
		{1, 600 * time.Millisecond, 1050 * time.Millisecond},
		{3, 2400 * time.Millisecond, 2850 * time.Millisecond},
		// capped at 8s plus jitter
		{5, 8000 * time.Millisecond, 8450 * time.Millisecond},
		{12, 8000 * time.Millisecond, 8450 * time.Millisecond},
	}
	for _, tc := range cases {
		for i := 0; i < 20; i++ {
			d := Backoff(tc.attempt, model.RetryAggressive)
			if d < tc.min || d > tc.max {
				t.Fatalf("Backoff(%d, aggressive) = %v, want [%v, %v]", tc.attempt, d, tc.min, tc.max)
			}
		}
	}
}

func TestBackoffInvalidAttemptTreatedAsFirst(t *testing.T) {
	for i := 0; i < 20; i++ {
		d := Backoff(0, model.RetryBasic)
		if d < 350*time.Millisecond || d > 550*time.Millisecond {
			t.Fatalf("Backoff(0, basic) = %v, want first-attempt range", d)
		}
	}
}
