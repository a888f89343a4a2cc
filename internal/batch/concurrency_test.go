package batch

import "testing"

func TestEffectiveConcurrency(t *testing.T) {
	cases := []struct {
		name      string
		requested int
		jobs      int
		speedKBps int
		adaptive  bool
		want      int
	}{
		{"non-adaptive clamps to job count", 8, 3, 0, false, 3},
		{"non-adaptive keeps request below jobs", 2, 10, 0, false, 2},
		{"zero request becomes one", 0, 5, 0, true, 1},
		{"single job is always serial", 8, 1, 0, true, 1},
		{"empty batch floors at one", 4, 0, 0, false, 1},
		{"speed limit forces near-serial", 8, 10, 500, true, 2},
		{"speed limit still bounded by jobs", 8, 1, 500, true, 1},
		{"huge batch capped at six", 16, 30, 0, true, 6},
		{"large batch capped at five", 16, 12, 0, true, 5},
		{"mid batch uses job count", 16, 8, 0, true, 8},
		{"mid batch keeps smaller request", 3, 8, 0, true, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EffectiveConcurrency(tc.requested, tc.jobs, tc.speedKBps, tc.adaptive)
			if got != tc.want {
				t.Fatalf("EffectiveConcurrency(%d, %d, %d, %v) = %d, want %d",
					tc.requested, tc.jobs, tc.speedKBps, tc.adaptive, got, tc.want)
			}
		})
	}
}
