package cli

import (
	"os"
	"path/filepath"
	"testing"

	"mediacrate/internal/config"
)

func TestReadURLLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.txt")
	contents := `# queue for tonight
https://example.com/a

  https://example.com/b
# trailing comment
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	urls, err := readURLLines(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 2 || urls[0] != "https://example.com/a" || urls[1] != "https://example.com/b" {
		t.Fatalf("urls = %v", urls)
	}
}

func TestCollectJobsDedupesAndRejects(t *testing.T) {
	f := newRunFlags("run")
	if err := f.fs.Parse([]string{
		"https://example.com/watch?v=abc",
		"https://EXAMPLE.com/watch?v=abc&utm_source=feed",
		"example.com/watch?v=abc",
		"https://example.com/watch?v=xyz",
		"not a url at all",
	}); err != nil {
		t.Fatal(err)
	}
	settings := config.Default()
	jobs, rejected, err := f.collectJobs(settings, f.fs.Args())
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Fatalf("jobs = %d, want 2 after dedupe (got %+v)", len(jobs), jobs)
	}
	if len(rejected) != 1 {
		t.Fatalf("rejected = %v, want one invalid URL", rejected)
	}
	seen := map[string]bool{}
	for _, job := range jobs {
		if job.JobID == "" || seen[job.JobID] {
			t.Fatalf("job ids must be unique and non-empty: %+v", jobs)
		}
		seen[job.JobID] = true
		if job.OutputDir != settings.DownloadDir {
			t.Fatalf("job output dir = %q, want settings dir %q", job.OutputDir, settings.DownloadDir)
		}
	}
}

func TestCollectJobsSameURLDifferentFormatIsKept(t *testing.T) {
	video := newRunFlags("run")
	if err := video.fs.Parse([]string{"--format", "VIDEO", "https://example.com/v"}); err != nil {
		t.Fatal(err)
	}
	audio := newRunFlags("run")
	if err := audio.fs.Parse([]string{"--format", "MP3", "https://example.com/v"}); err != nil {
		t.Fatal(err)
	}
	settings := config.Default()
	vjobs, _, err := video.collectJobs(settings, video.fs.Args())
	if err != nil {
		t.Fatal(err)
	}
	ajobs, _, err := audio.collectJobs(settings, audio.fs.Args())
	if err != nil {
		t.Fatal(err)
	}
	if len(vjobs) != 1 || len(ajobs) != 1 {
		t.Fatalf("each run should keep its job: video=%d audio=%d", len(vjobs), len(ajobs))
	}
	if vjobs[0].FormatChoice == ajobs[0].FormatChoice {
		t.Fatal("format choice should differ between the two runs")
	}
}

func TestResolveFlagOverridesSettings(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	base := config.Default()
	base.Concurrency = 2
	base.RetryCount = 0
	if err := config.Save(configPath, base); err != nil {
		t.Fatal(err)
	}

	f := newRunFlags("run")
	if err := f.fs.Parse([]string{
		"--config", configPath,
		"--concurrency", "6",
		"--retry-count", "3",
		"--retry-profile", "aggressive",
		"--speed-limit", "500",
		"https://example.com/v",
	}); err != nil {
		t.Fatal(err)
	}
	settings, err := f.resolve()
	if err != nil {
		t.Fatal(err)
	}
	if settings.Concurrency != 6 {
		t.Fatalf("concurrency = %d, want flag override 6", settings.Concurrency)
	}
	if settings.RetryCount != 3 {
		t.Fatalf("retry count = %d, want 3", settings.RetryCount)
	}
	if settings.RetryProfile != "aggressive" {
		t.Fatalf("retry profile = %q", settings.RetryProfile)
	}
	if settings.SpeedLimitKBps != 500 {
		t.Fatalf("speed limit = %d, want 500", settings.SpeedLimitKBps)
	}
}

func TestResolveKeepsSettingsWithoutFlags(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	base := config.Default()
	base.Concurrency = 5
	base.SkipExisting = false
	if err := config.Save(configPath, base); err != nil {
		t.Fatal(err)
	}
	f := newRunFlags("run")
	if err := f.fs.Parse([]string{"--config", configPath, "https://example.com/v"}); err != nil {
		t.Fatal(err)
	}
	settings, err := f.resolve()
	if err != nil {
		t.Fatal(err)
	}
	if settings.Concurrency != 5 {
		t.Fatalf("concurrency = %d, want persisted 5", settings.Concurrency)
	}
	if settings.SkipExisting {
		t.Fatal("skip existing should keep the persisted false")
	}
}

func TestApplySetting(t *testing.T) {
	settings := config.Default()
	cases := []struct {
		key, value string
		wantErr    bool
	}{
		{"concurrency", "8", false},
		{"concurrency", "lots", true},
		{"retry_profile", "aggressive", false},
		{"skip_existing", "false", false},
		{"skip_existing", "perhaps", true},
		{"speed_limit_kbps", "900", false},
		{"mystery_key", "1", true},
	}
	for _, tc := range cases {
		err := applySetting(&settings, tc.key, tc.value)
		if tc.wantErr && err == nil {
			t.Fatalf("applySetting(%q, %q) should fail", tc.key, tc.value)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("applySetting(%q, %q): %v", tc.key, tc.value, err)
		}
	}
	if settings.Concurrency != 8 || settings.RetryProfile != "aggressive" || settings.SkipExisting {
		t.Fatalf("settings not applied: %+v", settings)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("abcdefghijkl"); got != "abcdefgh" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("shortID = %q", got)
	}
}
