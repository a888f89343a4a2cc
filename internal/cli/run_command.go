package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediacrate/internal/batch"
	"mediacrate/internal/config"
	"mediacrate/internal/histstore"
	"mediacrate/internal/model"
	"mediacrate/internal/ytdlp"
)

type runFlags struct {
	fs *flag.FlagSet

	configPath  string
	urlsFile    string
	outDir      string
	format      string
	quality     string
	concurrency int
	retryCount  int
	profile     string
	skip        bool
	conflict    string
	speedLimit  int
	adaptive    bool
	noHistory   bool
	jsonOut     bool
	verbose     bool
}

func newRunFlags(name string) *runFlags {
	f := &runFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	f.fs.StringVar(&f.configPath, "config", "", "settings file path (default: user config dir)")
	f.fs.StringVar(&f.urlsFile, "urls-file", "", "file with one URL per line (# comments allowed)")
	f.fs.StringVar(&f.outDir, "out", "", "download directory")
	f.fs.StringVar(&f.format, "format", "VIDEO", "format choice: VIDEO, AUDIO, MP4, MP3, MKV, WEBM, ...")
	f.fs.StringVar(&f.quality, "quality", "best", "quality cap, e.g. 1080p, 720p, best")
	f.fs.IntVar(&f.concurrency, "concurrency", 0, "parallel downloads (0 = settings value)")
	f.fs.IntVar(&f.retryCount, "retry-count", -1, "retries per job (-1 = settings value)")
	f.fs.StringVar(&f.profile, "retry-profile", "", "retry profile: off, basic, aggressive")
	f.fs.BoolVar(&f.skip, "skip-existing", true, "skip files that already exist")
	f.fs.StringVar(&f.conflict, "conflict", "", "conflict policy: skip, rename, overwrite")
	f.fs.IntVar(&f.speedLimit, "speed-limit", -1, "download speed limit in KB/s (-1 = settings value)")
	f.fs.BoolVar(&f.adaptive, "adaptive", true, "adapt concurrency to batch size")
	f.fs.BoolVar(&f.noHistory, "no-history", false, "do not record results in history")
	f.fs.BoolVar(&f.jsonOut, "json", false, "print the summary as JSON")
	f.fs.BoolVar(&f.verbose, "verbose", false, "log batch internals to stderr")
	f.fs.SetOutput(flag.CommandLine.Output())
	return f
}

// resolve layers explicitly provided flags over the persisted settings.
func (f *runFlags) resolve() (config.Settings, error) {
	settings, err := config.Load(f.configPath)
	if err != nil {
		return config.Settings{}, err
	}
	provided := map[string]bool{}
	f.fs.Visit(func(fl *flag.Flag) { provided[fl.Name] = true })

	if provided["out"] {
		settings.DownloadDir = f.outDir
	}
	if provided["concurrency"] {
		settings.Concurrency = f.concurrency
	}
	if provided["retry-count"] {
		settings.RetryCount = f.retryCount
	}
	if provided["retry-profile"] {
		settings.RetryProfile = f.profile
	}
	if provided["skip-existing"] {
		settings.SkipExisting = f.skip
	}
	if provided["conflict"] {
		settings.ConflictPolicy = f.conflict
	}
	if provided["speed-limit"] {
		settings.SpeedLimitKBps = f.speedLimit
	}
	if provided["adaptive"] {
		settings.AdaptiveConcurrency = f.adaptive
	}
	if provided["no-history"] && f.noHistory {
		settings.DisableHistory = true
	}
	return config.Normalize(settings), nil
}

// collectJobs validates and dedupes the raw URLs into jobs. Duplicate means
// same normalized URL with the same format/quality signature.
func (f *runFlags) collectJobs(settings config.Settings, args []string) ([]model.Job, []string, error) {
	raw := append([]string{}, args...)
	if strings.TrimSpace(f.urlsFile) != "" {
		fromFile, err := readURLLines(f.urlsFile)
		if err != nil {
			return nil, nil, err
		}
		raw = append(raw, fromFile...)
	}

	var jobs []model.Job
	var rejected []string
	seen := map[model.Signature]bool{}
	for _, candidate := range raw {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		coerced := model.CoerceHTTPURL(candidate)
		if !model.ValidateURL(coerced) {
			rejected = append(rejected, candidate)
			continue
		}
		sig := model.BuildSignature(model.NormalizeBatchURL(coerced), coerced, f.format, f.quality)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		jobs = append(jobs, model.Job{
			JobID:         uuid.NewString(),
			URL:           coerced,
			FormatChoice:  f.format,
			QualityChoice: f.quality,
			OutputDir:     settings.DownloadDir,
		})
	}
	return jobs, rejected, nil
}

func runBatch(args []string) error {
	f := newRunFlags("run")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	settings, err := f.resolve()
	if err != nil {
		return err
	}
	jobs, rejected, err := f.collectJobs(settings, f.fs.Args())
	if err != nil {
		return err
	}
	for _, bad := range rejected {
		fmt.Fprintf(os.Stderr, "skipping invalid URL: %s\n", bad)
	}
	if len(jobs) == 0 {
		return fmt.Errorf("no valid URLs given (pass URLs as arguments or via --urls-file)")
	}

	client := ytdlp.NewClient()
	if err := client.CheckDependencies(); err != nil {
		return err
	}

	logger := newLogger(f.verbose)
	defer func() { _ = logger.Sync() }()
	svc := batch.New(client, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := batch.Options{
		Concurrency: batch.EffectiveConcurrency(
			settings.Concurrency, len(jobs), settings.SpeedLimitKBps, settings.AdaptiveConcurrency,
		),
		RetryCount:       settings.RetryCount,
		RetryProfile:     model.RetryProfile(settings.RetryProfile),
		SkipExisting:     settings.SkipExisting,
		FilenameTemplate: settings.FilenameTemplate,
		ConflictPolicy:   settings.ConflictPolicy,
		SpeedLimitKBps:   settings.SpeedLimitKBps,
	}
	if !f.jsonOut {
		opts.OnStatus = func(jobID string, state model.State) {
			fmt.Printf("%-10s %s\n", state, shortID(jobID))
		}
		opts.OnLog = func(message string) {
			fmt.Println(message)
		}
	}

	summary := svc.Run(ctx, jobs, opts)

	if !settings.DisableHistory {
		recordHistory(config.DefaultHistoryPath(), summary)
	}

	if f.jsonOut {
		return printJSON(summary)
	}
	printSummary(summary)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", summary.Failed, summary.Total)
	}
	return nil
}

func shortID(jobID string) string {
	if len(jobID) > 8 {
		return jobID[:8]
	}
	return jobID
}

func printSummary(summary model.Summary) {
	fmt.Println()
	fmt.Printf("total: %d  completed: %d  skipped: %d  failed: %d  cancelled: %d  retried: %d\n",
		summary.Total, summary.Completed, summary.Skipped, summary.Failed, summary.Cancelled, summary.Retried)
	for _, r := range summary.Results {
		line := fmt.Sprintf("  %-10s %s", r.State, r.URL)
		if r.OutputPath != "" {
			line += " -> " + r.OutputPath
		}
		if r.Error != "" {
			line += " (" + r.Error + ")"
		}
		fmt.Println(line)
	}
}

func recordHistory(path string, summary model.Summary) {
	hs := histstore.New(path)
	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range summary.Results {
		if !r.State.Terminal() {
			continue
		}
		_ = hs.Append(histstore.Entry{
			TimestampUTC: now,
			URL:          r.URL,
			State:        string(r.State),
			OutputPath:   r.OutputPath,
			Details:      r.Error,
		})
	}
}
