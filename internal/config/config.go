// Package config loads, normalizes, and persists the tool's settings.
// Precedence is defaults, then the JSON settings file, then environment
// variables (a .env file in the working directory is honored).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"mediacrate/internal/model"
	"mediacrate/internal/store"
)

const (
	SchemaVersion = 10

	ConcurrencyMin = 1
	ConcurrencyMax = 16

	RetryCountMin = 0
	RetryCountMax = 3

	SpeedLimitKBpsMin = 0
	SpeedLimitKBpsMax = 100000

	// Older settings files used this value to mean "unlimited".
	legacyUnlimitedSpeedKBps = 50000
)

const envPrefix = "MEDIACRATE_"

// Settings is the persisted configuration document.
type Settings struct {
	SchemaVersion       int    `json:"schema_version"`
	DownloadDir         string `json:"download_dir"`
	Concurrency         int    `json:"batch_concurrency"`
	AdaptiveConcurrency bool   `json:"adaptive_batch_concurrency"`
	RetryCount          int    `json:"batch_retry_count"`
	RetryProfile        string `json:"retry_profile"`
	SkipExisting        bool   `json:"skip_existing_files"`
	FilenameTemplate    string `json:"filename_template"`
	ConflictPolicy      string `json:"conflict_policy"`
	SpeedLimitKBps      int    `json:"download_speed_limit_kbps"`
	DisableHistory      bool   `json:"disable_history"`
}

func Default() Settings {
	return Settings{
		SchemaVersion:       SchemaVersion,
		DownloadDir:         defaultDownloadDir(),
		Concurrency:         4,
		AdaptiveConcurrency: true,
		RetryCount:          0,
		RetryProfile:        string(model.RetryBasic),
		SkipExisting:        true,
		FilenameTemplate:    model.DefaultFilenameTemplate,
		ConflictPolicy:      model.ConflictSkip,
		SpeedLimitKBps:      0,
		DisableHistory:      false,
	}
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", "downloads")
	}
	return filepath.Join(home, "Downloads", "MediaCrate")
}

// DefaultPath is where settings live unless the caller overrides it.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return filepath.Join(".", "mediacrate", "config.json")
	}
	return filepath.Join(base, "mediacrate", "config.json")
}

// DefaultHistoryPath sits next to the settings file.
func DefaultHistoryPath() string {
	return filepath.Join(filepath.Dir(DefaultPath()), "history.json")
}

func clampInt(value, minimum, maximum int) int {
	if value < minimum {
		return minimum
	}
	if value > maximum {
		return maximum
	}
	return value
}

// Normalize clamps every field into its valid range and replaces malformed
// values with defaults. The input's schema version decides whether legacy
// migrations apply.
func Normalize(s Settings) Settings {
	defaults := Default()
	out := s
	if strings.TrimSpace(out.DownloadDir) == "" {
		out.DownloadDir = defaults.DownloadDir
	}
	out.Concurrency = clampInt(out.Concurrency, ConcurrencyMin, ConcurrencyMax)
	out.RetryCount = clampInt(out.RetryCount, RetryCountMin, RetryCountMax)
	out.RetryProfile = string(model.NormalizeRetryProfile(out.RetryProfile))
	out.FilenameTemplate = model.SanitizeFilenameTemplate(out.FilenameTemplate)
	out.ConflictPolicy = model.NormalizeConflictPolicy(out.ConflictPolicy)
	out.SpeedLimitKBps = clampInt(out.SpeedLimitKBps, SpeedLimitKBpsMin, SpeedLimitKBpsMax)
	if out.SchemaVersion < SchemaVersion && out.SpeedLimitKBps == legacyUnlimitedSpeedKBps {
		out.SpeedLimitKBps = 0
	}
	out.SchemaVersion = SchemaVersion
	return out
}

// Load reads settings from path, layering environment overrides on top.
// A missing file yields defaults rather than an error.
func Load(path string) (Settings, error) {
	_ = godotenv.Load()

	settings := Default()
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		loaded := Settings{}
		if err := store.ReadJSON(path, &loaded); err != nil {
			return Settings{}, fmt.Errorf("load settings: %w", err)
		}
		settings = loaded
	}
	settings = applyEnv(settings)
	return Normalize(settings), nil
}

// Save persists normalized settings atomically.
func Save(path string, s Settings) error {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	return store.WriteJSON(path, Normalize(s))
}

func envString(key string) (string, bool) {
	value, ok := os.LookupEnv(envPrefix + key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func envInt(key string) (int, bool) {
	raw, ok := envString(key)
	if !ok {
		return 0, false
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func envBool(key string) (bool, bool) {
	raw, ok := envString(key)
	if !ok {
		return false, false
	}
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}

func applyEnv(s Settings) Settings {
	if v, ok := envString("DOWNLOAD_DIR"); ok {
		s.DownloadDir = v
	}
	if v, ok := envInt("CONCURRENCY"); ok {
		s.Concurrency = v
	}
	if v, ok := envBool("ADAPTIVE_CONCURRENCY"); ok {
		s.AdaptiveConcurrency = v
	}
	if v, ok := envInt("RETRY_COUNT"); ok {
		s.RetryCount = v
	}
	if v, ok := envString("RETRY_PROFILE"); ok {
		s.RetryProfile = v
	}
	if v, ok := envBool("SKIP_EXISTING"); ok {
		s.SkipExisting = v
	}
	if v, ok := envString("FILENAME_TEMPLATE"); ok {
		s.FilenameTemplate = v
	}
	if v, ok := envString("CONFLICT_POLICY"); ok {
		s.ConflictPolicy = v
	}
	if v, ok := envInt("SPEED_LIMIT_KBPS"); ok {
		s.SpeedLimitKBps = v
	}
	if v, ok := envBool("DISABLE_HISTORY"); ok {
		s.DisableHistory = v
	}
	return s
}
