package cli

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"mediacrate/internal/config"
)

func runSettings(args []string) error {
	if len(args) == 0 {
		printSettingsUsage()
		return nil
	}
	switch args[0] {
	case "show":
		return runSettingsShow(args[1:])
	case "set":
		return runSettingsSet(args[1:])
	case "help", "-h", "--help":
		printSettingsUsage()
		return nil
	default:
		printSettingsUsage()
		return fmt.Errorf("unknown settings subcommand %q", args[0])
	}
}

func printSettingsUsage() {
	fmt.Println("settings show [--config <path>] [--json]")
	fmt.Println("settings set  [--config <path>] key=value [key=value ...]")
	fmt.Println()
	fmt.Println("Keys:")
	fmt.Println("  download_dir       download directory")
	fmt.Printf("  concurrency        parallel downloads (%d-%d)\n", config.ConcurrencyMin, config.ConcurrencyMax)
	fmt.Println("  adaptive           adapt concurrency to batch size (true/false)")
	fmt.Printf("  retry_count        retries per job (%d-%d)\n", config.RetryCountMin, config.RetryCountMax)
	fmt.Println("  retry_profile      off, basic, aggressive")
	fmt.Println("  skip_existing      skip already-downloaded files (true/false)")
	fmt.Println("  filename_template  yt-dlp output template (relative, no ..)")
	fmt.Println("  conflict_policy    skip, rename, overwrite")
	fmt.Printf("  speed_limit_kbps   0 (unlimited) to %d\n", config.SpeedLimitKBpsMax)
	fmt.Println("  disable_history    true/false")
}

func runSettingsShow(args []string) error {
	fs := flag.NewFlagSet("settings show", flag.ContinueOnError)
	configPath := fs.String("config", "", "settings file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(settings)
	}
	fmt.Printf("download_dir: %s\n", settings.DownloadDir)
	fmt.Printf("concurrency: %d\n", settings.Concurrency)
	fmt.Printf("adaptive: %v\n", settings.AdaptiveConcurrency)
	fmt.Printf("retry_count: %d\n", settings.RetryCount)
	fmt.Printf("retry_profile: %s\n", settings.RetryProfile)
	fmt.Printf("skip_existing: %v\n", settings.SkipExisting)
	fmt.Printf("filename_template: %s\n", settings.FilenameTemplate)
	fmt.Printf("conflict_policy: %s\n", settings.ConflictPolicy)
	fmt.Printf("speed_limit_kbps: %d\n", settings.SpeedLimitKBps)
	fmt.Printf("disable_history: %v\n", settings.DisableHistory)
	return nil
}

func runSettingsSet(args []string) error {
	fs := flag.NewFlagSet("settings set", flag.ContinueOnError)
	configPath := fs.String("config", "", "settings file path")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	pairs := fs.Args()
	if len(pairs) == 0 {
		return fmt.Errorf("settings set requires key=value arguments")
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid assignment %q, want key=value", pair)
		}
		if err := applySetting(&settings, strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return err
		}
	}
	if err := config.Save(*configPath, settings); err != nil {
		return err
	}
	fmt.Println("settings saved")
	return nil
}

func applySetting(settings *config.Settings, key, value string) error {
	switch key {
	case "download_dir":
		settings.DownloadDir = value
	case "concurrency":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("concurrency: %q is not a number", value)
		}
		settings.Concurrency = n
	case "adaptive":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("adaptive: %q is not a boolean", value)
		}
		settings.AdaptiveConcurrency = b
	case "retry_count":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("retry_count: %q is not a number", value)
		}
		settings.RetryCount = n
	case "retry_profile":
		settings.RetryProfile = value
	case "skip_existing":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("skip_existing: %q is not a boolean", value)
		}
		settings.SkipExisting = b
	case "filename_template":
		settings.FilenameTemplate = value
	case "conflict_policy":
		settings.ConflictPolicy = value
	case "speed_limit_kbps":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("speed_limit_kbps: %q is not a number", value)
		}
		settings.SpeedLimitKBps = n
	case "disable_history":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("disable_history: %q is not a boolean", value)
		}
		settings.DisableHistory = b
	default:
		return fmt.Errorf("unknown settings key %q", key)
	}
	return nil
}
