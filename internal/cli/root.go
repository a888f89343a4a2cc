// Package cli wires the commands: argument parsing, settings resolution,
// and the interactive monitor sit here, delegating the actual work to the
// batch service.
package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "run":
		return runBatch(args[1:])
	case "monitor":
		return runMonitor(args[1:])
	case "settings":
		return runSettings(args[1:])
	case "history":
		return runHistory(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("mediacrate: batch media downloader built on yt-dlp")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  mediacrate doctor")
	fmt.Println("  mediacrate run <url> [<url>...]")
	fmt.Println("  mediacrate monitor --urls-file links.txt")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run       download a batch of URLs and print the summary")
	fmt.Println("  monitor   interactive batch runner with pause/resume/stop per job")
	fmt.Println("  settings  show/update persisted defaults")
	fmt.Println("  history   show or clear the download history")
	fmt.Println("  doctor    check yt-dlp and ffmpeg availability")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - Settings-file values can be overridden per run with flags")
	fmt.Println("    or MEDIACRATE_* environment variables")
}
