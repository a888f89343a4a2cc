package cli

import (
	"flag"
	"fmt"

	"mediacrate/internal/ytdlp"
)

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	report := ytdlp.NewClient().DependencyStatus()
	if *jsonOut {
		return printJSON(report)
	}

	printCheck("yt-dlp", report.YTDLPFound, report.YTDLPPath,
		"install yt-dlp or set "+ytdlp.BinaryEnv)
	printCheck("ffmpeg", report.FFmpegFound, report.FFmpegPath,
		"needed only for MP3 and container conversions")

	if !report.YTDLPFound {
		return fmt.Errorf("yt-dlp is required")
	}
	return nil
}

func printCheck(name string, found bool, path, hint string) {
	if found {
		fmt.Printf("ok    %-7s %s\n", name, path)
		return
	}
	fmt.Printf("MISS  %-7s (%s)\n", name, hint)
}
