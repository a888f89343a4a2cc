package cli

import (
	"flag"
	"fmt"
	"strings"

	"mediacrate/internal/config"
	"mediacrate/internal/histstore"
)

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	path := fs.String("path", "", "history file path (default: next to the settings file)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	limit := fs.Int("limit", 25, "max entries to show (0 = all)")
	clear := fs.Bool("clear", false, "erase the history")
	yes := fs.Bool("yes", false, "skip the confirmation prompt for --clear")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	target := strings.TrimSpace(*path)
	if target == "" {
		target = config.DefaultHistoryPath()
	}
	hs := histstore.New(target)

	if *clear {
		if !*yes {
			ok, err := promptConfirm("erase the download history? [y/N] ")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("aborted")
				return nil
			}
		}
		if err := hs.Clear(); err != nil {
			return err
		}
		fmt.Println("history cleared")
		return nil
	}

	entries, err := hs.Load()
	if err != nil {
		return err
	}
	if *limit > 0 && len(entries) > *limit {
		entries = entries[:*limit]
	}
	if *jsonOut {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("history is empty")
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-10s %s", e.TimestampUTC, e.State, e.URL)
		if e.OutputPath != "" {
			line += " -> " + e.OutputPath
		}
		if e.Details != "" {
			line += " (" + e.Details + ")"
		}
		fmt.Println(line)
	}
	return nil
}
