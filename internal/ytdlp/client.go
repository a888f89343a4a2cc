// Package ytdlp drives the yt-dlp binary for single download attempts. It
// resolves format/quality/template choices into argument vectors, streams
// the tool's output line by line, and terminates the process tree promptly
// when an attempt is interrupted.
package ytdlp

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// BinaryEnv overrides yt-dlp binary discovery, for bundled deployments
// where the tool is shipped next to the app rather than on PATH.
const BinaryEnv = "MEDIACRATE_YTDLP_BINARY"

// Client runs yt-dlp download attempts.
type Client struct {
	// Binary forces a specific yt-dlp path; empty means discover via
	// BinaryEnv, then PATH.
	Binary string
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) resolveBinary() (string, error) {
	if strings.TrimSpace(c.Binary) != "" {
		return c.Binary, nil
	}
	if explicit := strings.TrimSpace(os.Getenv(BinaryEnv)); explicit != "" {
		candidate, err := filepath.Abs(explicit)
		if err == nil {
			if _, statErr := os.Stat(candidate); statErr == nil {
				return candidate, nil
			}
		}
	}
	path, err := exec.LookPath("yt-dlp")
	if err != nil {
		return "", fmt.Errorf("yt-dlp executable was not found: install yt-dlp or set %s", BinaryEnv)
	}
	return path, nil
}

func resolveFFmpeg() string {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return ""
	}
	return path
}

type DependencyReport struct {
	YTDLPFound  bool   `json:"yt_dlp_found"`
	YTDLPPath   string `json:"yt_dlp_path,omitempty"`
	FFmpegFound bool   `json:"ffmpeg_found"`
	FFmpegPath  string `json:"ffmpeg_path,omitempty"`
}

func (c *Client) DependencyStatus() DependencyReport {
	report := DependencyReport{}
	if path, err := c.resolveBinary(); err == nil {
		report.YTDLPFound = true
		report.YTDLPPath = path
	}
	if path := resolveFFmpeg(); path != "" {
		report.FFmpegFound = true
		report.FFmpegPath = path
	}
	return report
}

// CheckDependencies fails fast when yt-dlp is missing. ffmpeg absence is a
// warning-level condition: only conversion formats require it, and
// BuildCommand rejects those per job.
func (c *Client) CheckDependencies() error {
	report := c.DependencyStatus()
	if !report.YTDLPFound {
		return fmt.Errorf("missing dependency: yt-dlp is not installed or not on PATH")
	}
	return nil
}
