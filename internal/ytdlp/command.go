package ytdlp

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"mediacrate/internal/model"
)

// Containers yt-dlp can remux into when the source format differs.
var conversionContainerChoices = map[string]bool{
	"WEBM": true,
	"MKV":  true,
	"MOV":  true,
	"AVI":  true,
	"FLV":  true,
}

func qualityHeight(value string) int {
	cleaned := strings.ToLower(strings.TrimSpace(value))
	if cleaned == "" || cleaned == "best" || cleaned == "best quality" {
		return 0
	}
	cleaned = strings.TrimSuffix(cleaned, "p")
	height := 0
	if _, err := fmt.Sscanf(cleaned, "%d", &height); err != nil {
		return 0
	}
	return height
}

// selectFormat maps the caller's format/quality choice to a yt-dlp format
// selector plus any post-processing arguments the choice requires.
func selectFormat(formatChoice, qualityChoice string) (string, []string) {
	rawChoice := strings.TrimSpace(formatChoice)
	if rawChoice == "" {
		rawChoice = model.FormatVideo
	}
	choice := strings.ToUpper(rawChoice)
	height := qualityHeight(qualityChoice)
	heightSel := ""
	if height > 0 {
		heightSel = fmt.Sprintf("[height<=%d]", height)
	}

	switch {
	case choice == model.FormatAudio:
		return "bestaudio", nil
	case choice == model.FormatMP3:
		return "bestaudio", []string{"--extract-audio", "--audio-format", "mp3", "--audio-quality", "0"}
	case choice == model.FormatMP4:
		selector := fmt.Sprintf(
			"bestvideo[ext=mp4]%s+bestaudio[ext=m4a]/best[ext=mp4]%s/best%s",
			heightSel, heightSel, heightSel,
		)
		return selector, []string{"--merge-output-format", "mp4"}
	case conversionContainerChoices[choice]:
		selector := fmt.Sprintf("bestvideo%s+bestaudio/best%s/best", heightSel, heightSel)
		return selector, []string{"--merge-output-format", strings.ToLower(choice)}
	case choice != model.FormatVideo:
		ext := strings.ToLower(rawChoice)
		selector := fmt.Sprintf("bestvideo[ext=%s]%s+bestaudio/best[ext=%s]%s", ext, heightSel, ext, heightSel)
		return selector, nil
	default:
		selector := fmt.Sprintf("bestvideo%s+bestaudio/best%s/best", heightSel, heightSel)
		return selector, nil
	}
}

var extCleanPattern = regexp.MustCompile(`[^a-z0-9]+`)

// fixedOutputExtension returns the extension the chosen format guarantees,
// or "" when yt-dlp decides.
func fixedOutputExtension(formatChoice string) string {
	rawChoice := strings.TrimSpace(formatChoice)
	if rawChoice == "" {
		return ""
	}
	choice := strings.ToUpper(rawChoice)
	switch {
	case choice == model.FormatMP3:
		return "mp3"
	case choice == model.FormatMP4:
		return "mp4"
	case conversionContainerChoices[choice]:
		return strings.ToLower(choice)
	case choice == model.FormatVideo || choice == model.FormatAudio:
		return ""
	}
	return extCleanPattern.ReplaceAllString(strings.ToLower(rawChoice), "")
}

func withForcedExtension(template, extension string) string {
	tpl := strings.TrimSpace(template)
	ext := strings.ToLower(strings.TrimSpace(extension))
	if tpl == "" || ext == "" {
		return tpl
	}
	if strings.Contains(tpl, "%(ext)s") {
		return strings.ReplaceAll(tpl, "%(ext)s", ext)
	}
	suffix := "." + ext
	if strings.HasSuffix(strings.ToLower(tpl), suffix) {
		return tpl
	}
	return tpl + suffix
}

// CommandOptions tune one resolved yt-dlp invocation.
type CommandOptions struct {
	SkipExisting     bool
	FilenameTemplate string
	ConflictPolicy   string
	SpeedLimitKBps   int
}

// BuildCommand resolves a job plus runtime options into the argument vector
// for one yt-dlp invocation and the output template it will write to.
func (c *Client) BuildCommand(job model.Job, opts CommandOptions) ([]string, string, error) {
	binary, err := c.resolveBinary()
	if err != nil {
		return nil, "", err
	}

	selector, postArgs := selectFormat(job.FormatChoice, job.QualityChoice)
	outputTemplate := withForcedExtension(
		filepath.Join(job.OutputDir, model.SanitizeFilenameTemplate(opts.FilenameTemplate)),
		fixedOutputExtension(job.FormatChoice),
	)

	args := []string{
		binary,
		"--newline",
		"--no-playlist",
		"--no-warnings",
		"-f", selector,
		"-o", outputTemplate,
	}

	ffmpegPath := resolveFFmpeg()
	choice := strings.ToUpper(strings.TrimSpace(job.FormatChoice))
	if (choice == model.FormatMP3 || conversionContainerChoices[choice]) && ffmpegPath == "" {
		return nil, "", fmt.Errorf("ffmpeg is required for the selected format conversion: install ffmpeg and retry")
	}
	if ffmpegPath != "" {
		args = append(args, "--ffmpeg-location", ffmpegPath)
	}

	switch model.NormalizeConflictPolicy(opts.ConflictPolicy) {
	case model.ConflictSkip:
		args = append(args, "--no-overwrites")
	case model.ConflictOverwrite:
		args = append(args, "--force-overwrites")
	}
	if opts.SkipExisting {
		// skip-existing wins over an overwrite conflict policy
		filtered := args[:0]
		for _, a := range args {
			if a != "--force-overwrites" {
				filtered = append(filtered, a)
			}
		}
		args = filtered
		if !containsArg(args, "--no-overwrites") {
			args = append(args, "--no-overwrites")
		}
	}

	if opts.SpeedLimitKBps > 0 {
		args = append(args, "--limit-rate", fmt.Sprintf("%dK", opts.SpeedLimitKBps))
	}

	args = append(args, postArgs...)
	args = append(args, model.CoerceHTTPURL(job.URL))
	return args, outputTemplate, nil
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}
