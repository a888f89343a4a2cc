package model

import (
	"regexp"
	"strings"
)

// DefaultFilenameTemplate is the yt-dlp output template applied when the
// configured one is empty or unsafe.
const DefaultFilenameTemplate = "%(title).130B [%(id)s].%(ext)s"

var driveLetterPattern = regexp.MustCompile(`^[A-Za-z]:/`)

// SanitizeFilenameTemplate rejects templates that would escape the output
// directory (absolute paths, drive letters, parent segments) and falls back
// to the default.
func SanitizeFilenameTemplate(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return DefaultFilenameTemplate
	}
	normalized := strings.ReplaceAll(text, "\\", "/")
	if strings.HasPrefix(normalized, "/") {
		return DefaultFilenameTemplate
	}
	if driveLetterPattern.MatchString(normalized) {
		return DefaultFilenameTemplate
	}
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return DefaultFilenameTemplate
		}
	}
	return text
}
