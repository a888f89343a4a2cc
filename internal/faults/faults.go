// Package faults classifies and sanitizes downloader error text. The
// orchestrator treats it as a pure-function collaborator: text in,
// category/retryability/clean message out.
package faults

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Category buckets a failure for retry policy and user hints.
type Category string

const (
	CategoryRateLimit      Category = "rate_limit"
	CategoryNetwork        Category = "network"
	CategoryAuthentication Category = "authentication"
	CategoryGeoRestricted  Category = "geo_restricted"
	CategoryUnsupported    Category = "unsupported"
	CategoryFilesystem     Category = "filesystem"
	CategoryDependency     Category = "dependency"
	CategoryUnknown        Category = "unknown"
)

// Pattern order matters: the first matching category wins, and rate limiting
// is checked before the broader network bucket.
var errorPatterns = []struct {
	category  Category
	retryable bool
	tokens    []string
}{
	{CategoryRateLimit, true, []string{
		"429", "too many requests", "rate limit", "try again later",
	}},
	{CategoryNetwork, true, []string{
		"timeout", "timed out", "connection reset", "connection aborted",
		"connection refused", "network is unreachable", "name resolution",
		"dns", "temporarily unavailable", "service unavailable", "temporary",
	}},
	{CategoryAuthentication, false, []string{
		"sign in", "login", "private", "members-only", "cookie",
	}},
	{CategoryGeoRestricted, false, []string{
		"not available in your country", "geo",
	}},
	{CategoryUnsupported, false, []string{
		"unsupported url", "unsupported", "extractor error", "unable to extract",
	}},
	{CategoryFilesystem, false, []string{
		"permission denied", "access is denied", "no space left", "disk full",
		"read-only file system",
	}},
	{CategoryDependency, false, []string{
		"ffmpeg", "yt-dlp executable was not found", "executable file not found",
	}},
}

var failureHints = map[Category]string{
	CategoryRateLimit:      "The site is rate-limiting requests. Wait a bit or lower concurrency.",
	CategoryNetwork:        "Network issue detected. Retry later or lower concurrency/speed.",
	CategoryAuthentication: "This URL likely requires login/cookies. Public URLs work best.",
	CategoryGeoRestricted:  "This content may be region restricted.",
	CategoryUnsupported:    "Extractor could not handle this URL yet. Try updating yt-dlp.",
	CategoryFilesystem:     "Download folder issue. Check write permissions and free space.",
	CategoryDependency:     "A dependency is missing. Install yt-dlp/ffmpeg and retry.",
}

// Classify maps error text to a category and whether a retry may help.
// Only rate_limit and network failures are retryable.
func Classify(message string) (Category, bool) {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return CategoryUnknown, false
	}
	for _, p := range errorPatterns {
		for _, token := range p.tokens {
			if strings.Contains(text, token) {
				return p.category, p.retryable
			}
		}
	}
	return CategoryUnknown, false
}

// Retryable reports whether the error text classifies into a retryable
// category.
func Retryable(message string) bool {
	_, retryable := Classify(message)
	return retryable
}

// Hint returns an actionable one-liner for a failure category.
func Hint(category Category) string {
	if hint, ok := failureHints[category]; ok {
		return hint
	}
	return "Unknown failure. Retry and check the URL/source."
}

var (
	ansiEscapePattern  = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`)
	controlCharPattern = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	blankRunPattern    = regexp.MustCompile(`\n{3,}`)
)

// Sanitize strips ANSI escapes and control characters from downloader
// output so it is safe to log and display.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}
	clean := ansiEscapePattern.ReplaceAllString(text, "")
	clean = controlCharPattern.ReplaceAllString(clean, "")
	clean = strings.ReplaceAll(clean, "\r", "\n")
	clean = blankRunPattern.ReplaceAllString(clean, "\n\n")
	return strings.TrimSpace(clean)
}

const classifiedMessageCap = 280

// FormatClassified renders "CATEGORY: message" with the message flattened to
// one line and capped for display.
func FormatClassified(message string) string {
	raw := strings.TrimSpace(message)
	category, _ := Classify(raw)
	short := strings.ReplaceAll(raw, "\r", " ")
	short = strings.ReplaceAll(short, "\n", " ")
	if utf8.RuneCountInString(short) > classifiedMessageCap {
		short = string([]rune(short)[:classifiedMessageCap-1]) + "..."
	}
	upper := strings.ToUpper(string(category))
	if short == "" {
		return upper
	}
	return fmt.Sprintf("%s: %s", upper, short)
}

// Truncate caps error text carried in results. The cap counts runes so a
// multibyte character is never split into invalid UTF-8.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

var formatUnavailableTokens = []string{
	"requested format is not available",
	"requested format not available",
	"format not available",
	"no such format",
}

// FriendlyFormatError rewrites "format unavailable" downloader errors into a
// hint naming the selected format and quality; other messages pass through
// sanitized.
func FriendlyFormatError(formatChoice, qualityChoice, message string) string {
	clean := Sanitize(message)
	lowered := strings.ToLower(clean)
	matched := false
	for _, token := range formatUnavailableTokens {
		if strings.Contains(lowered, token) {
			matched = true
			break
		}
	}
	if !matched {
		return clean
	}
	format := strings.ToUpper(strings.TrimSpace(formatChoice))
	if format == "" {
		format = "VIDEO"
	}
	quality := strings.ToUpper(strings.TrimSpace(qualityChoice))
	suffix := ""
	if quality != "" && quality != "BEST" && quality != "BEST QUALITY" {
		suffix = fmt.Sprintf(" at %s", quality)
	}
	return fmt.Sprintf(
		"Selected format %s%s is not available for this URL. Try BEST QUALITY, VIDEO/MP4, or another container.",
		format, suffix,
	)
}
