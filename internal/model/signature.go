package model

import "strings"

const (
	FormatVideo = "VIDEO"
	FormatAudio = "AUDIO"
	FormatMP4   = "MP4"
	FormatMP3   = "MP3"

	QualityBest = "BEST QUALITY"
)

var audioOnlyFormatChoices = map[string]bool{
	FormatAudio: true,
	FormatMP3:   true,
	"AAC":       true,
	"AIFF":      true,
	"ALAC":      true,
	"AMR":       true,
	"AIF":       true,
	"FLAC":      true,
	"M4A":       true,
	"MP2":       true,
	"OGA":       true,
	"OGG":       true,
	"OPUS":      true,
	"WAV":       true,
	"WMA":       true,
}

// IsAudioFormatChoice reports whether the chosen format is audio-only, in
// which case the quality choice is irrelevant.
func IsAudioFormatChoice(value string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if normalized == "" {
		return false
	}
	return audioOnlyFormatChoices[normalized]
}

// Signature identifies a download request for duplicate detection: two jobs
// with the same signature would produce the same file.
type Signature struct {
	URL     string
	Format  string
	Quality string
}

// BuildSignature normalizes URL, format, and quality into a Signature.
// Audio-only formats collapse quality to best, since height selection does
// not apply to them.
func BuildSignature(urlNormalized, urlRaw, formatChoice, qualityChoice string) Signature {
	normalizedURL := strings.TrimSpace(urlNormalized)
	if normalizedURL == "" {
		normalizedURL = NormalizeBatchURL(strings.TrimSpace(urlRaw))
	}
	format := strings.ToUpper(strings.TrimSpace(formatChoice))
	if format == "" {
		format = FormatVideo
	}
	quality := strings.ToUpper(strings.TrimSpace(qualityChoice))
	if IsAudioFormatChoice(format) || quality == "" {
		quality = QualityBest
	}
	return Signature{URL: normalizedURL, Format: format, Quality: quality}
}
