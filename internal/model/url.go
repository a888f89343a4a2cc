package model

import (
	"net/url"
	"sort"
	"strings"
)

// Query keys that only carry referral/campaign tracking. Dropped during
// normalization so duplicate detection is not defeated by share links.
var trackingQueryKeys = map[string]bool{
	"feature":     true,
	"si":          true,
	"spm":         true,
	"source":      true,
	"fbclid":      true,
	"gclid":       true,
	"igshid":      true,
	"ref":         true,
	"ref_src":     true,
	"tracking_id": true,
	"trk":         true,
}

// CoerceHTTPURL upgrades scheme-less input ("example.com/v", "//host/v") to
// https when the result still looks like a host, and leaves everything else
// untouched.
func CoerceHTTPURL(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return value
	}
	if parsed.Scheme != "" {
		return value
	}

	candidate := "https://" + value
	if strings.HasPrefix(value, "//") {
		candidate = "https:" + value
	}
	reparsed, err := url.Parse(candidate)
	if err != nil {
		return value
	}
	host := strings.TrimSpace(reparsed.Host)
	if host == "" || strings.Contains(host, " ") || !strings.Contains(host, ".") {
		return value
	}
	return candidate
}

// ValidateURL reports whether the input is (or coerces to) an http(s) URL
// with a host.
func ValidateURL(raw string) bool {
	value := CoerceHTTPURL(raw)
	if value == "" {
		return false
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// NormalizeBatchURL produces the canonical form used for duplicate
// detection: lowercased scheme/host, trailing slash trimmed, tracking query
// keys dropped, remaining query pairs sorted, fragment removed.
func NormalizeBatchURL(raw string) string {
	value := CoerceHTTPURL(raw)
	if value == "" {
		return ""
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return value
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return value
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	if parsed.Path != "/" {
		parsed.Path = strings.TrimRight(parsed.Path, "/")
		if parsed.Path == "" {
			parsed.Path = "/"
		}
	}
	if parsed.Path == "" {
		parsed.Path = "/"
	}

	type pair struct{ key, value string }
	retained := make([]pair, 0, 4)
	for _, part := range strings.Split(parsed.RawQuery, "&") {
		if part == "" {
			continue
		}
		key, val, _ := strings.Cut(part, "=")
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			decodedKey = key
		}
		lowered := strings.ToLower(strings.TrimSpace(decodedKey))
		if strings.HasPrefix(lowered, "utm_") || trackingQueryKeys[lowered] {
			continue
		}
		retained = append(retained, pair{key: key, value: val})
	}
	sort.Slice(retained, func(i, j int) bool {
		if !strings.EqualFold(retained[i].key, retained[j].key) {
			return strings.ToLower(retained[i].key) < strings.ToLower(retained[j].key)
		}
		return retained[i].value < retained[j].value
	})
	parts := make([]string, 0, len(retained))
	for _, p := range retained {
		if p.value == "" && !strings.Contains(value, p.key+"=") {
			parts = append(parts, p.key)
			continue
		}
		parts = append(parts, p.key+"="+p.value)
	}
	parsed.RawQuery = strings.Join(parts, "&")
	parsed.Fragment = ""
	return parsed.String()
}
