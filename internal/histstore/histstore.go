// Package histstore keeps the download history: newest first, capped, and
// rewritten atomically on every append.
package histstore

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"mediacrate/internal/store"
)

// MaxEntries caps the history so the file cannot grow without bound.
const MaxEntries = 200

type Entry struct {
	TimestampUTC string `json:"timestamp_utc"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	State        string `json:"state"`
	OutputPath   string `json:"output_path"`
	Details      string `json:"details,omitempty"`
}

// Store reads and writes one history file.
type Store struct {
	Path string
}

func New(path string) *Store {
	return &Store{Path: path}
}

// Load returns the stored entries, newest first. A missing file is an
// empty history; entries without a URL are dropped.
func (s *Store) Load() ([]Entry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	var raw []Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		// a corrupt history is not worth failing a download over
		return []Entry{}, nil
	}
	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		if strings.TrimSpace(e.URL) == "" {
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	return entries, nil
}

// Append records a new entry at the front and persists the trimmed list.
func (s *Store) Append(entry Entry) error {
	if strings.TrimSpace(entry.URL) == "" {
		return nil
	}
	if strings.TrimSpace(entry.TimestampUTC) == "" {
		entry.TimestampUTC = time.Now().UTC().Format(time.RFC3339)
	}
	entries, err := s.Load()
	if err != nil {
		return err
	}
	entries = append([]Entry{entry}, entries...)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	return store.WriteJSON(s.Path, entries)
}

// Clear truncates the history to an empty list.
func (s *Store) Clear() error {
	return store.WriteJSON(s.Path, []Entry{})
}
