package histstore

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeRaw(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "history.json"))
	entries, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %d, want empty history", len(entries))
	}
}

func TestAppendNewestFirst(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "history.json"))
	for i := 1; i <= 3; i++ {
		err := s.Append(Entry{
			URL:   fmt.Sprintf("https://example.com/v%d", i),
			State: "done",
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	entries, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].URL != "https://example.com/v3" {
		t.Fatalf("first entry = %q, want the most recent append", entries[0].URL)
	}
	if entries[0].TimestampUTC == "" {
		t.Fatal("append should stamp entries missing a timestamp")
	}
}

func TestAppendEnforcesCap(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "history.json"))
	for i := 0; i < MaxEntries+25; i++ {
		if err := s.Append(Entry{URL: fmt.Sprintf("https://example.com/v%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != MaxEntries {
		t.Fatalf("entries = %d, want cap %d", len(entries), MaxEntries)
	}
	if entries[0].URL != fmt.Sprintf("https://example.com/v%d", MaxEntries+24) {
		t.Fatalf("first entry = %q, want latest kept", entries[0].URL)
	}
}

func TestAppendIgnoresBlankURL(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "history.json"))
	if err := s.Append(Entry{URL: "   "}); err != nil {
		t.Fatal(err)
	}
	entries, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("blank URL should not be recorded, got %d entries", len(entries))
	}
}

func TestClear(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "history.json"))
	if err := s.Append(Entry{URL: "https://example.com/v"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	entries, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %d after clear, want 0", len(entries))
	}
}

func TestLoadToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	s := New(path)
	if err := writeRaw(path, "{not json"); err != nil {
		t.Fatal(err)
	}
	entries, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("corrupt history should read as empty, got %d", len(entries))
	}
}
