package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteJSONReadJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "doc.json")
	in := map[string]int{"alpha": 1, "beta": 2}
	if err := WriteJSON(path, in); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var out map[string]int
	if err := ReadJSON(path, &out); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if out["alpha"] != 1 || out["beta"] != 2 {
		t.Fatalf("round trip mismatch: %v", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Fatal("document should end with a newline")
	}
}

func TestWriteBytesLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := WriteBytes(path, []byte("payload")); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "data.bin" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}

func TestWriteBytesOverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	if err := WriteBytes(path, []byte("first")); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	if err := WriteBytes(path, []byte("second")); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("content = %q, want %q", data, "second")
	}
}

func TestReadJSONMissingFile(t *testing.T) {
	var out map[string]int
	if err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &out); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestMkdir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := Mkdir(path); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
}
