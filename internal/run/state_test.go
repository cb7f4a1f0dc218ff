package run

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadState_MissingFile(t *testing.T) {
	s, err := LoadState(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("missing state file should not error: %v", err)
	}
	if _, ok := s.Get("def:a"); ok {
		t.Error("fresh state should be empty")
	}
}

func TestState_SaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	s, err := LoadState(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Set("def:a", "hash-a")
	s.Set("def:b", "hash-b")
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := LoadState(path)
	if err != nil {
		t.Fatal(err)
	}
	if h, ok := reloaded.Get("def:a"); !ok || h != "hash-a" {
		t.Errorf("def:a: got %q, ok=%v", h, ok)
	}
	if h, ok := reloaded.Get("def:b"); !ok || h != "hash-b" {
		t.Errorf("def:b: got %q, ok=%v", h, ok)
	}
}

func TestLoadState_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadState(path); err == nil {
		t.Error("corrupt state file must error, not silently reset")
	}
}
