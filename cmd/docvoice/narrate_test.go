package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNarrateRejectsInvalidMaxChars(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("A perfectly readable sentence."), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	orig := narrateMaxChars
	narrateMaxChars = -10
	defer func() { narrateMaxChars = orig }()

	err := runNarrate(narrateCmd, []string{path})
	if err == nil {
		t.Fatal("expected an error for --max-chars -10")
	}
	if !strings.Contains(err.Error(), "max chars") {
		t.Fatalf("error = %q, want a chunk size complaint", err)
	}
}
