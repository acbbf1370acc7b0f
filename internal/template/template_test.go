package template

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbedded(t *testing.T) {
	tail, err := Embedded().Tail()
	if err != nil {
		t.Fatalf("Embedded().Tail() error = %v", err)
	}
	if !strings.Contains(string(tail), "preFuzz") {
		t.Errorf("embedded template is missing hook list: %q", tail)
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proc.txt")
	if err := os.WriteFile(path, []byte("custom\n"), 0644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}

	tail, err := File(path).Tail()
	if err != nil {
		t.Fatalf("File().Tail() error = %v", err)
	}
	if string(tail) != "custom\n" {
		t.Errorf("File().Tail() = %q", tail)
	}

	if _, err := File(filepath.Join(t.TempDir(), "missing")).Tail(); err == nil {
		t.Error("expected an error for a missing template")
	}
}

func TestStatic(t *testing.T) {
	tail, _ := Static("x").Tail()
	if string(tail) != "x" {
		t.Errorf("Static().Tail() = %q", tail)
	}
}
