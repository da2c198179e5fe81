package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateDirectoryIfNotExists(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "nested", "downloads")

	if err := CreateDirectoryIfNotExists(dir); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Expected directory to exist, got %v", err)
	}
	if !info.IsDir() {
		t.Error("Expected a directory")
	}

	// Idempotent
	if err := CreateDirectoryIfNotExists(dir); err != nil {
		t.Errorf("Expected no error for existing directory, got %v", err)
	}
}

func TestPlatformDir(t *testing.T) {
	base := t.TempDir()

	dir, err := PlatformDir(base, PlatformYouTube)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	expected := filepath.Join(base, "YouTube")
	if dir != expected {
		t.Errorf("Expected %s, got %s", expected, dir)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Expected platform directory to exist, got %v", err)
	}
}
