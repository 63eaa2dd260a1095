package cli

import (
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if filepath.Base(dir) != "worldmap" {
		t.Errorf("cacheDir() = %q, should end with 'worldmap'", dir)
	}
	if filepath.Base(filepath.Dir(dir)) != ".cache" {
		t.Errorf("cacheDir() = %q, should be under .cache", dir)
	}
}

func TestCacheDirXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)

	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(base, "worldmap"); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
