package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/aarunpack/pkg/config"
)

func TestCacheDir(t *testing.T) {
	home := t.TempDir()
	tests := []struct {
		name string
		xdg  string
		want string
	}{
		{"home fallback", "", filepath.Join(home, ".cache", appName)},
		{"xdg cache home", "/var/cache/ci", filepath.Join("/var/cache/ci", appName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", home)
			t.Setenv("XDG_CACHE_HOME", tt.xdg)

			got, err := cacheDir()
			if err != nil {
				t.Fatalf("cacheDir() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("cacheDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/var/cache/ci")

	cfg := config.Default()
	got, err := fileCacheDir(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join("/var/cache/ci", appName) {
		t.Errorf("fileCacheDir() = %q, want the user cache directory", got)
	}

	cfg.Cache.Dir = "/srv/aarunpack/companions"
	if got, _ := fileCacheDir(cfg); got != cfg.Cache.Dir {
		t.Errorf("fileCacheDir() = %q, want configured %q", got, cfg.Cache.Dir)
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			var out bytes.Buffer
			if err := execute(t, &out, "completion", shell); err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if !strings.Contains(out.String(), appName) {
				t.Errorf("%s script does not mention %q", shell, appName)
			}
		})
	}

	if err := execute(t, &bytes.Buffer{}, "completion", "tcsh"); err == nil {
		t.Error("unsupported shell should be rejected")
	}
}
