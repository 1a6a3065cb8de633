package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startTestWatcher(t *testing.T, path string) (*Watcher, chan *Config) {
	t.Helper()
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	w.debounce = 10 * time.Millisecond
	t.Cleanup(w.Stop)

	got := make(chan *Config, 1)
	w.OnChange(func(cfg *Config) {
		select {
		case got <- cfg:
		default:
		}
	})
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return w, got
}

func awaitReload(t *testing.T, got chan *Config, wantPort int) {
	t.Helper()
	select {
	case cfg := <-got:
		if cfg.Gateway.Port != wantPort {
			t.Errorf("reloaded port = %d, want %d", cfg.Gateway.Port, wantPort)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed")
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	writeConfig := func(port int) {
		t.Helper()
		data := fmt.Sprintf(`{"gateway": {"port": %d}}`, port)
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	writeConfig(5001)

	_, got := startTestWatcher(t, path)

	writeConfig(5002)
	awaitReload(t, got, 5002)
}

func TestWatcherSurvivesFileReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	if err := os.WriteFile(path, []byte(`{"gateway": {"port": 5001}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	_, got := startTestWatcher(t, path)

	// Save the way editors do: write a sibling, rename it over the target.
	tmp := filepath.Join(dir, "config.json5.tmp")
	if err := os.WriteFile(tmp, []byte(`{"gateway": {"port": 5003}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	awaitReload(t, got, 5003)
}
