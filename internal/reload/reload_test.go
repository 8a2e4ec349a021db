package reload

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatchDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("a: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var applied atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, cfgPath, logger, func() { applied.Add(1) })
	}()

	// Let the watcher register before writing.
	time.Sleep(100 * time.Millisecond)

	// A burst of writes collapses to one apply.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(cfgPath, []byte("a: 2\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	deadline := time.Now().Add(2 * time.Second)
	for applied.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := applied.Load(); got != 1 {
		t.Errorf("applies = %d, want 1", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned error: %v", err)
	}
}

func TestWatchIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("a: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var applied atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go func() { _ = Watch(ctx, cfgPath, logger, func() { applied.Add(1) }) }()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("b: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(500 * time.Millisecond)
	if got := applied.Load(); got != 0 {
		t.Errorf("applies = %d, want 0 for sibling file", got)
	}
}
