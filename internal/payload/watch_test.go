package payload

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestWatcher_FiresOnWasmChange(t *testing.T) {
	root := t.TempDir()
	dir := writePayload(t, root, "hot", "name: hot\nversion: 1.0.0\n", guestModule(t))

	manifest, err := ParseManifest(dir)
	if err != nil {
		t.Fatalf("ParseManifest() failed: %v", err)
	}

	w, err := NewWatcher(20*time.Millisecond, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, manifest, func(context.Context) { changed <- struct{}{} })
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	// Unrelated files are ignored.
	if err := os.WriteFile(dir+"/notes.txt", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(manifest.WasmPath(), guestModule(t), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-ctx.Done():
		t.Fatal("onChange was not called")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() returned error: %v", err)
	}
}

func TestWatcher_MissingDir(t *testing.T) {
	w, err := NewWatcher(0, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	defer w.Close()

	m := &Manifest{Name: "ghost", dir: t.TempDir() + "/missing"}
	if err := w.Watch(context.Background(), m, func(context.Context) {}); err == nil {
		t.Error("Watch() should fail for a missing directory")
	}
}
