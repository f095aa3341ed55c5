package mailbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// waitDelivery receives from a watch channel with a test-sized deadline.
func waitDelivery(t *testing.T, ch <-chan []byte) ([]byte, bool) {
	t.Helper()
	select {
	case data, ok := <-ch:
		return data, ok
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not deliver within 5s")
		return nil, false
	}
}

func TestWatchSeesContentPostedBefore(t *testing.T) {
	slot := New(filepath.Join(t.TempDir(), "response.txt"))

	if err := slot.Post([]byte("yes\n")); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, ok := waitDelivery(t, slot.Watch(ctx))
	if !ok {
		t.Fatal("channel closed without delivery")
	}
	if string(data) != "yes\n" {
		t.Errorf("delivered %q, want %q", data, "yes\n")
	}
}

func TestWatchSeesContentPostedAfter(t *testing.T) {
	slot := New(filepath.Join(t.TempDir(), "response.txt"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch := slot.Watch(ctx)

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = slot.Post([]byte("the blue one\n"))
	}()

	data, ok := waitDelivery(t, ch)
	if !ok {
		t.Fatal("channel closed without delivery")
	}
	if string(data) != "the blue one\n" {
		t.Errorf("delivered %q, want %q", data, "the blue one\n")
	}

	// The file stays put until the consumer discards it.
	if _, err := os.Stat(slot.Path()); err != nil {
		t.Errorf("slot file gone before Discard: %v", err)
	}
}

// A zero-length file is a write in progress or a prepared slot, never a
// response. The watch must hold until real content lands.
func TestWatchIgnoresPreparedSlot(t *testing.T) {
	slot := New(filepath.Join(t.TempDir(), "response.txt"))

	if err := slot.Prepare(); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch := slot.Watch(ctx)

	select {
	case data, ok := <-ch:
		t.Fatalf("watch fired on zero-length file: data=%q ok=%v", data, ok)
	case <-time.After(400 * time.Millisecond):
	}

	if err := os.WriteFile(slot.Path(), []byte("\n"), 0600); err != nil {
		t.Fatalf("completing the write: %v", err)
	}

	data, ok := waitDelivery(t, ch)
	if !ok {
		t.Fatal("channel closed without delivery")
	}
	// A bare newline is an empty submission: non-empty on disk by contract.
	if string(data) != "\n" {
		t.Errorf("delivered %q, want %q", data, "\n")
	}
}

func TestWatchCanceled(t *testing.T) {
	slot := New(filepath.Join(t.TempDir(), "response.txt"))

	ctx, cancel := context.WithCancel(context.Background())
	ch := slot.Watch(ctx)
	cancel()

	data, ok := waitDelivery(t, ch)
	if ok {
		t.Errorf("delivery after cancel: %q", data)
	}
}

func TestPostOccupied(t *testing.T) {
	slot := New(filepath.Join(t.TempDir(), "response.txt"))

	if err := slot.Post([]byte("first\n")); err != nil {
		t.Fatalf("first Post failed: %v", err)
	}
	err := slot.Post([]byte("second\n"))
	if !errors.Is(err, ErrOccupied) {
		t.Fatalf("second Post error = %v, want ErrOccupied", err)
	}

	data, _ := os.ReadFile(slot.Path())
	if string(data) != "first\n" {
		t.Errorf("content = %q, want the first write to survive", data)
	}
}

func TestPostFillsPreparedSlot(t *testing.T) {
	slot := New(filepath.Join(t.TempDir(), "response.txt"))

	if err := slot.Prepare(); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := slot.Post([]byte("ok\n")); err != nil {
		t.Fatalf("Post into prepared slot failed: %v", err)
	}

	data, _ := os.ReadFile(slot.Path())
	if string(data) != "ok\n" {
		t.Errorf("content = %q, want %q", data, "ok\n")
	}
}

func TestPostRejectsEmptyContent(t *testing.T) {
	slot := New(filepath.Join(t.TempDir(), "response.txt"))

	if err := slot.Post(nil); err == nil {
		t.Fatal("Post accepted empty content")
	}
	if _, err := os.Stat(slot.Path()); !os.IsNotExist(err) {
		t.Error("rejected post still created a file")
	}
}

func TestDiscardIdempotent(t *testing.T) {
	slot := New(filepath.Join(t.TempDir(), "response.txt"))

	if err := slot.Post([]byte("done\n")); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if err := slot.Discard(); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}
	if _, err := os.Stat(slot.Path()); !os.IsNotExist(err) {
		t.Error("slot file survived Discard")
	}
	// Second discard must be a no-op: both the waiter and the sweeper may
	// try to clean the same slot.
	if err := slot.Discard(); err != nil {
		t.Errorf("repeat Discard failed: %v", err)
	}
}
