package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStore_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "/media")
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := store.Save(ctx, "videos/abc.mp4", strings.NewReader("payload"), "video/mp4"); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "videos", "abc.mp4"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("unexpected content: %q", data)
	}

	if err := store.Delete(ctx, "videos/abc.mp4"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "videos", "abc.mp4")); !os.IsNotExist(err) {
		t.Error("file should be gone after delete")
	}
}

func TestLocalStore_DeleteMissingIsNoop(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "/media")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(context.Background(), "videos/missing.mp4"); err != nil {
		t.Errorf("deleting a missing file should not error: %v", err)
	}
}

func TestLocalStore_RejectsTraversalKeys(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "/media")
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"", "/etc/passwd", "../outside", "videos/../../outside"} {
		if err := store.Save(context.Background(), key, strings.NewReader("x"), "video/mp4"); err == nil {
			t.Errorf("key %q should be rejected", key)
		}
	}
}

func TestLocalStore_ResolveURL(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "/media")
	if err != nil {
		t.Fatal(err)
	}
	if got := store.ResolveURL("thumbs/x.jpg"); got != "/media/thumbs/x.jpg" {
		t.Errorf("unexpected URL: %q", got)
	}
}
