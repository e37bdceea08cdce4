package localfs

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	if err := storage.Save(ctx, "job-1_a.csv", strings.NewReader("a,b\n1,2\n")); err != nil {
		t.Fatalf("save error: %v", err)
	}

	rc, err := storage.Open(ctx, "job-1_a.csv")
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if string(raw) != "a,b\n1,2\n" {
		t.Fatalf("unexpected payload %q", raw)
	}
}

func TestKeysAreConfinedToBaseDir(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	if err := storage.Save(ctx, "../../etc/escape.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("save error: %v", err)
	}

	// The traversal portion must be stripped, leaving just the base name.
	if _, err := storage.Open(ctx, "escape.txt"); err != nil {
		t.Fatalf("expected object saved under its base name: %v", err)
	}
}

func TestOpenMissingObjectFails(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := storage.Open(context.Background(), "absent"); err == nil {
		t.Fatal("expected error for missing object")
	}
}
