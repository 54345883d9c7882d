package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResultCacheRoundTrip(t *testing.T) {
	c := &ResultCache{Dir: t.TempDir()}
	ctx := context.Background()
	key := Key("digest", "model-a", "text", 2.0)

	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
	if err := c.Save(ctx, key, []byte(`{"html":"<p>x</p>"}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(b) != `{"html":"<p>x</p>"}` {
		t.Fatalf("got %q", b)
	}
}

func TestKeyVariesByParameters(t *testing.T) {
	base := Key("d", "m", "text", 2.0)
	if Key("d2", "m", "text", 2.0) == base {
		t.Fatalf("key must vary by document digest")
	}
	if Key("d", "m2", "text", 2.0) == base {
		t.Fatalf("key must vary by model")
	}
	if Key("d", "m", "vision", 2.0) == base {
		t.Fatalf("key must vary by modality")
	}
	if Key("d", "m", "text", 1.0) == base {
		t.Fatalf("key must vary by scale")
	}
	if Key("d", "m", "text", 2.0) != base {
		t.Fatalf("key must be stable")
	}
}

func TestDigestFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(p, []byte("same bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	d1, err := DigestFile(p)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	d2, _ := DigestFile(p)
	if d1 != d2 || len(d1) != 64 {
		t.Fatalf("unstable or malformed digest: %q vs %q", d1, d2)
	}
}

func TestPurgeByAge(t *testing.T) {
	dir := t.TempDir()
	c := &ResultCache{Dir: dir}
	ctx := context.Background()
	if err := c.Save(ctx, "old", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := c.Save(ctx, "fresh", []byte("y")); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "old.json"), stale, stale); err != nil {
		t.Fatal(err)
	}

	removed, err := PurgeByAge(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d", removed)
	}
	if _, ok, _ := c.Get(ctx, "fresh"); !ok {
		t.Fatalf("fresh entry should survive")
	}
	if _, ok, _ := c.Get(ctx, "old"); ok {
		t.Fatalf("old entry should be purged")
	}
}

func TestClearDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := &ResultCache{Dir: dir}
	if err := c.Save(context.Background(), "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := ClearDir(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("dir should be recreated: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("dir should be empty, got %d entries", len(entries))
	}
}
