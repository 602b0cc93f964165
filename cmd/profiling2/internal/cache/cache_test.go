package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/emallson/profiling2-decode/internal/schema"
)

func TestGetMissThenPutThenHit(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	hash := HashFile([]byte("some saved variables contents"))

	_, ok, err := c.Get(ctx, hash, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected a cache miss before any Put")
	}

	want := &schema.ParsedRecording{
		OnUpdateDelay: schema.TrackerData{TrackerCore: schema.TrackerCore{Calls: 7}},
	}
	if err := c.Put(ctx, hash, 0, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Get(ctx, hash, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a cache hit after Put")
	}
	if got.OnUpdateDelay.Calls != 7 {
		t.Fatalf("got %+v", got)
	}
}

func TestPutOverwritesExistingEntry(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()
	ctx := context.Background()
	hash := HashFile([]byte("contents"))

	first := &schema.ParsedRecording{OnUpdateDelay: schema.TrackerData{TrackerCore: schema.TrackerCore{Calls: 1}}}
	second := &schema.ParsedRecording{OnUpdateDelay: schema.TrackerData{TrackerCore: schema.TrackerCore{Calls: 2}}}

	if err := c.Put(ctx, hash, 0, first); err != nil {
		t.Fatalf("Put first: %v", err)
	}
	if err := c.Put(ctx, hash, 0, second); err != nil {
		t.Fatalf("Put second: %v", err)
	}

	got, ok, err := c.Get(ctx, hash, 0)
	if err != nil || !ok {
		t.Fatalf("Get: %v, %v", got, err)
	}
	if got.OnUpdateDelay.Calls != 2 {
		t.Fatalf("got %+v, want overwritten entry with Calls=2", got)
	}
}
