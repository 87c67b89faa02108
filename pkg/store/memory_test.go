package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	d := Diagram{ID: "one", Module: "inv", SVG: "<svg/>", CreatedAt: time.Now()}
	if err := s.Put(ctx, d); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "one")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SVG != d.SVG || got.Module != d.Module {
		t.Errorf("Get = %+v, want %+v", got, d)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing ID should return ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Put(ctx, Diagram{ID: id}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("List order wrong: %+v", all)
	}

	two, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(two) != 2 || two[0].ID != "c" {
		t.Errorf("List limit wrong: %+v", two)
	}
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_ = s.Put(ctx, Diagram{ID: "x", Module: "v1"})
	_ = s.Put(ctx, Diagram{ID: "x", Module: "v2"})

	got, err := s.Get(ctx, "x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Module != "v2" {
		t.Errorf("overwrite lost: %+v", got)
	}
	all, _ := s.List(ctx, 0)
	if len(all) != 1 {
		t.Errorf("overwrite duplicated the entry: %d", len(all))
	}
}
