package kv

import (
	"context"
	"testing"
)

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	value := []byte("1.0")
	if err := store.Set(ctx, "k", value); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = '9'

	got, ok, err := store.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(got) != "1.0" {
		t.Fatalf("expected stored copy, got %q", got)
	}
	got[0] = '7'
	again, _, _ := store.Get(ctx, "k")
	if string(again) != "1.0" {
		t.Fatalf("expected returned copy, got %q", again)
	}
}

func TestMemoryRemove(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	_ = store.Set(ctx, "k", []byte("v"))

	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.Remove(ctx, "missing"); err != nil {
		t.Fatalf("remove missing key: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatalf("expected key removed")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}
