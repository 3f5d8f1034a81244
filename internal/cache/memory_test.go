package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRoundtrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("test")

	if _, err := c.Get(ctx, "nope"); err != ErrNotFound {
		t.Fatalf("Get de key inexistente = %v, quería ErrNotFound", err)
	}

	if err := c.Set(ctx, "k", "v", 0); err != nil {
		t.Fatal(err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("Get = (%q, %v)", got, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "k"); err != ErrNotFound {
		t.Fatalf("Get post-delete = %v, quería ErrNotFound", err)
	}
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	if err := c.Set(ctx, "k", "v", 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "k"); err != nil {
		t.Fatalf("Get antes de expirar = %v", err)
	}
	time.Sleep(40 * time.Millisecond)
	if _, err := c.Get(ctx, "k"); err != ErrNotFound {
		t.Fatalf("Get después de expirar = %v, quería ErrNotFound", err)
	}
}

func TestMemoryPrefixIsolation(t *testing.T) {
	ctx := context.Background()
	a := NewMemory("a")
	b := NewMemory("b")

	if err := a.Set(ctx, "k", "va", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Get(ctx, "k"); err != ErrNotFound {
		t.Fatalf("los backends no comparten estado, Get = %v", err)
	}
}
