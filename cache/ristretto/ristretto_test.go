package ristretto

import (
	"testing"
	"time"
)

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"small", "medium", "large", "very-large"} {
		t.Run(level, func(t *testing.T) {
			c, err := New[bool](level)
			if err != nil {
				t.Fatalf("New(%q) returned an unexpected error: %v", level, err)
			}
			c.Close()
		})
	}

	for _, level := range []string{"", "huge", " medium"} {
		t.Run("invalid "+level, func(t *testing.T) {
			c, err := New[bool](level)
			if err == nil {
				t.Errorf("New(%q) expected an error", level)
			}
			if c != nil {
				t.Errorf("New(%q) expected a nil cache", level)
			}
		})
	}
}

func TestSetGetDel(t *testing.T) {
	c, err := New[string]("small")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if !c.Set("k", "v1", 1) {
		t.Fatal("set was dropped")
	}
	c.Wait()

	got, found := c.Get("k")
	if !found || got != "v1" {
		t.Errorf("Get = (%q, %v), want (v1, true)", got, found)
	}

	c.Set("k", "v2", 1)
	c.Wait()
	if got, _ := c.Get("k"); got != "v2" {
		t.Errorf("overwrite: got %q", got)
	}

	c.Del("k")
	c.Wait()
	if got, found := c.Get("k"); found || got != "" {
		t.Errorf("after Del: got (%q, %v)", got, found)
	}
}

func TestSetWithTTL(t *testing.T) {
	c, err := New[int]("small")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ttl := 50 * time.Millisecond
	c.SetWithTTL("ttl", 42, 1, ttl)
	c.Wait()

	if got, found := c.Get("ttl"); !found || got != 42 {
		t.Fatalf("Get before expiry = (%d, %v)", got, found)
	}

	time.Sleep(2 * ttl)
	if _, found := c.Get("ttl"); found {
		t.Error("key found after ttl expiration")
	}
}

func TestGetMissingReturnsZeroValue(t *testing.T) {
	type item struct{ A int }

	c, _ := New[*item]("small")
	defer c.Close()
	if v, found := c.Get("missing"); found || v != nil {
		t.Errorf("expected (nil, false), got (%v, %v)", v, found)
	}
}
