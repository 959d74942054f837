package domain

import (
	"errors"
	"testing"

	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
)

func TestParseImageRefEmpty(t *testing.T) {
	if _, err := ParseImageRef("   "); !errors.Is(err, e.ErrImageRefRequired) {
		t.Fatalf("expected ErrImageRefRequired, got %v", err)
	}
}

func TestParseImageRefRemote(t *testing.T) {
	ref, err := ParseImageRef("https://CDN.Example.com/images/shoe.jpg#section")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ref.Kind != RefRemote {
		t.Errorf("expected RefRemote, got %v", ref.Kind)
	}

	// Хост в нижнем регистре, fragment отброшен, путь сохранен как есть
	if got := ref.Canonical(); got != "https://cdn.example.com/images/shoe.jpg" {
		t.Errorf("unexpected canonical form: %s", got)
	}
}

func TestParseImageRefLocal(t *testing.T) {
	ref, err := ParseImageRef("./images//catalog/../shoe.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ref.Kind != RefLocal {
		t.Errorf("expected RefLocal, got %v", ref.Kind)
	}

	if got := ref.Canonical(); got != "images/shoe.jpg" {
		t.Errorf("unexpected canonical form: %s", got)
	}
}

func TestCacheKeyStableAcrossEquivalentRefs(t *testing.T) {
	a, err := ParseImageRef("https://cdn.example.com/a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseImageRef("https://CDN.EXAMPLE.COM/a.jpg#top")
	if err != nil {
		t.Fatal(err)
	}

	if a.CacheKey() != b.CacheKey() {
		t.Errorf("equivalent refs must share a cache key: %s vs %s", a.CacheKey(), b.CacheKey())
	}

	c, err := ParseImageRef("https://cdn.example.com/b.jpg")
	if err != nil {
		t.Fatal(err)
	}

	if a.CacheKey() == c.CacheKey() {
		t.Errorf("different refs must not collide on cache key")
	}
}

func TestParseImageRefInvalidURL(t *testing.T) {
	if _, err := ParseImageRef("http://"); !errors.Is(err, e.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for hostless URL, got %v", err)
	}
}
