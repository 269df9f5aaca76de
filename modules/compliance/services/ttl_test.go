package services

import (
	"testing"
	"time"
)

func TestParseTTL(t *testing.T) {
	ok := map[string]time.Duration{
		"90d":   90 * day,
		" 2W ":  14 * day,
		"12h":   12 * time.Hour,
		"6m":    180 * day,
		"1y":    365 * day,
		"P30D":  30 * day,
		"p1w":   7 * day,
		"36h0m": 36 * time.Hour,
	}
	for in, want := range ok {
		got, err := ParseTTL(in)
		if err != nil {
			t.Fatalf("ParseTTL(%q) err=%v", in, err)
		}
		if got != want {
			t.Fatalf("ParseTTL(%q)=%s want %s", in, got, want)
		}
	}

	for _, in := range []string{"", "  ", "0d", "abc", "-5h", "P1M", "10x", "200000d", "P20000W", "9999999999h"} {
		if _, err := ParseTTL(in); err == nil {
			t.Fatalf("ParseTTL(%q) expected error", in)
		}
	}
}

func TestTTLPolicy_DueAt(t *testing.T) {
	assigned := date(2025, 2, 1)

	p, err := NewTTLPolicy("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Fallback != DefaultFallbackTTL {
		t.Fatalf("fallback=%s", p.Fallback)
	}

	due, fb := p.DueAt(assigned, "7d")
	if fb || !due.Equal(date(2025, 2, 8)) {
		t.Fatalf("due=%s fallback=%v", due, fb)
	}
	due, fb = p.DueAt(assigned, "soon")
	if !fb || !due.Equal(assigned.Add(DefaultFallbackTTL)) {
		t.Fatalf("due=%s fallback=%v", due, fb)
	}
	due, fb = p.DueAt(assigned, "200000d")
	if !fb || !due.Equal(assigned.Add(DefaultFallbackTTL)) {
		t.Fatalf("overflowing ttl due=%s fallback=%v", due, fb)
	}

	p, err = NewTTLPolicy("2w")
	if err != nil {
		t.Fatal(err)
	}
	if due, _ := p.DueAt(assigned, ""); !due.Equal(date(2025, 2, 15)) {
		t.Fatalf("due=%s", due)
	}
	if _, err := NewTTLPolicy("never"); err == nil {
		t.Fatal("expected error")
	}

	if due, _ := (TTLPolicy{}).DueAt(assigned, ""); !due.Equal(assigned.Add(DefaultFallbackTTL)) {
		t.Fatalf("zero policy due=%s", due)
	}
}
