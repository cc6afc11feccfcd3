package otp

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestGenerate_FormatsSixDigits(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(code) != Digits {
			t.Fatalf("len(%q) = %d, want %d", code, len(code), Digits)
		}
		if strings.Trim(code, "0123456789") != "" {
			t.Fatalf("code %q has non-digit characters", code)
		}
	}
}

func TestGenerate_ZeroPads(t *testing.T) {
	// A reader of zero bytes makes rand.Int return 0.
	code, err := generate(bytes.NewReader(make([]byte, 64)))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if code != "000000" {
		t.Fatalf("code = %q, want 000000", code)
	}
}

func TestMatches(t *testing.T) {
	h := Hash("123456")
	if !Matches(h, "123456") {
		t.Fatal("expected match for the issued code")
	}
	if Matches(h, "123457") {
		t.Fatal("unexpected match for a different code")
	}
	if Matches(h, "") {
		t.Fatal("unexpected match for empty candidate")
	}
}

func TestHash_NeverPlaintext(t *testing.T) {
	h := Hash("654321")
	if strings.Contains(h, "654321") {
		t.Fatalf("hash %q leaks plaintext", h)
	}
	if len(h) != 64 {
		t.Fatalf("hash length = %d, want 64", len(h))
	}
}

func TestExpiresAt(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	if got := ExpiresAt(now); !got.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("ExpiresAt = %v", got)
	}
}
