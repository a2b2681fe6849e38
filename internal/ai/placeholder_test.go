package ai

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
)

func TestPlaceholderSnippet(t *testing.T) {
	short := "Smiling doctor"
	if got := PlaceholderSnippet(short); got != short {
		t.Errorf("short prompt changed: %q", got)
	}

	long := strings.Repeat("a", 41)
	got := PlaceholderSnippet(long)
	if got != strings.Repeat("a", 40)+"..." {
		t.Errorf("long prompt: got %q", got)
	}

	exact := strings.Repeat("b", 40)
	if got := PlaceholderSnippet(exact); got != exact {
		t.Errorf("40-char prompt must not be cut: %q", got)
	}
}

func TestPlaceholder_NeverFailsAndIsDeterministic(t *testing.T) {
	p := Placeholder{}
	a, err := p.GenerateImage(context.Background(), "A <clinic> & friends")
	if err != nil {
		t.Fatalf("placeholder returned error: %v", err)
	}
	b, _ := p.GenerateImage(context.Background(), "A <clinic> & friends")
	if string(a.Data) != string(b.Data) {
		t.Error("placeholder output is not deterministic")
	}
	if a.MIMEType != "image/svg+xml" {
		t.Errorf("mime: got %q", a.MIMEType)
	}

	svg := string(a.Data)
	for _, want := range []string{"Healthcare Image", "Generated by MediGenius", "A &lt;clinic&gt; &amp; friends", `width="512"`} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}

	if _, err := base64.StdEncoding.DecodeString(a.Base64()); err != nil {
		t.Errorf("Base64 is not valid: %v", err)
	}
}

func TestStockSearchQuery(t *testing.T) {
	tests := map[string]string{
		"":                                  "healthcare medical",
		"An x-ray of a knee":                "healthcare medical ray knee",
		"Happy family at the dental clinic": "healthcare medical happy family the",
	}
	for in, want := range tests {
		if got := StockSearchQuery(in); got != want {
			t.Errorf("StockSearchQuery(%q) = %q, want %q", in, got, want)
		}
	}
}
