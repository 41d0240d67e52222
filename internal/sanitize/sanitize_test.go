package sanitize

import (
	"errors"
	"strings"
	"testing"
)

func TestCleanStripsTrackingParams(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "single tracking param",
			in:   "https://example.com/page?utm_source=google",
			want: "https://example.com/page",
		},
		{
			name: "tracking and click ids",
			in:   "https://example.com/page?utm_source=google&fbclid=xyz123",
			want: "https://example.com/page",
		},
		{
			name: "keeps other params in order",
			in:   "https://example.com/p?a=1&utm_source=x&b=2&gclid=y&c=3",
			want: "https://example.com/p?a=1&b=2&c=3",
		},
		{
			name: "no params untouched",
			in:   "https://example.com/page",
			want: "https://example.com/page",
		},
		{
			name: "port and path preserved",
			in:   "https://example.com:8443/a/b?x=1&mc_eid=abc",
			want: "https://example.com:8443/a/b?x=1",
		},
		{
			name: "encoded values preserved",
			in:   "https://example.com/?q=a%20b&ref=newsletter",
			want: "https://example.com/?q=a%20b",
		},
		{
			name: "matching is case sensitive",
			in:   "https://example.com/?UTM_SOURCE=x&utm_source=y",
			want: "https://example.com/?UTM_SOURCE=x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Clean(tt.in)
			if err != nil {
				t.Fatalf("Clean(%q) returned error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanStripsEveryDenylistedParam(t *testing.T) {
	names := []string{
		"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
		"fbclid", "gclid", "msclkid", "twclid", "igshid",
		"mc_eid", "mc_cid", "_ga", "ref", "referrer",
	}

	var query []string
	for _, name := range names {
		query = append(query, name+"=v")
	}
	in := "https://example.com/page?keep=1&" + strings.Join(query, "&")

	got, err := Clean(in)
	if err != nil {
		t.Fatalf("Clean returned error: %v", err)
	}
	if got != "https://example.com/page?keep=1" {
		t.Fatalf("Clean = %q, want only the keep param to survive", got)
	}
}

func TestCleanStripsFragment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/page#section", "https://example.com/page"},
		{"https://example.com/page?a=1#utm_content=x", "https://example.com/page?a=1"},
		{"https://example.com/#", "https://example.com/"},
	}

	for _, tt := range tests {
		got, err := Clean(tt.in)
		if err != nil {
			t.Fatalf("Clean(%q) returned error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	inputs := []string{
		"https://example.com/page?utm_source=google&fbclid=xyz123",
		"https://example.com/p?a=1&utm_source=x&b=2#frag",
		"https://example.com:8443/a/b?x=1",
		"https://example.com/",
	}

	for _, in := range inputs {
		once, err := Clean(in)
		if err != nil {
			t.Fatalf("Clean(%q) returned error: %v", in, err)
		}
		twice, err := Clean(once)
		if err != nil {
			t.Fatalf("Clean(Clean(%q)) returned error: %v", in, err)
		}
		if once != twice {
			t.Fatalf("Clean not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestCleanRejectsInvalidURLs(t *testing.T) {
	inputs := []string{
		"",
		"not a url",
		"/relative/path?a=1",
		"example.com/missing-scheme",
		"https://",
		"mailto:someone@example.com",
		"http://exa mple.com/",
	}

	for _, in := range inputs {
		if _, err := Clean(in); !errors.Is(err, ErrInvalidURL) {
			t.Fatalf("Clean(%q) = %v, want ErrInvalidURL", in, err)
		}
	}
}
