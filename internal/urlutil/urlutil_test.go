package urlutil

import (
	"net/url"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"strips fragment", "https://example.com/page#section", "https://example.com/page"},
		{"preserves query", "https://example.com/page?id=1&sort=asc", "https://example.com/page?id=1&sort=asc"},
		{"strips fragment keeps query", "https://example.com/p?q=1#top", "https://example.com/p?q=1"},
		{"plain URL unchanged", "https://example.com/a/b", "https://example.com/a/b"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	urls := []string{
		"https://example.com/page#frag",
		"https://example.com/page?a=1&b=2#frag",
		"http://example.com",
		"https://example.com/deep/path/",
	}

	for _, u := range urls {
		once := Normalize(u)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", u, once, twice)
		}
	}
}

func TestResolve(t *testing.T) {
	base, err := url.Parse("https://example.com/articles/page.html")
	if err != nil {
		t.Fatalf("Failed to parse base URL: %v", err)
	}

	tests := []struct {
		href     string
		expected string
	}{
		{"/images/cat.jpg", "https://example.com/images/cat.jpg"},
		{"dog.png", "https://example.com/articles/dog.png"},
		{"https://cdn.example.com/a.gif", "https://cdn.example.com/a.gif"},
		{"../other.html#x", "https://example.com/other.html"},
	}

	for _, tt := range tests {
		if got := Resolve(base, tt.href); got != tt.expected {
			t.Errorf("Resolve(%q) = %q, want %q", tt.href, got, tt.expected)
		}
	}
}

func TestIsValid(t *testing.T) {
	valid := []string{
		"https://example.com",
		"http://example.com/path?q=1",
	}
	invalid := []string{
		"",
		"ftp://example.com/file",
		"mailto:user@example.com",
		"javascript:void(0)",
		"/relative/path",
	}

	for _, u := range valid {
		if !IsValid(u) {
			t.Errorf("IsValid(%q) = false, want true", u)
		}
	}
	for _, u := range invalid {
		if IsValid(u) {
			t.Errorf("IsValid(%q) = true, want false", u)
		}
	}
}

func TestDomain(t *testing.T) {
	if got := Domain("https://Example.COM/page"); got != "example.com" {
		t.Errorf("Domain() = %q, want %q", got, "example.com")
	}
	if got := Domain("https://sub.example.com:8080/page"); got != "sub.example.com:8080" {
		t.Errorf("Domain() = %q, want %q", got, "sub.example.com:8080")
	}
}

func TestIsExternal(t *testing.T) {
	if IsExternal("https://example.com/page", "example.com") {
		t.Error("Same-domain URL reported as external")
	}
	if !IsExternal("https://other.com/page", "example.com") {
		t.Error("Cross-domain URL not reported as external")
	}
	if !IsExternal("not a url", "example.com") {
		t.Error("Unparseable URL should be treated as external")
	}
}

func TestLikelyContent(t *testing.T) {
	rejected := []string{
		"https://example.com/api/items",
		"https://example.com/ajax/refresh",
		"https://example.com/data.json",
		"https://example.com/sitemap.xml",
		"https://example.com/style.css",
		"https://example.com/app.js",
		"https://example.com/search?q=cats",
		"https://example.com/login",
		"https://example.com/logout",
		"https://example.com/admin/panel",
	}
	accepted := []string{
		"https://example.com/articles/go-crawlers",
		"https://example.com/gallery",
		"https://example.com/posts?page=2",
	}

	for _, u := range rejected {
		if LikelyContent(u) {
			t.Errorf("LikelyContent(%q) = true, want false", u)
		}
	}
	for _, u := range accepted {
		if !LikelyContent(u) {
			t.Errorf("LikelyContent(%q) = false, want true", u)
		}
	}
}

func TestRobotsURL(t *testing.T) {
	if got := RobotsURL("https://example.com/deep/page?x=1"); got != "https://example.com/robots.txt" {
		t.Errorf("RobotsURL() = %q, want %q", got, "https://example.com/robots.txt")
	}
}
