package assets

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	sep := string(filepath.Separator)
	native := func(p string) string { return strings.ReplaceAll(p, "/", sep) }

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/a/b/../c", native("/a/c")},
		{"a/./b", native("a/b")},
		{"/../a", native("/a")},
		{"../../a/b", native("a/b")},
		{"/a/b/c/../../d", native("/a/d")},
		{"a/..", ""},
		{"/", sep},
		{"//a//b/", native("/a/b")},
		{`a\b\..\c`, native("a/c")},
		{`\a\.\b`, native("/a/b")},
		{"./a", "a"},
	}

	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripQuery(t *testing.T) {
	tests := map[string]string{
		"/js/app.js":         "/js/app.js",
		"/js/app.js?v=1":     "/js/app.js",
		"/js/app.js?v=1?x=2": "/js/app.js",
		"?only":              "",
	}
	for in, want := range tests {
		if got := StripQuery(in); got != want {
			t.Errorf("StripQuery(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBasename(t *testing.T) {
	tests := map[string]string{
		"/js/app.js":  "app.js",
		"app.js":      "app.js",
		`\js\app.js`:  "app.js",
		"/js/":        "",
		"/js/a.js?v1": "a.js?v1",
	}
	for in, want := range tests {
		if got := basename(in); got != want {
			t.Errorf("basename(%q) = %q, want %q", in, got, want)
		}
	}
}
