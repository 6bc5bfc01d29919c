package assets

import (
	"errors"
	"testing"
)

func TestSkipAsset(t *testing.T) {
	exclusions := []string{"/js/legacy.js", "jquery.js", `#^/vendor/#`, ""}

	tests := []struct {
		ref  string
		want bool
	}{
		{"/js/legacy.js", true},
		{"/js/jquery.js", true},
		{"/lib/jquery.js", true},
		{"/vendor/anything.js", true},
		{"/js/app.js", false},
		{"/js/legacy.js.map", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := SkipAsset(tt.ref, exclusions); got != tt.want {
			t.Errorf("SkipAsset(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}

	if SkipAsset("/js/app.js", nil) {
		t.Error("SkipAsset with no exclusions should be false")
	}
}

func TestSkipByRegexp(t *testing.T) {
	tests := []struct {
		name       string
		ref        string
		exclusions []string
		want       bool
	}{
		{"slash delimited", "/js/app.min.js", []string{`/\.min\.js$/`}, true},
		{"hash delimited", "/vendor/x.js", []string{`#^/vendor/#`}, true},
		{"bracket delimited", "/js/App.js", []string{`{app\.js}i`}, true},
		{"first match wins", "/js/a.js", []string{`/nomatch/`, `/a\.js/`}, true},
		{"no match", "/js/app.js", []string{`/\.min\.js$/`}, false},
		{"undelimited literal is not a pattern", "/js/app.js", []string{"app.js"}, false},
		{"escaped delimiter", "/js/app.js", []string{`/\/js\//`}, true},
		{"ungreedy flag", "/js/app.js", []string{`/a.*js/U`}, true},
		{"utf-8 flag accepted", "/js/app.js", []string{`/app/u`}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SkipByRegexp(tt.ref, tt.exclusions); got != tt.want {
				t.Errorf("SkipByRegexp(%q, %v) = %v, want %v", tt.ref, tt.exclusions, got, tt.want)
			}
		})
	}
}

func TestSkipByRegexp_InvalidPatternsAreNonMatches(t *testing.T) {
	invalid := []string{
		`/[a-/`,     // bad character class
		`/(?<=a)b/`, // lookbehind is unsupported
		`/a/x`,      // unsupported flag
		`/unterminated`,
		`abc`,
		`\abc\`,
		` a `,
		"/",
		"",
	}

	for _, entry := range invalid {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("SkipByRegexp panicked on %q: %v", entry, r)
				}
			}()
			if SkipByRegexp("/[a-/abc/unterminated", []string{entry}) {
				t.Errorf("invalid pattern %q matched", entry)
			}
		}()

		if _, err := CompilePattern(entry); !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("CompilePattern(%q) error = %v, want ErrInvalidPattern", entry, err)
		}
	}

	// Valid entries after invalid ones are still evaluated.
	if !SkipByRegexp("/js/app.js", []string{`/[a-/`, `/app/`}) {
		t.Error("valid pattern after invalid one should match")
	}
}

func TestCompilePattern_Flags(t *testing.T) {
	re, err := CompilePattern(`/^APP$/im`)
	if err != nil {
		t.Fatalf("CompilePattern: %v", err)
	}
	if !re.MatchString("x\napp\ny") {
		t.Error("i and m flags should apply")
	}
}
