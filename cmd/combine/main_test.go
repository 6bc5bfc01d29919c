package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/combine/internal/errors"
)

// newProject writes a config file and a small web root and returns the
// config path.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"combine.json": `{
  "exclude": {"js": ["tinymce.js"]},
  "paths": {"cache": "cache"}
}`,
		"web/js/app.js":          "app()",
		"web/js/tinymce.js":      "tiny()",
		"data/web/css/theme.css": "a { color : red ; }",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return filepath.Join(dir, "combine.json")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// fields splits output into lines of whitespace-separated fields.
func fields(out string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		rows = append(rows, strings.Fields(line))
	}
	return rows
}

func TestNormalizeCmd(t *testing.T) {
	out, err := run(t, "", "normalize", "/a/b/../c", "a/./b", "/../a")
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		filepath.FromSlash("/a/c"),
		filepath.FromSlash("a/b"),
		filepath.FromSlash("/a"),
	}, "\n") + "\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestCheckCmd(t *testing.T) {
	cfg := newProject(t)

	out, err := run(t, "", "check", "--config", cfg, "--exclude", "extra.js",
		"/js/app.js", "https://cdn.example.com/x.js", "/js/tinymce.js?v=4", "/js/extra.js", "/js/nope.js", "relative.js")
	if err != nil {
		t.Fatal(err)
	}

	want := [][]string{
		{"combinable", "/js/app.js"},
		{"remote", "https://cdn.example.com/x.js"},
		{"excluded", "/js/tinymce.js?v=4"},
		{"excluded", "/js/extra.js"},
		{"missing", "/js/nope.js"},
		{"combinable", "relative.js"},
	}
	got := fields(out)
	if len(got) != len(want) {
		t.Fatalf("output = %q", out)
	}
	for i := range want {
		if strings.Join(got[i], " ") != strings.Join(want[i], " ") {
			t.Errorf("line %d = %v, want %v", i, got[i], want[i])
		}
	}

	if _, err := run(t, "", "check", "--config", cfg, "--kind", "html", "/a.html"); !errors.HasCode(err, "E501") {
		t.Errorf("bad kind err = %v, want E501", err)
	}
}

func TestResolveCmd(t *testing.T) {
	cfg := newProject(t)
	dir := filepath.Dir(cfg)

	out, err := run(t, "", "resolve", "--config", cfg, "/js/app.js?v=1", "/css/theme.css", "/nope.css")
	if err != nil {
		t.Fatal(err)
	}
	got := fields(out)
	want := []string{
		filepath.Join(dir, "web", "js", "app.js"),
		filepath.Join(dir, "data", "web", "css", "theme.css"),
		"-",
	}
	for i, w := range want {
		if len(got[i]) != 2 || got[i][1] != w {
			t.Errorf("line %d = %v, want path %q", i, got[i], w)
		}
	}
}

func TestMtimeCmd(t *testing.T) {
	cfg := newProject(t)
	mod := time.Unix(1700000000, 0)
	if err := os.Chtimes(filepath.Join(filepath.Dir(cfg), "web", "js", "app.js"), mod, mod); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "", "mtime", "--config", cfg, "/js/app.js?v=2", "http://x.example.com/a.js", "/missing.js")
	if err != nil {
		t.Fatal(err)
	}
	got := fields(out)
	for i, want := range []string{"1700000000", "0", "0"} {
		if got[i][0] != want {
			t.Errorf("line %d = %v, want %s", i, got[i], want)
		}
	}
}

func TestMinifyCmd(t *testing.T) {
	cfg := newProject(t)

	out, err := run(t, "a { color : red ; }", "minify", "--config", cfg, "css")
	if err != nil {
		t.Fatal(err)
	}
	if out != "a{color:red}" {
		t.Errorf("stdin output = %q", out)
	}

	file := filepath.Join(filepath.Dir(cfg), "data", "web", "css", "theme.css")
	out, err = run(t, "", "minify", "--config", cfg, "css", file)
	if err != nil {
		t.Fatal(err)
	}
	if out != "a{color:red}" {
		t.Errorf("file output = %q", out)
	}

	if _, err := run(t, "", "minify", "--config", cfg, "html"); !errors.HasCode(err, "E501") {
		t.Errorf("bad kind err = %v, want E501", err)
	}
	if _, err := run(t, "", "minify", "--config", cfg, "js", "/does/not/exist.js"); !errors.HasCode(err, "E501") {
		t.Errorf("missing file err = %v, want E501", err)
	}
}

func TestBundleCmd(t *testing.T) {
	cfg := newProject(t)
	cacheDir := filepath.Join(filepath.Dir(cfg), "cache")

	out, err := run(t, "", "bundle", "--config", cfg, "/js/app.js", "/js/tinymce.js")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, cacheDir) {
		t.Errorf("output %q does not name the cache dir", out)
	}
	if !strings.Contains(out, "skipped /js/tinymce.js: excluded") {
		t.Errorf("output %q does not report the skipped reference", out)
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("cache entries = %v, err %v", entries, err)
	}
	data, _ := os.ReadFile(filepath.Join(cacheDir, entries[0].Name()))
	if string(data) != "app()" {
		t.Errorf("bundle = %q", data)
	}

	out, err = run(t, "", "bundle", "--config", cfg, "/js/app.js", "/js/tinymce.js")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "cached") {
		t.Errorf("second build output %q should report the cached bundle", out)
	}

	if _, err := run(t, "", "bundle", "--config", cfg, "/nope.js"); !errors.HasCode(err, "E302") {
		t.Errorf("empty bundle err = %v, want E302", err)
	}
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, "", "check", "--config", filepath.Join(t.TempDir(), "combine.json"), "/a.js")
	if !errors.HasCode(err, "E101") {
		t.Errorf("err = %v, want E101", err)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "", "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if out != "dev\n" {
		t.Errorf("output = %q", out)
	}

	out, err = run(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Go version:") {
		t.Errorf("output = %q", out)
	}
}

func TestInitCmd(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "", "init", dir, "--format", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "combine.yaml")
	if !strings.Contains(out, path) {
		t.Errorf("output = %q, want the written path", out)
	}

	// The written file must load and check cleanly.
	if _, err := run(t, "", "check", "--config", path, "https://cdn.example.com/a.js"); err != nil {
		t.Fatalf("check with generated config: %v", err)
	}

	if _, err := run(t, "", "init", dir); !errors.HasCode(err, "E103") {
		t.Errorf("second init = %v, want E103", err)
	}
	if _, err := run(t, "", "init", dir, "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "combine.json")); err != nil {
		t.Errorf("combine.json not written: %v", err)
	}

	if _, err := run(t, "", "init", t.TempDir(), "--format", "toml"); !errors.HasCode(err, "E501") {
		t.Errorf("unknown format = %v, want E501", err)
	}
}
