package bundle

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/combine/internal/errors"
	"github.com/vango-dev/combine/pkg/assets"
	"github.com/vango-dev/combine/pkg/minify"
)

type fixture struct {
	web     string
	data    string
	cache   string
	resolve *assets.Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		web:   filepath.Join(root, "web"),
		data:  filepath.Join(root, "data"),
		cache: filepath.Join(root, "cache"),
	}
	f.resolve = assets.NewResolver(f.web, f.data)
	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func upperRegistry() *minify.Registry {
	reg := minify.NewRegistry()
	reg.Register("upper", func(minify.Block) (minify.Minifier, error) {
		return minify.MinifierFunc(func(source, _ string, _ map[string]any) (string, error) {
			return strings.ToUpper(source), nil
		}), nil
	})
	reg.Register("broken", func(minify.Block) (minify.Minifier, error) {
		return minify.MinifierFunc(func(string, string, map[string]any) (string, error) {
			return "", stderrors.New("parse error")
		}), nil
	})
	return reg
}

func newDispatcher(t *testing.T, class string) *minify.Dispatcher {
	t.Helper()
	d, err := minify.NewDispatcher(upperRegistry(), minify.DispatcherConfig{
		Enabled: true,
		JS:      minify.Block{Class: class},
		CSS:     minify.Block{Class: class},
	})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return d
}

func readBundle(t *testing.T, b *Bundle) string {
	t.Helper()
	data, err := os.ReadFile(b.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(data)
}

func TestBuild_ConcatenatesScripts(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.web, "js", "a.js"), "var a = 1")
	writeFile(t, filepath.Join(f.web, "js", "b.js"), "var b = 2")

	b := NewBuilder(f.resolve, nil, Options{CacheDir: f.cache})
	out, err := b.Build(context.Background(), Request{
		Kind: minify.KindJS,
		Refs: []string{"/js/a.js", "http://cdn.example.com/x.js", "/js/b.js?v=2", "/js/missing.js"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := readBundle(t, out); got != "var a = 1;\nvar b = 2" {
		t.Errorf("bundle body = %q", got)
	}
	if want := []string{"/js/a.js", "/js/b.js?v=2"}; strings.Join(out.Included, " ") != strings.Join(want, " ") {
		t.Errorf("Included = %v, want %v", out.Included, want)
	}
	wantSkipped := []Skip{
		{Ref: "http://cdn.example.com/x.js", Decision: assets.Remote},
		{Ref: "/js/missing.js", Decision: assets.Missing},
	}
	if len(out.Skipped) != len(wantSkipped) {
		t.Fatalf("Skipped = %v, want %v", out.Skipped, wantSkipped)
	}
	for i, s := range wantSkipped {
		if out.Skipped[i] != s {
			t.Errorf("Skipped[%d] = %v, want %v", i, out.Skipped[i], s)
		}
	}

	if out.Cached {
		t.Error("first build should not be cached")
	}
	if !namePattern.MatchString(out.Name()) {
		t.Errorf("Name() = %q does not look like <key>.js", out.Name())
	}
	if out.Path != filepath.Join(f.cache, out.Name()) {
		t.Errorf("Path = %q", out.Path)
	}
	if out.Size != int64(len("var a = 1;\nvar b = 2")) {
		t.Errorf("Size = %d", out.Size)
	}
}

func TestBuild_StylesUseNewlineSeparator(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.web, "css", "a.css"), "a{}")
	writeFile(t, filepath.Join(f.data, "web", "css", "b.css"), "b{}")

	b := NewBuilder(f.resolve, nil, Options{CacheDir: f.cache})
	out, err := b.Build(context.Background(), Request{
		Kind: minify.KindCSS,
		Refs: []string{"/css/a.css", "/css/b.css"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := readBundle(t, out); got != "a{}\nb{}" {
		t.Errorf("bundle body = %q", got)
	}
	if !strings.HasSuffix(out.Name(), ".css") {
		t.Errorf("Name() = %q", out.Name())
	}
}

func TestBuild_ReusesAndInvalidates(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.web, "app.js")
	writeFile(t, path, "one()")
	old := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(f.resolve, nil, Options{CacheDir: f.cache})
	req := Request{Kind: minify.KindJS, Refs: []string{"/app.js"}}

	first, err := b.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := b.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !second.Cached || second.Key != first.Key {
		t.Errorf("second build: cached=%v key=%s, want cached key %s", second.Cached, second.Key, first.Key)
	}

	writeFile(t, path, "two()")
	newer := old.Add(time.Hour)
	if err := os.Chtimes(path, newer, newer); err != nil {
		t.Fatal(err)
	}

	third, err := b.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if third.Key == first.Key || third.Cached {
		t.Errorf("edited file should produce a new bundle, got key %s cached=%v", third.Key, third.Cached)
	}
	if got := readBundle(t, third); got != "two()" {
		t.Errorf("bundle body = %q", got)
	}
}

func TestBuild_KeyDependsOnKindAndOrder(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.web, "a.js"), "a")
	writeFile(t, filepath.Join(f.web, "b.js"), "b")
	b := NewBuilder(f.resolve, nil, Options{CacheDir: f.cache})

	ab, err := b.Build(context.Background(), Request{Kind: minify.KindJS, Refs: []string{"/a.js", "/b.js"}})
	if err != nil {
		t.Fatal(err)
	}
	ba, err := b.Build(context.Background(), Request{Kind: minify.KindJS, Refs: []string{"/b.js", "/a.js"}})
	if err != nil {
		t.Fatal(err)
	}
	if ab.Key == ba.Key {
		t.Error("reordered references should produce a different bundle")
	}
	if got := readBundle(t, ba); got != "b;\na" {
		t.Errorf("bundle body = %q", got)
	}
}

func TestBuild_Exclusions(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.web, "js", "app.js"), "app()")
	writeFile(t, filepath.Join(f.web, "js", "tinymce.js"), "tiny()")
	writeFile(t, filepath.Join(f.web, "js", "vendor.min.js"), "vendor()")

	b := NewBuilder(f.resolve, nil, Options{CacheDir: f.cache})
	out, err := b.Build(context.Background(), Request{
		Kind:       minify.KindJS,
		Refs:       []string{"/js/app.js", "/js/tinymce.js?v=4", "/js/vendor.min.js"},
		Exclusions: []string{"tinymce.js", `/\.min\.js$/`},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := readBundle(t, out); got != "app()" {
		t.Errorf("bundle body = %q", got)
	}
	for _, s := range out.Skipped {
		if s.Decision != assets.Excluded {
			t.Errorf("%s decision = %v, want excluded", s.Ref, s.Decision)
		}
	}
	if len(out.Skipped) != 2 {
		t.Errorf("Skipped = %v", out.Skipped)
	}
}

func TestBuild_NothingCombinable(t *testing.T) {
	f := newFixture(t)
	b := NewBuilder(f.resolve, nil, Options{CacheDir: f.cache})

	_, err := b.Build(context.Background(), Request{
		Kind: minify.KindCSS,
		Refs: []string{"https://fonts.example.com/a.css", "/missing.css"},
	})
	if !errors.HasCode(err, "E302") {
		t.Fatalf("err = %v, want E302", err)
	}
	if _, statErr := os.Stat(f.cache); !os.IsNotExist(statErr) {
		t.Error("cache dir should not be created when nothing is built")
	}
}

func TestBuild_UnknownKind(t *testing.T) {
	f := newFixture(t)
	b := NewBuilder(f.resolve, nil, Options{CacheDir: f.cache})

	_, err := b.Build(context.Background(), Request{Kind: "txt", Refs: []string{"/a.txt"}})
	if !errors.HasCode(err, "E301") {
		t.Fatalf("err = %v, want E301", err)
	}
}

func TestBuild_Minify(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.web, "a.js"), "one()")
	writeFile(t, filepath.Join(f.web, "b.js"), "two()")
	req := Request{Kind: minify.KindJS, Refs: []string{"/a.js", "/b.js"}}

	t.Run("enabled", func(t *testing.T) {
		b := NewBuilder(f.resolve, newDispatcher(t, "upper"), Options{CacheDir: t.TempDir(), Minify: true})
		out, err := b.Build(context.Background(), req)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if got := readBundle(t, out); got != "ONE();\nTWO()" {
			t.Errorf("bundle body = %q", got)
		}
	})

	t.Run("option off", func(t *testing.T) {
		b := NewBuilder(f.resolve, newDispatcher(t, "upper"), Options{CacheDir: t.TempDir()})
		out, err := b.Build(context.Background(), req)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if got := readBundle(t, out); got != "one();\ntwo()" {
			t.Errorf("bundle body = %q", got)
		}
	})

	t.Run("failure falls back to source", func(t *testing.T) {
		b := NewBuilder(f.resolve, newDispatcher(t, "broken"), Options{CacheDir: t.TempDir(), Minify: true})
		out, err := b.Build(context.Background(), req)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if got := readBundle(t, out); got != "one();\ntwo()" {
			t.Errorf("bundle body = %q", got)
		}
	})
}

func TestBuild_ManifestMapper(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.web, "js", "app.1a2b3c4d.js"), "hashed()")

	manifest := assets.NewManifest(map[string]string{"app.js": "app.1a2b3c4d.js"})

	b := NewBuilder(f.resolve, nil, Options{CacheDir: f.cache, Mapper: manifest.Mapper("/js/")})
	out, err := b.Build(context.Background(), Request{Kind: minify.KindJS, Refs: []string{"/app.js"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := readBundle(t, out); got != "hashed()" {
		t.Errorf("bundle body = %q", got)
	}
	if len(out.Included) != 1 || out.Included[0] != "/app.js" {
		t.Errorf("Included = %v, want the reference as requested", out.Included)
	}
}

func TestBuild_Hooks(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.web, "a.css"), "a{}")

	var decisions []assets.Decision
	var results []string
	b := NewBuilder(f.resolve, nil, Options{
		CacheDir:   f.cache,
		OnDecision: func(d assets.Decision) { decisions = append(decisions, d) },
		OnBuild: func(kind minify.Kind, result string, _ time.Duration) {
			if kind != minify.KindCSS {
				t.Errorf("OnBuild kind = %s", kind)
			}
			results = append(results, result)
		},
	})

	req := Request{Kind: minify.KindCSS, Refs: []string{"/a.css", "//x://y.css"}}
	for i := 0; i < 2; i++ {
		if _, err := b.Build(context.Background(), req); err != nil {
			t.Fatal(err)
		}
	}
	b.Build(context.Background(), Request{Kind: minify.KindCSS, Refs: []string{"/nope.css"}})

	wantDecisions := []assets.Decision{assets.Combinable, assets.Remote, assets.Combinable, assets.Remote, assets.Missing}
	if len(decisions) != len(wantDecisions) {
		t.Fatalf("decisions = %v, want %v", decisions, wantDecisions)
	}
	for i := range wantDecisions {
		if decisions[i] != wantDecisions[i] {
			t.Errorf("decisions[%d] = %v, want %v", i, decisions[i], wantDecisions[i])
		}
	}
	wantResults := []string{ResultBuilt, ResultCached, ResultError}
	if strings.Join(results, ",") != strings.Join(wantResults, ",") {
		t.Errorf("results = %v, want %v", results, wantResults)
	}
}

func TestBuild_Concurrent(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"a", "b", "c"} {
		writeFile(t, filepath.Join(f.web, name+".js"), strings.Repeat(name, 1000))
	}
	b := NewBuilder(f.resolve, nil, Options{CacheDir: f.cache})
	req := Request{Kind: minify.KindJS, Refs: []string{"/a.js", "/b.js", "/c.js"}}

	const n = 16
	keys := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := b.Build(context.Background(), req)
			errs[i] = err
			if err == nil {
				keys[i] = out.Key
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("Build %d: %v", i, errs[i])
		}
		if keys[i] != keys[0] {
			t.Fatalf("Build %d key = %s, want %s", i, keys[i], keys[0])
		}
	}

	entries, err := os.ReadDir(f.cache)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Fatalf("cache dir = %v, want a single bundle and no temp files", names)
	}
}

func TestBuild_Cancelled(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.web, "a.js"), "a")
	b := NewBuilder(f.resolve, nil, Options{CacheDir: f.cache})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Build(ctx, Request{Kind: minify.KindJS, Refs: []string{"/a.js"}})
	if !errors.HasCode(err, "E301") || !stderrors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want E301 wrapping context.Canceled", err)
	}
}

func TestOpen(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.web, "a.js"), "a")
	b := NewBuilder(f.resolve, nil, Options{CacheDir: f.cache})

	built, err := b.Build(context.Background(), Request{Kind: minify.KindJS, Refs: []string{"/a.js"}})
	if err != nil {
		t.Fatal(err)
	}

	got, err := b.Open(built.Name())
	if err != nil {
		t.Fatalf("Open(%q): %v", built.Name(), err)
	}
	if got.Key != built.Key || got.Kind != minify.KindJS || got.Path != built.Path || got.Size != built.Size {
		t.Errorf("Open = %+v, want %+v", got, built)
	}

	for _, name := range []string{
		"",
		"../etc/passwd",
		"0123456789abcdef.txt",
		"0123456789ABCDEF.js",
		"0123456789abcdef.js/..",
		"0123456789abcdef.css",
	} {
		if _, err := b.Open(name); !errors.HasCode(err, "E303") {
			t.Errorf("Open(%q) err = %v, want E303", name, err)
		}
	}
}

func TestBuild_SkipsOtherFileTypes(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.web, "index.php"), "<?php $password = 'secret';")
	writeFile(t, filepath.Join(f.web, ".env"), "SECRET=1")
	writeFile(t, filepath.Join(f.web, "site.css"), "p{}")
	writeFile(t, filepath.Join(f.web, "js", "app.js"), "app()")
	writeFile(t, filepath.Join(f.web, "js", "LEGACY.JS"), "legacy()")

	b := NewBuilder(f.resolve, nil, Options{CacheDir: f.cache})
	out, err := b.Build(context.Background(), Request{
		Kind: minify.KindJS,
		Refs: []string{"/index.php", "/.env", "/site.css", "/js/app.js", "/js/LEGACY.JS", "/index.php?x=.js"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := readBundle(t, out); got != "app();\nlegacy()" {
		t.Errorf("bundle body = %q", got)
	}
	wantSkipped := []string{"/index.php", "/.env", "/site.css", "/index.php?x=.js"}
	if len(out.Skipped) != len(wantSkipped) {
		t.Fatalf("Skipped = %+v, want %v", out.Skipped, wantSkipped)
	}
	for i, s := range out.Skipped {
		if s.Ref != wantSkipped[i] || s.Decision != assets.WrongKind {
			t.Errorf("Skipped[%d] = %+v, want %s wrong_kind", i, s, wantSkipped[i])
		}
	}

	_, err = b.Build(context.Background(), Request{Kind: minify.KindCSS, Refs: []string{"/index.php"}})
	if !errors.HasCode(err, "E302") {
		t.Errorf("only foreign files: err = %v, want E302", err)
	}
}

func TestBuild_QueryVariantsShareOneBundle(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.web, "js", "a.js"), "a()")
	b := NewBuilder(f.resolve, nil, Options{CacheDir: f.cache})

	var key string
	for i := 0; i < 20; i++ {
		ref := "/js/a.js?v=" + strings.Repeat("x", i)
		out, err := b.Build(context.Background(), Request{Kind: minify.KindJS, Refs: []string{ref}})
		if err != nil {
			t.Fatalf("Build(%s): %v", ref, err)
		}
		if i == 0 {
			key = out.Key
		} else if out.Key != key || !out.Cached {
			t.Fatalf("Build(%s) key=%s cached=%v, want cached %s", ref, out.Key, out.Cached, key)
		}
	}

	entries, err := os.ReadDir(f.cache)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("cache holds %d files after query variants of one asset, want 1", len(entries))
	}
}

func TestBuild_KeyTracksMinification(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.web, "a.js"), "a()")
	req := Request{Kind: minify.KindJS, Refs: []string{"/a.js"}}

	dispatcher := func(enabled bool, options map[string]any) *minify.Dispatcher {
		d, err := minify.NewDispatcher(upperRegistry(), minify.DispatcherConfig{
			Enabled: enabled,
			JS:      minify.Block{Class: "upper", Options: options},
		})
		if err != nil {
			t.Fatalf("NewDispatcher: %v", err)
		}
		return d
	}

	builds := []struct {
		name string
		b    *Builder
		body string
	}{
		{"no dispatcher", NewBuilder(f.resolve, nil, Options{CacheDir: f.cache, Minify: true}), "a()"},
		{"dispatcher disabled", NewBuilder(f.resolve, dispatcher(false, nil), Options{CacheDir: f.cache, Minify: true}), "a()"},
		{"minify enabled", NewBuilder(f.resolve, dispatcher(true, nil), Options{CacheDir: f.cache, Minify: true}), "A()"},
		{"options changed", NewBuilder(f.resolve, dispatcher(true, map[string]any{"level": 2}), Options{CacheDir: f.cache, Minify: true}), "A()"},
	}

	keys := map[string]string{}
	for _, tt := range builds {
		out, err := tt.b.Build(context.Background(), req)
		if err != nil {
			t.Fatalf("%s: Build: %v", tt.name, err)
		}
		if got := readBundle(t, out); got != tt.body {
			t.Errorf("%s: body = %q, want %q", tt.name, got, tt.body)
		}
		keys[tt.name] = out.Key
	}

	if keys["no dispatcher"] != keys["dispatcher disabled"] {
		t.Error("unminified builds should share a key")
	}
	if keys["dispatcher disabled"] == keys["minify enabled"] {
		t.Error("turning minification on should change the key")
	}
	if keys["minify enabled"] == keys["options changed"] {
		t.Error("changing minifier options should change the key")
	}
}
