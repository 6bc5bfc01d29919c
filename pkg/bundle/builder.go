package bundle

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/vango-dev/combine/internal/errors"
	"github.com/vango-dev/combine/pkg/assets"
	"github.com/vango-dev/combine/pkg/minify"
)

// Build results reported to Options.OnBuild.
const (
	ResultBuilt  = "built"
	ResultCached = "cached"
	ResultError  = "error"
)

// Options configures a Builder.
type Options struct {
	// CacheDir is where bundle files are written. Created on demand.
	CacheDir string

	// Mapper rewrites each reference before it is checked, e.g. a
	// manifest mapper for versioned assets. Nil leaves references as is.
	Mapper assets.PathMapper

	// Minify runs bundle bodies through the dispatcher. The dispatcher's
	// own Enabled flag still applies.
	Minify bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// OnDecision, if set, is called with the decision for every reference.
	OnDecision func(assets.Decision)

	// OnBuild, if set, is called once per Build with the outcome.
	OnBuild func(kind minify.Kind, result string, duration time.Duration)
}

// Request describes one bundle.
type Request struct {
	Kind       minify.Kind
	Refs       []string
	Exclusions []string
}

// Skip is a reference left out of a bundle.
type Skip struct {
	Ref      string
	Decision assets.Decision
}

// Bundle is a built bundle file.
type Bundle struct {
	Key      string
	Kind     minify.Kind
	Path     string
	Included []string
	Skipped  []Skip
	Size     int64
	ModTime  time.Time

	// Cached reports that the file already existed.
	Cached bool
}

// Name returns the bundle's file name, "<key>.<kind>".
func (b *Bundle) Name() string {
	return b.Key + "." + string(b.Kind)
}

// Builder builds bundles. It is safe for concurrent use; concurrent builds
// of the same bundle share one build.
type Builder struct {
	resolver   *assets.Resolver
	dispatcher *minify.Dispatcher
	opts       Options
	logger     *slog.Logger
	tracer     trace.Tracer
	group      singleflight.Group
}

// NewBuilder creates a Builder. dispatcher may be nil, which disables
// minification.
func NewBuilder(resolver *assets.Resolver, dispatcher *minify.Dispatcher, opts Options) *Builder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		resolver:   resolver,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     logger,
		tracer:     otel.Tracer("combine/bundle"),
	}
}

// CacheDir returns the directory bundles are written to.
func (b *Builder) CacheDir() string {
	return b.opts.CacheDir
}

type part struct {
	ref  string
	path string
}

type plan struct {
	key      string
	parts    []part
	included []string
	skipped  []Skip
}

type fileResult struct {
	size    int64
	modTime time.Time
	cached  bool
}

// Build builds, or reuses, the bundle for req.
func (b *Builder) Build(ctx context.Context, req Request) (*Bundle, error) {
	start := time.Now()
	ctx, span := b.tracer.Start(ctx, "bundle.build", trace.WithAttributes(
		attribute.String("combine.kind", string(req.Kind)),
		attribute.Int("combine.refs", len(req.Refs)),
	))
	defer span.End()

	out, err := b.build(ctx, req)

	result := ResultError
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case out.Cached:
		result = ResultCached
	default:
		result = ResultBuilt
	}
	if err == nil {
		span.SetAttributes(
			attribute.String("combine.bundle", out.Name()),
			attribute.Int("combine.skipped", len(out.Skipped)),
			attribute.Bool("combine.cached", out.Cached),
		)
	}
	if b.opts.OnBuild != nil {
		b.opts.OnBuild(req.Kind, result, time.Since(start))
	}
	return out, err
}

func (b *Builder) build(ctx context.Context, req Request) (*Bundle, error) {
	if _, err := minify.ParseKind(string(req.Kind)); err != nil {
		return nil, errors.New("E301").WithDetail("unknown bundle kind").Wrap(err)
	}

	p := b.plan(req)
	if len(p.parts) == 0 {
		return nil, errors.New("E302").
			WithDetailf("%d %s references requested, none combinable", len(req.Refs), req.Kind).
			WithSuggestion("Check that local references start with / and exist under the web directory")
	}

	path := filepath.Join(b.opts.CacheDir, p.key+"."+string(req.Kind))
	v, err, shared := b.group.Do(path, func() (any, error) {
		return b.materialize(ctx, req.Kind, path, p.parts)
	})
	if err != nil {
		return nil, err
	}
	res := v.(fileResult)

	b.logger.Debug("bundle ready",
		"bundle", filepath.Base(path),
		"included", len(p.included),
		"skipped", len(p.skipped),
		"cached", res.cached,
		"shared", shared,
	)

	return &Bundle{
		Key:      p.key,
		Kind:     req.Kind,
		Path:     path,
		Included: p.included,
		Skipped:  p.skipped,
		Size:     res.size,
		ModTime:  res.modTime,
		Cached:   res.cached,
	}, nil
}

// plan decides which references go into the bundle and derives its key.
func (b *Builder) plan(req Request) plan {
	var p plan
	h := xxhash.New()
	h.WriteString(string(req.Kind))
	h.WriteString("\x00")
	h.WriteString(b.minifyFingerprint(req.Kind))

	for _, ref := range req.Refs {
		mapped := ref
		if b.opts.Mapper != nil {
			mapped = b.opts.Mapper(ref)
		}

		stripped := assets.StripQuery(mapped)
		decision := b.resolver.Check(mapped, req.Exclusions)
		if decision == assets.Combinable && !hasKind(stripped, req.Kind) {
			decision = assets.WrongKind
		}
		var path string
		if decision == assets.Combinable {
			var ok bool
			if path, ok = b.resolver.FilePath(stripped); !ok {
				decision = assets.Missing
			}
		}
		if b.opts.OnDecision != nil {
			b.opts.OnDecision(decision)
		}
		if decision != assets.Combinable {
			p.skipped = append(p.skipped, Skip{Ref: ref, Decision: decision})
			continue
		}

		// Query strings stay out of the key; the timestamp tracks versions.
		h.WriteString("\x00")
		h.WriteString(stripped)
		h.WriteString("\x00")
		h.WriteString(strconv.FormatInt(b.resolver.ModifiedTimestamp(mapped, nil), 10))

		p.parts = append(p.parts, part{ref: ref, path: path})
		p.included = append(p.included, ref)
	}

	p.key = fmt.Sprintf("%016x", h.Sum64())
	return p
}

// hasKind reports whether the reference's extension matches the bundle kind.
func hasKind(reference string, kind minify.Kind) bool {
	ext := filepath.Ext(strings.ReplaceAll(reference, "\\", "/"))
	return strings.EqualFold(strings.TrimPrefix(ext, "."), string(kind))
}

// minifyFingerprint is the part of the key that tracks minification settings.
func (b *Builder) minifyFingerprint(kind minify.Kind) string {
	if !b.opts.Minify || b.dispatcher == nil {
		return "off"
	}
	return b.dispatcher.Fingerprint(kind)
}

// materialize returns the bundle file at path, writing it first if needed.
func (b *Builder) materialize(ctx context.Context, kind minify.Kind, path string, parts []part) (fileResult, error) {
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return fileResult{size: info.Size(), modTime: info.ModTime(), cached: true}, nil
	}

	body, err := b.concat(ctx, kind, parts)
	if err != nil {
		return fileResult{}, err
	}

	if b.opts.Minify && b.dispatcher != nil {
		minified, err := b.dispatcher.Minify(kind, body)
		if err != nil {
			// The dispatcher already logged the failure; ship the bundle
			// unminified rather than breaking the page.
			b.logger.Warn("serving unminified bundle", "bundle", filepath.Base(path))
		} else {
			body = minified
		}
	}

	if err := writeAtomic(path, []byte(body)); err != nil {
		return fileResult{}, errors.New("E301").WithDetailf("write %s", filepath.Base(path)).Wrap(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fileResult{}, errors.New("E301").WithDetailf("stat %s", filepath.Base(path)).Wrap(err)
	}
	b.logger.Info("bundle built", "bundle", filepath.Base(path), "parts", len(parts), "bytes", info.Size())
	return fileResult{size: info.Size(), modTime: info.ModTime()}, nil
}

// separator returns the text placed between concatenated parts. Scripts get
// a semicolon so a file without a trailing one cannot merge into the next.
func separator(kind minify.Kind) string {
	if kind == minify.KindJS {
		return ";\n"
	}
	return "\n"
}

func (b *Builder) concat(ctx context.Context, kind minify.Kind, parts []part) (string, error) {
	var sb strings.Builder
	sep := separator(kind)
	for i, p := range parts {
		if err := ctx.Err(); err != nil {
			return "", errors.New("E301").WithDetail("build cancelled").Wrap(err)
		}
		data, err := os.ReadFile(p.path)
		if err != nil {
			return "", errors.New("E301").WithDetailf("read %s", p.ref).Wrap(err)
		}
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.Write(data)
	}
	return sb.String(), nil
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place, so readers never see a partial bundle.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

var namePattern = regexp.MustCompile(`^[0-9a-f]{16}\.(js|css)$`)

// Open returns the cached bundle called name ("<key>.<kind>").
func (b *Builder) Open(name string) (*Bundle, error) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return nil, errors.New("E303").WithDetailf("invalid bundle name %q", name)
	}

	path := filepath.Join(b.opts.CacheDir, name)
	info, err := os.Stat(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.New("E303").WithDetailf("bundle %s does not exist", name)
		}
		return nil, errors.New("E303").WithDetailf("bundle %s", name).Wrap(err)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.New("E303").WithDetailf("bundle %s is not a file", name)
	}

	return &Bundle{
		Key:     strings.TrimSuffix(name, "."+m[1]),
		Kind:    minify.Kind(m[1]),
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Cached:  true,
	}, nil
}
