package bundle

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/combine/internal/errors"
	"github.com/vango-dev/combine/pkg/headers"
	"github.com/vango-dev/combine/pkg/minify"
)

// MaxMinifyBody caps request bodies accepted by the minify endpoint.
const MaxMinifyBody = 4 << 20

// Response headers set by Handler.
const (
	HeaderSkipped = "X-Combine-Skipped"
	HeaderBundle  = "X-Combine-Bundle"
)

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	// Exclusions are applied to every build of the given kind.
	Exclusions map[minify.Kind][]string

	// Cache sets the client caching headers on bundle responses.
	Cache headers.CacheConfig

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Handler serves bundles over HTTP.
type Handler struct {
	builder    *Builder
	dispatcher *minify.Dispatcher
	cfg        HandlerConfig
	logger     *slog.Logger
	now        func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(builder *Builder, dispatcher *minify.Dispatcher, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		builder:    builder,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Routes returns the bundle routes, to be mounted under a prefix:
//
//	GET  /{kind}?f=<ref>&f=<ref>   build and serve a bundle
//	GET  /b/{name}                 serve a cached bundle
//	GET  /f/*                      serve one asset unbundled
//	POST /minify/{kind}            minify the request body
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/b/{name}", h.serveCached)
	r.Get("/f/*", h.serveAsset)
	r.Get("/{kind}", h.serveBuild)
	r.Post("/minify/{kind}", h.serveMinify)
	return r
}

func (h *Handler) serveBuild(w http.ResponseWriter, r *http.Request) {
	kind, err := minify.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	refs := r.URL.Query()["f"]
	if len(refs) == 0 {
		h.writeError(w, r, http.StatusBadRequest,
			errors.New("E302").WithDetail("no references given").WithSuggestion("Pass one f query parameter per asset"))
		return
	}

	b, err := h.builder.Build(r.Context(), Request{
		Kind:       kind,
		Refs:       refs,
		Exclusions: h.cfg.Exclusions[kind],
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.HasCode(err, "E302") {
			status = http.StatusNotFound
		}
		h.writeError(w, r, status, err)
		return
	}

	if len(b.Skipped) > 0 {
		skipped := make([]string, len(b.Skipped))
		for i, s := range b.Skipped {
			skipped[i] = s.Ref
		}
		w.Header().Set(HeaderSkipped, strings.Join(skipped, ","))
	}
	h.serveFile(w, r, b)
}

func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request) {
	b, err := h.builder.Open(chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, http.StatusNotFound, err)
		return
	}
	h.serveFile(w, r, b)
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, b *Bundle) {
	f, err := os.Open(b.Path)
	if err != nil {
		h.writeError(w, r, http.StatusNotFound, errors.New("E303").WithDetailf("bundle %s", b.Name()).Wrap(err))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", b.Kind.ContentType())
	w.Header().Set(HeaderBundle, b.Name())
	headers.SetCacheHeaders(w, h.cfg.Cache, h.now())
	http.ServeContent(w, r, b.Name(), b.ModTime, f)
}

func (h *Handler) serveMinify(w http.ResponseWriter, r *http.Request) {
	kind, err := minify.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxMinifyBody))
	if err != nil {
		h.writeError(w, r, http.StatusRequestEntityTooLarge, errors.New("E201").WithDetail("request body").Wrap(err))
		return
	}

	out, err := h.dispatcher.Minify(kind, string(body))
	if err != nil {
		h.writeError(w, r, http.StatusUnprocessableEntity, err)
		return
	}

	w.Header().Set("Content-Type", kind.ContentType())
	io.WriteString(w, out)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	ce := errors.FromError(err, "E301")
	if status >= http.StatusInternalServerError {
		h.logger.Error("bundle request failed", "path", r.URL.Path, "error", ce.FormatCompact())
	} else {
		h.logger.Debug("bundle request rejected", "path", r.URL.Path, "status", status, "error", ce.FormatCompact())
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	io.WriteString(w, ce.FormatJSON())
}
