package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/combine/internal/config"
	"github.com/vango-dev/combine/internal/errors"
	"github.com/vango-dev/combine/pkg/assets"
	"github.com/vango-dev/combine/pkg/bundle"
	"github.com/vango-dev/combine/pkg/headers"
	"github.com/vango-dev/combine/pkg/middleware"
	"github.com/vango-dev/combine/pkg/minify"
)

// Server timeouts.
const (
	ReadHeaderTimeout = 5 * time.Second
	ReadTimeout       = 30 * time.Second
	WriteTimeout      = 60 * time.Second
	IdleTimeout       = 120 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMinifiers sets the minifier registry, for custom minifier classes.
// Defaults to minify.NewRegistry().
func WithMinifiers(reg *minify.Registry) Option {
	return func(s *Server) {
		s.minifiers = reg
	}
}

// WithMetricsRegistry registers metrics with reg and serves reg on
// /metrics. Defaults to the Prometheus default registry.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registerer = reg
		s.gatherer = reg
	}
}

// Server is the combine HTTP server.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	minifiers  *minify.Registry
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer

	resolver   *assets.Resolver
	dispatcher *minify.Dispatcher
	builder    *bundle.Builder
	router     chi.Router

	httpServer *http.Server
}

// New validates cfg and builds the server.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:        cfg,
		logger:     slog.Default(),
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.minifiers == nil {
		s.minifiers = minify.NewRegistry()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Server.Metrics {
		middleware.InitMetrics(middleware.WithRegistry(s.registerer))
	}

	mapper, err := cfg.Mapper()
	if err != nil {
		return nil, err
	}

	dcfg := cfg.DispatcherConfig()
	dcfg.Logger = s.logger
	dcfg.OnResult = func(kind minify.Kind, err error) {
		middleware.RecordMinify(string(kind), err)
	}
	if s.dispatcher, err = minify.NewDispatcher(s.minifiers, dcfg); err != nil {
		return nil, err
	}

	s.resolver = cfg.Resolver()
	s.builder = bundle.NewBuilder(s.resolver, s.dispatcher, bundle.Options{
		CacheDir: cfg.CacheDir(),
		Mapper:   mapper,
		Minify:   true,
		Logger:   s.logger,
		OnDecision: func(d assets.Decision) {
			middleware.RecordDecision(d.String())
		},
		OnBuild: func(kind minify.Kind, result string, d time.Duration) {
			middleware.RecordBuild(string(kind), result, d)
		},
	})

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.logRequests)
	r.Use(chimw.Recoverer)
	if s.cfg.Server.Metrics {
		r.Use(middleware.Prometheus(middleware.WithRegistry(s.registerer)))
	}
	r.Use(middleware.OpenTelemetry(middleware.WithRequestFilter(func(r *http.Request) bool {
		return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
	})))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	if s.cfg.Server.Metrics {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	h := bundle.NewHandler(s.builder, s.dispatcher, bundle.HandlerConfig{
		Exclusions: map[minify.Kind][]string{
			minify.KindJS:  s.cfg.Exclusions(minify.KindJS),
			minify.KindCSS: s.cfg.Exclusions(minify.KindCSS),
		},
		Cache:  s.cfg.CacheConfig(),
		Logger: s.logger,
	})
	r.Route(s.cfg.Server.Prefix, func(r chi.Router) {
		r.Use(headers.Gzip(s.cfg.GzipConfig()))
		r.Mount("/", h.Routes())
	})
	return r
}

// logRequests logs every request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Resolver returns the asset resolver.
func (s *Server) Resolver() *assets.Resolver {
	return s.resolver
}

// Dispatcher returns the minification dispatcher.
func (s *Server) Dispatcher() *minify.Dispatcher {
	return s.dispatcher
}

// Builder returns the bundle builder.
func (s *Server) Builder() *bundle.Builder {
	return s.builder
}

// Run listens on the configured address until ctx is cancelled or the
// process receives SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Address)
	if err != nil {
		return errors.New("E401").WithDetailf("listen on %s", s.cfg.Server.Address).Wrap(err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			"address", ln.Addr().String(),
			"prefix", s.cfg.Server.Prefix,
			"web", s.cfg.WebDir(),
			"cache", s.cfg.CacheDir(),
			"minify", s.dispatcher.Enabled(),
		)
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.New("E401").Wrap(err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server within the configured
// shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout())
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return errors.New("E401").WithDetail("graceful shutdown").Wrap(err)
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
