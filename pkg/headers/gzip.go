package headers

import (
	"compress/gzip"
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// GzipConfig configures the compression gate.
type GzipConfig struct {
	// Enabled turns compression on.
	Enabled bool

	// LegacyUserAgentCheck refuses compression for legacy browsers (see
	// LegacyUserAgentDenied).
	LegacyUserAgentCheck bool

	// Level is the gzip level. Zero selects gzip.DefaultCompression.
	Level int

	// ContentTypes are the compressible content types. Empty selects
	// scripts, styles, HTML, JSON and plain text.
	ContentTypes []string
}

// DefaultContentTypes are compressed when GzipConfig.ContentTypes is empty.
var DefaultContentTypes = []string{
	"application/javascript",
	"text/javascript",
	"text/css",
	"text/html",
	"text/plain",
	"application/json",
}

type gzipActiveKey struct{}

// GzipActive reports whether an outer Gzip middleware already compresses
// the response for r.
func GzipActive(r *http.Request) bool {
	active, _ := r.Context().Value(gzipActiveKey{}).(bool)
	return active
}

// Gzip returns middleware that compresses responses when cfg allows it for
// the request.
func Gzip(cfg GzipConfig) func(http.Handler) http.Handler {
	level := cfg.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	types := cfg.ContentTypes
	if len(types) == 0 {
		types = DefaultContentTypes
	}
	compressor := middleware.NewCompressor(level, types...)

	return func(next http.Handler) http.Handler {
		compressed := compressor.Handler(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || GzipActive(r) || w.Header().Get("Content-Encoding") != "" {
				next.ServeHTTP(w, r)
				return
			}
			if cfg.LegacyUserAgentCheck && LegacyUserAgentDenied(r.UserAgent()) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), gzipActiveKey{}, true)
			compressed.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LegacyUserAgentDenied reports whether ua is Internet Explorer 6 or older
// without the "SV1" marker. Those builds corrupt gzip-encoded scripts and
// styles; IE6 with SV1 (XP SP2) handles them.
func LegacyUserAgentDenied(ua string) bool {
	i := strings.Index(ua, "MSIE ")
	if i < 0 {
		return false
	}

	rest := ua[i+len("MSIE "):]
	end := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
	if end == 0 {
		return false
	}
	if end > 0 {
		rest = rest[:end]
	}
	major, err := strconv.Atoi(rest)
	if err != nil {
		return false
	}

	return major <= 6 && !strings.Contains(ua, "SV1")
}
