package headers

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultPragma is the Pragma value used when none is configured.
const DefaultPragma = "public"

// MaxCacheDays caps the client cache lifetime at ten years. Larger values
// are clamped.
const MaxCacheDays = 3650

// CacheConfig configures client caching headers.
type CacheConfig struct {
	// MaxAgeDays is the client cache lifetime in days. Zero or less disables
	// the headers.
	MaxAgeDays int

	// Pragma is the Pragma header value. Defaults to "public".
	Pragma string
}

// Lifetime returns the configured lifetime, at most MaxCacheDays.
func (c CacheConfig) Lifetime() time.Duration {
	days := c.MaxAgeDays
	if days <= 0 {
		return 0
	}
	if days > MaxCacheDays {
		days = MaxCacheDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// SetCacheHeaders sets Cache-Control max-age, Pragma and Expires on w.
// It does nothing when no max age is configured.
func SetCacheHeaders(w http.ResponseWriter, cfg CacheConfig, now time.Time) {
	lifetime := cfg.Lifetime()
	if lifetime == 0 {
		return
	}

	seconds := int64(lifetime / time.Second)
	h := w.Header()
	AddCacheControl(h, "max-age="+strconv.FormatInt(seconds, 10))

	pragma := cfg.Pragma
	if pragma == "" {
		pragma = DefaultPragma
	}
	h.Set("Pragma", pragma)
	h.Set("Expires", now.Add(lifetime).UTC().Format(http.TimeFormat))
}

// AddCacheControl merges directive into the Cache-Control header. A
// directive with the same name replaces the existing one.
func AddCacheControl(h http.Header, directive string) {
	name := directiveName(directive)

	existing := h.Get("Cache-Control")
	if existing == "" {
		h.Set("Cache-Control", directive)
		return
	}

	parts := strings.Split(existing, ",")
	kept := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || strings.EqualFold(directiveName(p), name) {
			continue
		}
		kept = append(kept, p)
	}
	kept = append(kept, directive)
	h.Set("Cache-Control", strings.Join(kept, ", "))
}

func directiveName(directive string) string {
	if i := strings.IndexByte(directive, '='); i >= 0 {
		return strings.TrimSpace(directive[:i])
	}
	return strings.TrimSpace(directive)
}
