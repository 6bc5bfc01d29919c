package bundle

import (
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/combine/internal/errors"
	"github.com/vango-dev/combine/pkg/assets"
	"github.com/vango-dev/combine/pkg/headers"
	"github.com/vango-dev/combine/pkg/minify"
)

// assetRelPath validates the wildcard part of a single-asset request and
// returns it as an absolute reference. Only .js and .css files are served.
func assetRelPath(rel string) (string, minify.Kind, bool) {
	if rel == "" || strings.IndexByte(rel, 0) != -1 || strings.Contains(rel, "\\") {
		return "", "", false
	}
	// A leading "/" after the prefix is an absolute-path attempt.
	if strings.HasPrefix(rel, "/") {
		return "", "", false
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", "", false
		}
	}

	kind, err := minify.ParseKind(strings.TrimPrefix(path.Ext(rel), "."))
	if err != nil {
		return "", "", false
	}
	return "/" + rel, kind, true
}

// serveAsset serves one unbundled asset from the candidate roots, for
// references a page includes individually.
func (h *Handler) serveAsset(w http.ResponseWriter, r *http.Request) {
	ref, kind, ok := assetRelPath(chi.URLParam(r, "*"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	p, found := h.builder.resolver.FilePath(ref)
	if !found {
		h.writeError(w, r, http.StatusNotFound, errors.New("E303").WithDetailf("asset %s does not exist", ref))
		return
	}

	f, err := os.Open(p)
	if err != nil {
		h.writeError(w, r, http.StatusNotFound, errors.New("E303").WithDetailf("asset %s", ref).Wrap(err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", kind.ContentType())
	headers.SetCacheHeaders(w, h.cfg.Cache, h.now())
	if h.cfg.Cache.Lifetime() > 0 && isFingerprinted(ref) {
		headers.AddCacheControl(w.Header(), "immutable")
	}

	http.ServeContent(w, r, path.Base(ref), info.ModTime(), f)
}

// isFingerprinted reports whether the file name carries a content hash,
// e.g. "app.a1b2c3d4.css".
func isFingerprinted(ref string) bool {
	parts := strings.Split(assets.StripQuery(path.Base(ref)), ".")
	if len(parts) < 3 {
		return false
	}

	hash := parts[len(parts)-2]
	if len(hash) < 8 {
		return false
	}
	for _, c := range hash {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
