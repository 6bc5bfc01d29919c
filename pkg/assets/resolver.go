package assets

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Decision is the outcome of an eligibility check.
type Decision int

const (
	// Combinable means the reference can go into a bundle.
	Combinable Decision = iota
	// Remote means the reference carries a scheme ("://").
	Remote
	// Excluded means the reference matched the exclusion list.
	Excluded
	// Missing means an absolute reference exists under no candidate root.
	Missing
	// WrongKind means the file extension does not match the bundle being
	// built. Resolver never returns it; bundlers set it.
	WrongKind
)

// String returns the lower-case decision name, used as a metrics label.
func (d Decision) String() string {
	switch d {
	case Combinable:
		return "combinable"
	case Remote:
		return "remote"
	case Excluded:
		return "excluded"
	case Missing:
		return "missing"
	case WrongKind:
		return "wrong_kind"
	default:
		return "unknown"
	}
}

// FallbackWebDir is the subdirectory of the data directory searched after
// the web directory.
const FallbackWebDir = "web"

// Resolver checks eligibility and resolves references against the
// candidate roots. It holds no per-call state and is safe for concurrent use.
type Resolver struct {
	webDir  string
	dataDir string

	stat func(string) (fs.FileInfo, error)
}

// NewResolver creates a Resolver searching webDir and then dataDir/web.
// An empty directory is skipped.
func NewResolver(webDir, dataDir string) *Resolver {
	return &Resolver{
		webDir:  webDir,
		dataDir: dataDir,
		stat:    os.Stat,
	}
}

// Roots returns the candidate roots in search order.
func (r *Resolver) Roots() []string {
	roots := make([]string, 0, 2)
	if r.webDir != "" {
		roots = append(roots, r.webDir)
	}
	if r.dataDir != "" {
		roots = append(roots, filepath.Join(r.dataDir, FallbackWebDir))
	}
	return roots
}

// Check runs the eligibility rules and reports why a reference is or is
// not combinable.
func (r *Resolver) Check(reference string, exclusions []string) Decision {
	if strings.Contains(reference, "://") {
		return Remote
	}
	if SkipAsset(reference, exclusions) {
		return Excluded
	}

	stripped := StripQuery(reference)
	if SkipAsset(stripped, exclusions) {
		return Excluded
	}

	if strings.HasPrefix(stripped, "/") {
		if _, _, ok := r.lookup(stripped); !ok {
			return Missing
		}
	}
	return Combinable
}

// CombinableFile reports whether reference may be combined into a bundle.
func (r *Resolver) CombinableFile(reference string, exclusions []string) bool {
	return r.Check(reference, exclusions) == Combinable
}

// FilePath returns the first candidate path that exists for reference.
// The reference is expected without a query suffix.
func (r *Resolver) FilePath(reference string) (string, bool) {
	p, _, ok := r.lookup(reference)
	return p, ok
}

// lookup probes the candidate roots in order and returns the first regular
// file. The reference is normalized as an absolute path first so it cannot
// climb above its root.
func (r *Resolver) lookup(reference string) (string, fs.FileInfo, bool) {
	rel := NormalizePath(string(filepath.Separator) + reference)
	for _, root := range r.Roots() {
		candidate := filepath.Join(root, rel)
		info, err := r.stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, info, true
		}
	}
	return "", nil, false
}
