package assets

import (
	"path/filepath"
	"strings"
)

// NormalizePath collapses "." and ".." segments without touching the
// filesystem. Both '/' and '\' separate segments and the result uses the
// platform separator. A ".." with nothing left to pop is dropped. A leading
// separator is preserved; the empty string is returned unchanged.
func NormalizePath(p string) string {
	if p == "" {
		return p
	}

	absolute := p[0] == '/' || p[0] == '\\'
	segments := strings.FieldsFunc(p, isSeparator)

	kept := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case ".":
		case "..":
			if len(kept) > 0 {
				kept = kept[:len(kept)-1]
			}
		default:
			kept = append(kept, seg)
		}
	}

	out := strings.Join(kept, string(filepath.Separator))
	if absolute {
		out = string(filepath.Separator) + out
	}
	return out
}

// StripQuery removes everything from the first '?' onward.
func StripQuery(reference string) string {
	if i := strings.IndexByte(reference, '?'); i >= 0 {
		return reference[:i]
	}
	return reference
}

// basename returns the final segment of a reference.
func basename(reference string) string {
	if i := strings.LastIndexFunc(reference, isSeparator); i >= 0 {
		return reference[i+1:]
	}
	return reference
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}
