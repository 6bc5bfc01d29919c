package assets

import "strings"

// PathMapper rewrites a reference before it is resolved, e.g. to apply a
// versioned-asset manifest or a path prefix.
type PathMapper func(reference string) string

// ModifiedTimestamp returns the modification time of the file behind
// reference in epoch seconds, for cache busting. A nil mapper is skipped.
// It returns 0 when the mapped reference is not combinable, cannot be
// resolved, or has no modification time.
func (r *Resolver) ModifiedTimestamp(reference string, mapper PathMapper) int64 {
	if mapper != nil {
		reference = mapper(reference)
	}
	if !r.CombinableFile(reference, nil) {
		return 0
	}

	_, info, ok := r.lookup(StripQuery(reference))
	if !ok || info == nil {
		return 0
	}
	mod := info.ModTime()
	if mod.IsZero() {
		return 0
	}
	return mod.Unix()
}

// PrefixMapper returns a PathMapper that prepends prefix to every reference.
// Duplicate slashes at the seam are collapsed.
func PrefixMapper(prefix string) PathMapper {
	return func(reference string) string {
		if prefix == "" {
			return reference
		}
		return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(reference, "/")
	}
}
