package assets

import (
	"encoding/json"
	"os"
	"strings"
)

// Manifest maps source asset paths to their versioned names, as written by
// a fingerprinting build step:
//
//	{
//	  "js/app.js": "js/app.a1b2c3d4.js",
//	  "css/site.css": "css/site.e5f6a7b8.css"
//	}
//
// A Manifest is read-only once created and safe for concurrent use.
type Manifest struct {
	entries map[string]string
}

// NewManifest creates a manifest holding a copy of entries.
func NewManifest(entries map[string]string) *Manifest {
	m := &Manifest{entries: make(map[string]string, len(entries))}
	for source, resolved := range entries {
		m.entries[source] = resolved
	}
	return m
}

// LoadManifest reads a JSON manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return NewManifest(entries), nil
}

// Resolve returns the versioned path for source, or source unchanged.
func (m *Manifest) Resolve(source string) string {
	if resolved, ok := m.entries[source]; ok {
		return resolved
	}
	return source
}

// Mapper returns a PathMapper that looks up the query-stripped reference
// (without its leading slash) in the manifest and places the result under
// prefix. The query suffix is kept. An empty prefix means "/".
func (m *Manifest) Mapper(prefix string) PathMapper {
	if prefix == "" {
		prefix = "/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return func(reference string) string {
		if strings.Contains(reference, "://") {
			return reference
		}
		stripped := StripQuery(reference)
		query := reference[len(stripped):]
		return prefix + m.Resolve(strings.TrimPrefix(stripped, "/")) + query
	}
}
