package minify

import (
	"fmt"

	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
)

const (
	mediaJS  = "application/javascript"
	mediaCSS = "text/css"
)

// tdewolffMinifier wraps github.com/tdewolff/minify/v2.
//
// Methods:
//   - "" or "default": minify a script or stylesheet
//   - "inline" (CSS only): minify a style attribute's declaration list
//
// Options:
//   - "precision" (int): significant digits kept in numbers, 0 keeps all
//   - "keepVarNames" (bool, JS only): do not rename local variables
type tdewolffMinifier struct {
	kind  Kind
	block Block
}

func newTdewolffFactory(kind Kind) Factory {
	return func(block Block) (Minifier, error) {
		m := &tdewolffMinifier{kind: kind, block: block}
		// Reject a bad configured method at construction time.
		if _, err := m.build(block.Method, block.Options); err != nil {
			return nil, err
		}
		return m, nil
	}
}

func (t *tdewolffMinifier) Minify(source, method string, options map[string]any) (string, error) {
	m, err := t.build(method, options)
	if err != nil {
		return "", err
	}
	return m.String(t.mediatype(), source)
}

func (t *tdewolffMinifier) mediatype() string {
	if t.kind == KindCSS {
		return mediaCSS
	}
	return mediaJS
}

func (t *tdewolffMinifier) build(method string, options map[string]any) (*tdminify.M, error) {
	precision, _, err := intOption(options, "precision")
	if err != nil {
		return nil, err
	}

	m := tdminify.New()
	switch t.kind {
	case KindCSS:
		inline := false
		switch method {
		case "", "default":
		case "inline":
			inline = true
		default:
			return nil, fmt.Errorf("%w: %q for css", ErrUnknownMethod, method)
		}
		m.Add(mediaCSS, &css.Minifier{Precision: precision, Inline: inline})

	default:
		if method != "" && method != "default" {
			return nil, fmt.Errorf("%w: %q for js", ErrUnknownMethod, method)
		}
		keep, err := boolOption(options, "keepVarNames")
		if err != nil {
			return nil, err
		}
		m.Add(mediaJS, &js.Minifier{Precision: precision, KeepVarNames: keep})
	}
	return m, nil
}
