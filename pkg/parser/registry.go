// Package parser selects and constructs format parsers for source documents.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ArionMiles/finsight/pkg/api"
)

// Factory builds a parser instance for one registered format.
type Factory func() api.Parser

// Format describes one registered source format.
type Format struct {
	// Name is the bank/format identifier callers select with.
	Name string
	// Description is a human-readable summary for listings.
	Description string
	// Extensions lists the lowercase file extensions (with dot) this format
	// can plausibly apply to. Used only for conservative inference.
	Extensions []string
	// New constructs a parser for this format.
	New Factory
}

// Registry maps bank/format names to parser factories.
type Registry struct {
	formats map[string]Format
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{formats: make(map[string]Format)}
}

// Register adds a format. Duplicate names are an error.
func (r *Registry) Register(f Format) error {
	if f.Name == "" {
		return fmt.Errorf("format name must not be empty")
	}
	if f.New == nil {
		return fmt.Errorf("format %q has no factory", f.Name)
	}
	if _, exists := r.formats[f.Name]; exists {
		return fmt.Errorf("format %q already registered", f.Name)
	}
	r.formats[f.Name] = f
	r.order = append(r.order, f.Name)
	return nil
}

// Get returns a parser for an explicitly named format.
func (r *Registry) Get(name string) (api.Parser, error) {
	f, ok := r.formats[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", api.ErrUnsupportedFormat, name)
	}
	return f.New(), nil
}

// Detect resolves a parser for the document. An explicit bank name always
// wins. Extension inference is deliberately conservative: it succeeds only
// when exactly one registered format claims the extension, and declines to
// guess otherwise — mis-parsing a statement is worse than asking the caller
// to name the bank.
func (r *Registry) Detect(path, bank string) (api.Parser, string, error) {
	if bank != "" && bank != "auto" {
		p, err := r.Get(bank)
		return p, bank, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	var matches []string
	for _, name := range r.order {
		for _, e := range r.formats[name].Extensions {
			if e == ext {
				matches = append(matches, name)
				break
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, "", fmt.Errorf("%w: no format registered for extension %q", api.ErrUnsupportedFormat, ext)
	case 1:
		return r.formats[matches[0]].New(), matches[0], nil
	default:
		return nil, "", fmt.Errorf("%w: extension %q could be any of %s; pass the bank explicitly",
			api.ErrAmbiguousFormat, ext, strings.Join(matches, ", "))
	}
}

// List returns the registered formats in registration order.
func (r *Registry) List() []Format {
	out := make([]Format, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.formats[name])
	}
	return out
}
