package resolver

import (
	"fmt"
	"strings"

	"github.com/c360studio/semcite/registry"
)

// Handler resolves CURIEs against an immutable prefix index. It holds no
// mutable state: both operations are pure functions of their input plus
// the index and override table, safe for unbounded concurrent use.
type Handler struct {
	index *registry.Index
}

// New builds a handler from a loaded registry.
func New(reg registry.Registry) *Handler {
	return NewWithIndex(registry.BuildIndex(reg))
}

// NewWithIndex builds a handler around an existing prefix index.
func NewWithIndex(index *registry.Index) *Handler {
	return &Handler{index: index}
}

// Index exposes the handler's prefix index.
func (h *Handler) Index() *registry.Index {
	return h.index
}

// Resolve turns a compact identifier into an absolute URL.
//
// The parse is strict (ErrMalformedCurie), the prefix must be indexed
// (ErrUnknownPrefix), and either an override rule or a usable uri_format
// template must exist (ErrUnresolvable). Failures surface synchronously:
// a bad citekey must never silently produce a wrong URL. No network
// access, no caching.
func (h *Handler) Resolve(input string) (string, error) {
	curie, err := ParseCurie(input)
	if err != nil {
		return "", err
	}
	res, ok := h.index.Lookup(curie.Prefix)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrefix, curie.Prefix)
	}
	if url, ok := overrideURL(res, curie.Accession); ok {
		return url, nil
	}
	if strings.Contains(res.URIFormat, "$1") {
		return strings.ReplaceAll(res.URIFormat, "$1", curie.Accession), nil
	}
	return "", fmt.Errorf("%w for prefix %q", ErrUnresolvable, curie.Prefix)
}

// Inspect validates a compact identifier's accession against its
// registry pattern and returns a diagnostic, or empty when there is
// nothing to report. It never errors: an unparseable CURIE or unknown
// prefix yields no complaint, so Inspect can sweep an entire registry or
// citekey corpus without aborting on the first bad entry.
func (h *Handler) Inspect(input string) string {
	curie, err := ParseCurie(input)
	if err != nil {
		return ""
	}
	res, ok := h.index.Lookup(curie.Prefix)
	if !ok {
		return ""
	}
	return CheckPattern(res, curie.Accession)
}

// SelfTest inspects every registry record that declares both a pattern
// and an example, and returns the diagnostics for records whose own
// example fails their own pattern. An empty result means the registry is
// self-consistent. Intended as a regression guard against upstream
// registry-data drift.
func (h *Handler) SelfTest(reg registry.Registry) []string {
	var reports []string
	for _, res := range reg {
		if res.Pattern == "" || res.Example == "" {
			continue
		}
		if report := h.Inspect(res.Prefix + ":" + res.Example); report != "" {
			reports = append(reports, report)
		}
	}
	return reports
}
