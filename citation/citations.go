package citation

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/c360studio/semcite/resolver"
)

// Citations carries a manuscript's citekeys through the pipeline in
// their original order.
type Citations struct {
	Keys   []CiteKey
	logger *slog.Logger
}

// NewCitations builds a citation collection from manuscript citekeys,
// expanding aliases and dropping duplicates while keeping first-seen
// order.
func NewCitations(inputs []string, aliases map[string]string, logger *slog.Logger) *Citations {
	if logger == nil {
		logger = slog.Default()
	}
	seen := make(map[string]bool, len(inputs))
	keys := make([]CiteKey, 0, len(inputs))
	for _, input := range inputs {
		if seen[input] {
			continue
		}
		seen[input] = true
		keys = append(keys, NewCiteKey(input, aliases))
	}
	return &Citations{Keys: keys, logger: logger}
}

// FilterPandocXnos removes cross-reference citekeys claimed by the
// pandoc-xnos filters and returns how many were dropped.
func (c *Citations) FilterPandocXnos() int {
	kept := c.Keys[:0]
	dropped := 0
	for _, key := range c.Keys {
		if key.IsPandocXnos() {
			c.logger.Debug("Dropping pandoc-xnos citekey", slog.String("citekey", key.Input))
			dropped++
			continue
		}
		kept = append(kept, key)
	}
	c.Keys = kept
	return dropped
}

// Inspect runs advisory pattern validation across all citekeys and
// returns the collected diagnostics. A diagnostic never aborts the
// batch; each is also logged as a warning.
func (c *Citations) Inspect(h *resolver.Handler) []string {
	var reports []string
	for _, key := range c.Keys {
		report := h.Inspect(key.StandardID())
		if report == "" {
			continue
		}
		c.logger.Warn("Citekey failed pattern validation",
			slog.String("citekey", key.Input),
			slog.String("report", report))
		reports = append(reports, report)
	}
	return reports
}

// ResolveURLs resolves every identifier-based citekey to its URL, keyed
// by standard ID. Per-citekey failures are logged and skipped so one bad
// citekey never blocks the rest of the batch.
func (c *Citations) ResolveURLs(h *resolver.Handler) map[string]string {
	urls := make(map[string]string, len(c.Keys))
	for _, key := range c.Keys {
		url, err := h.Resolve(key.StandardID())
		if err != nil {
			c.logger.Warn("Failed to resolve citekey",
				slog.String("citekey", key.Input),
				slog.String("error", err.Error()))
			continue
		}
		urls[key.StandardID()] = url
	}
	return urls
}

// InputToCSLID maps each manuscript citekey to the short ID used as its
// CSL item anchor.
func (c *Citations) InputToCSLID() map[string]string {
	mapping := make(map[string]string, len(c.Keys))
	for _, key := range c.Keys {
		mapping[key.Input] = key.ShortID()
	}
	return mapping
}

// WriteCitekeysTSV writes the citekey table: manuscript input, dealiased
// form, standard ID, and short ID, one row per citekey.
func (c *Citations) WriteCitekeysTSV(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "input_id\tdealiased_id\tstandard_id\tshort_id"); err != nil {
		return fmt.Errorf("write citekeys tsv: %w", err)
	}
	for _, key := range c.Keys {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			key.Input, key.Dealiased, key.StandardID(), key.ShortID())
		if err != nil {
			return fmt.Errorf("write citekeys tsv: %w", err)
		}
	}
	return nil
}
