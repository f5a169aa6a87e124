package citation

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// CSLItem is one bibliographic record in CSL-JSON form. The schema is
// open-ended, so items stay generic maps; the helpers below cover the
// fields the pipeline reads and writes.
type CSLItem map[string]any

// ID returns the item's CSL id, or empty when unset.
func (item CSLItem) ID() string {
	id, _ := item["id"].(string)
	return id
}

// SetID sets the item's CSL id.
func (item CSLItem) SetID(id string) {
	item["id"] = id
}

// Title returns the item's title, or empty when unset.
func (item CSLItem) Title() string {
	title, _ := item["title"].(string)
	return title
}

// cslDate renders a time as a CSL date-parts value.
func cslDate(t time.Time) map[string]any {
	return map[string]any{
		"date-parts": [][]int{{t.Year(), int(t.Month()), t.Day()}},
	}
}

// WriteCSLJSON writes a CSL-JSON bibliography: a JSON array of items,
// indented for human-editable caches, with a trailing newline.
func WriteCSLJSON(w io.Writer, items []CSLItem) error {
	if items == nil {
		items = []CSLItem{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encode csl json: %w", err)
	}
	return nil
}

// ReadCSLJSON decodes a CSL-JSON bibliography.
func ReadCSLJSON(r io.Reader) ([]CSLItem, error) {
	var items []CSLItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode csl json: %w", err)
	}
	return items, nil
}
