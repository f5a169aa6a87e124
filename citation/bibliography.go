package citation

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// LoadManualReferences merges manually curated CSL-JSON bibliographies.
// Each pattern is a doublestar glob (e.g. "content/**/*.json"); matched
// files are read in sorted path order. When the same item id appears more
// than once, the first occurrence wins, so earlier bibliographies take
// precedence over later ones.
func LoadManualReferences(patterns []string) ([]CSLItem, error) {
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bibliography glob %q: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	var items []CSLItem
	seen := make(map[string]bool)
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open bibliography %s: %w", path, err)
		}
		fileItems, err := ReadCSLJSON(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("bibliography %s: %w", path, err)
		}
		for _, item := range fileItems {
			id := item.ID()
			if id != "" && seen[id] {
				continue
			}
			if id != "" {
				seen[id] = true
			}
			items = append(items, item)
		}
	}
	return items, nil
}
