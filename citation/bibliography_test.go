package citation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBibliography(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadManualReferences(t *testing.T) {
	tmpDir := t.TempDir()
	writeBibliography(t, filepath.Join(tmpDir, "a", "refs.json"),
		`[{"id":"one","title":"First"},{"id":"two","title":"Second"}]`)
	writeBibliography(t, filepath.Join(tmpDir, "b", "more.json"),
		`[{"id":"two","title":"Shadowed"},{"id":"three","title":"Third"}]`)

	items, err := LoadManualReferences([]string{filepath.Join(tmpDir, "**", "*.json")})
	require.NoError(t, err)
	require.Len(t, items, 3)

	byID := map[string]CSLItem{}
	for _, item := range items {
		byID[item.ID()] = item
	}
	// First occurrence wins on duplicate ids.
	assert.Equal(t, "Second", byID["two"].Title())
	assert.Equal(t, "Third", byID["three"].Title())
}

func TestLoadManualReferencesBadFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeBibliography(t, filepath.Join(tmpDir, "refs.json"), `{not json`)

	_, err := LoadManualReferences([]string{filepath.Join(tmpDir, "*.json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refs.json")
}

func TestLoadManualReferencesNoMatches(t *testing.T) {
	items, err := LoadManualReferences([]string{filepath.Join(t.TempDir(), "*.json")})
	require.NoError(t, err)
	assert.Empty(t, items)
}
