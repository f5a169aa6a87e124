package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360studio/semcite/registry"
)

func TestCheckPattern(t *testing.T) {
	t.Run("no pattern means nothing to validate", func(t *testing.T) {
		assert.Empty(t, CheckPattern(&registry.Resource{Prefix: "raw"}, "anything"))
		assert.Empty(t, CheckPattern(nil, "anything"))
	})

	t.Run("conforming accession", func(t *testing.T) {
		res := &registry.Resource{Prefix: "taxonomy", Pattern: `^\d+$`}
		assert.Empty(t, CheckPattern(res, "9606"))
	})

	t.Run("full-string match, not substring", func(t *testing.T) {
		res := &registry.Resource{Prefix: "taxonomy", Pattern: `\d+`}
		assert.NotEmpty(t, CheckPattern(res, "9606-trailing"))
		assert.NotEmpty(t, CheckPattern(res, "leading-9606"))
		assert.Empty(t, CheckPattern(res, "9606"))
	})

	t.Run("diagnostic names prefix, accession and pattern", func(t *testing.T) {
		res := &registry.Resource{Prefix: "doid", Pattern: `^\d+$`}
		report := CheckPattern(res, "DOID_11337")
		assert.Contains(t, report, "doid")
		assert.Contains(t, report, "DOID_11337")
		assert.Contains(t, report, `^\d+$`)
	})

	t.Run("invalid pattern is reported, not fatal", func(t *testing.T) {
		res := &registry.Resource{Prefix: "broken", Pattern: `([unclosed`}
		report := CheckPattern(res, "123")
		assert.Contains(t, report, "invalid pattern")
	})
}
