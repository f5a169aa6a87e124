package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdSubcommands(t *testing.T) {
	cmd := rootCmd()

	want := []string{"resolve", "inspect", "selftest", "lookup", "cite", "serve", "version"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		assert.True(t, found, "missing subcommand %q", name)
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), Version)
}

func TestLoadAliases(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		aliases, err := loadAliases("")
		require.NoError(t, err)
		assert.Nil(t, aliases)
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "aliases.yaml")
		require.NoError(t, os.WriteFile(path, []byte("study: clinicaltrials:NCT00222573\npaper: doi:10.1038/nbt1156\n"), 0644))

		aliases, err := loadAliases(path)
		require.NoError(t, err)
		assert.Equal(t, "clinicaltrials:NCT00222573", aliases["study"])
		assert.Equal(t, "doi:10.1038/nbt1156", aliases["paper"])
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadAliases(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "aliases.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))
		_, err := loadAliases(path)
		require.Error(t, err)
	})
}
