package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/semcite/citation"
	"github.com/c360studio/semcite/config"
)

// citeCmd builds CSL-JSON metadata for manuscript citekeys.
func citeCmd() *cobra.Command {
	var (
		format      string
		output      string
		aliasesPath string
		skipXnos    bool
	)

	cmd := &cobra.Command{
		Use:   "cite CITEKEY...",
		Short: "Build citation metadata for citekeys",
		Long: `Cite resolves each citekey and assembles CSL-JSON metadata for it:
DOIs through content negotiation, url citekeys by scraping the page, and
everything else through the registry-resolved URL. Manually curated
items in the configured bibliographies take precedence over fetched
metadata.`,
		Example: `  semcite cite doi:10.1038/nbt1156 pubmed:29424689
  semcite cite --format tsv arxiv:1407.3561
  semcite cite --aliases aliases.yaml study`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csl" && format != "tsv" {
				return fmt.Errorf("unknown format %q (want csl or tsv)", format)
			}

			aliases, err := loadAliases(aliasesPath)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			return runCite(cmd, cfg, args, aliases, format, skipXnos, out)
		},
	}

	cmd.Flags().StringVar(&format, "format", "csl", "Output format (csl, tsv)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&aliasesPath, "aliases", "", "YAML file mapping alias tags to citekeys")
	cmd.Flags().BoolVar(&skipXnos, "skip-xnos", true, "Drop pandoc-xnos cross-reference citekeys")
	return cmd
}

func runCite(cmd *cobra.Command, cfg *config.Config, inputs []string, aliases map[string]string, format string, skipXnos bool, out io.Writer) error {
	logger := slog.Default()

	citations := citation.NewCitations(inputs, aliases, logger)
	if skipXnos {
		if dropped := citations.FilterPandocXnos(); dropped > 0 {
			logger.Debug("Dropped pandoc-xnos citekeys", "count", dropped)
		}
	}

	if format == "tsv" {
		return citations.WriteCitekeysTSV(out)
	}

	h, _, err := buildHandler(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	// Advisory validation; diagnostics are logged inside Inspect.
	citations.Inspect(h)

	manual, err := citation.LoadManualReferences(cfg.Cite.Bibliographies)
	if err != nil {
		return fmt.Errorf("load bibliographies: %w", err)
	}
	manualByID := make(map[string]citation.CSLItem, len(manual))
	for _, item := range manual {
		manualByID[item.ID()] = item
	}

	client := citation.NewMetadataClient(cfg.Cite.Timeout, cfg.Registry.UserAgent, logger)

	items := make([]citation.CSLItem, 0, len(citations.Keys))
	failures := 0
	for _, key := range citations.Keys {
		if item, ok := manualByID[key.StandardID()]; ok {
			item.SetID(key.ShortID())
			items = append(items, item)
			continue
		}

		item, err := client.CSLItem(cmd.Context(), key, h)
		if err != nil {
			logger.Error("Failed to build citation metadata",
				"citekey", key.Input,
				"error", err)
			failures++
			continue
		}
		items = append(items, item)
	}

	if err := citation.WriteCSLJSON(out, items); err != nil {
		return err
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d citekeys failed", failures, len(citations.Keys))
	}
	return nil
}

// loadAliases reads a YAML map of alias tags to citekeys.
func loadAliases(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read aliases file: %w", err)
	}
	aliases := map[string]string{}
	if err := yaml.Unmarshal(data, &aliases); err != nil {
		return nil, fmt.Errorf("parse aliases file: %w", err)
	}
	return aliases, nil
}
