package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/semcite/registry"
	"github.com/c360studio/semcite/resolver"
)

// resolveCmd resolves CURIEs to URLs. Each failure is logged and the
// remaining arguments are still processed; the command exits nonzero
// when any CURIE failed.
func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve CURIE...",
		Short: "Resolve compact identifiers to URLs",
		Example: `  semcite resolve doi:10.1038/nbt1156
  semcite resolve pubmed:29424689 arxiv:1407.3561`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, _, err := buildHandlerFromConfig(cmd)
			if err != nil {
				return err
			}

			failures := 0
			for _, curie := range args {
				url, err := h.Resolve(curie)
				if err != nil {
					slog.Error("Failed to resolve", "curie", curie, "error", err)
					failures++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", curie, url)
			}
			if failures > 0 {
				return fmt.Errorf("%d of %d identifiers failed to resolve", failures, len(args))
			}
			return nil
		},
	}
}

// inspectCmd validates accessions against their registry patterns.
// Inspection is advisory: diagnostics are printed but the command only
// exits nonzero on setup failure.
func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect CURIE...",
		Short: "Validate accessions against registry patterns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, _, err := buildHandlerFromConfig(cmd)
			if err != nil {
				return err
			}

			clean := 0
			for _, curie := range args {
				report := h.Inspect(curie)
				if report == "" {
					clean++
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), report)
			}
			slog.Info("Inspection complete",
				"total", len(args),
				"clean", clean,
				"reported", len(args)-clean)
			return nil
		},
	}
}

// selftestCmd checks every registry record's example against its own
// pattern.
func selftestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Check registry examples against their own patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, reg, err := buildHandlerFromConfig(cmd)
			if err != nil {
				return err
			}

			reports := h.SelfTest(reg)
			for _, report := range reports {
				fmt.Fprintln(cmd.OutOrStdout(), report)
			}
			if len(reports) > 0 {
				return fmt.Errorf("%d registry records failed their own example", len(reports))
			}
			slog.Info("Registry is self-consistent", "resources", len(reg))
			return nil
		},
	}
}

// lookupCmd prints the registry record behind a prefix.
func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup PREFIX",
		Short: "Print the registry record for a namespace prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, _, err := buildHandlerFromConfig(cmd)
			if err != nil {
				return err
			}

			res, ok := h.Index().Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown prefix %q", args[0])
			}

			data, err := yaml.Marshal(res)
			if err != nil {
				return fmt.Errorf("marshal record: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

// buildHandlerFromConfig wires config loading into handler construction
// for the one-shot commands.
func buildHandlerFromConfig(cmd *cobra.Command) (*resolver.Handler, registry.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	handler, loaded, err := buildHandler(cmd.Context(), cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Hint: the registry dataset could not be loaded; check network access or the snapshot path")
		return nil, nil, err
	}
	return handler, loaded, nil
}
