// Package main provides the semcite binary entry point.
// Semcite resolves compact identifiers (CURIEs) against the Bioregistry
// namespace catalog and builds citation metadata from citekeys.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/c360studio/semcite/config"
	"github.com/c360studio/semcite/registry"
	"github.com/c360studio/semcite/resolver"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semcite"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "semcite",
		Short: "Compact identifier resolver",
		Long: `Semcite resolves compact identifiers (CURIEs) like doi:10.1038/nbt1156
or pubmed:29424689 into dereferenceable URLs using the Bioregistry
namespace catalog, and assembles CSL-JSON citation metadata from
manuscript citekeys.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Optional .env for local overrides
			_ = godotenv.Load()
			setupLogging(logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		resolveCmd(),
		inspectCmd(),
		selftestCmd(),
		lookupCmd(),
		citeCmd(),
		serveCmd(),
	)

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func setupLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadConfig loads the layered configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(nil).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// buildHandler loads the registry and builds a resolver handler from it.
func buildHandler(ctx context.Context, cfg *config.Config) (*resolver.Handler, registry.Registry, error) {
	fetcher := registry.NewHTTPFetcher(registry.HTTPFetcherConfig{
		URL:          cfg.Registry.URL,
		SnapshotPath: cfg.Registry.SnapshotPath,
		Timeout:      cfg.Registry.Timeout,
		UserAgent:    cfg.Registry.UserAgent,
	}, nil)
	registry.InitDefault(registry.NewStore(fetcher, nil))

	reg, err := registry.Load(ctx, cfg.Registry.CompilePatterns)
	if err != nil {
		return nil, nil, err
	}
	return resolver.New(reg), reg, nil
}
