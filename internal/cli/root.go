package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/saeedalam/protodetect/internal/config"
	"github.com/saeedalam/protodetect/internal/profile"
	"github.com/saeedalam/protodetect/internal/storage"
)

var (
	configPath string
	cacheDir   string
	verbose    bool
)

// env is what every command gets from the configuration
var env struct {
	cfg      *config.Config
	registry *profile.Registry
	log      *slog.Logger
}

var rootCmd = &cobra.Command{
	Use:   "protodetect",
	Short: "Recover declaration prototypes from the text after doc comments",
	Long: `protodetect - Declaration Prototype Detector

Given the source text that follows a documentation comment, protodetect finds
the declaration it documents and reports its prototype: annotations,
modifiers, type, name, parameters and the terminator or body opener that
ended the signature. Nothing past the signature is read.

Languages are described by profiles (java, csharp, c/cpp, python,
typescript/javascript, kotlin built in); custom profiles come from the
configuration file.

Quick Start:
  protodetect detect Foo.java             Detect the declaration at the start of a file
  protodetect detect -l py - < span.txt   Detect from stdin
  protodetect batch src/*.java            Detect many spans concurrently
  protodetect serve                       Start MCP server for IDE integration`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default ./"+config.FileName+" if present)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Cache directory (overrides cache_dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging on stderr")

	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
	// versionCmd is registered in version.go
}

// setup loads the configuration, then applies flag overrides
func setup(cmd *cobra.Command, args []string) error {
	cfg, used, err := config.Find(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("cache-dir") {
		cfg.CacheDir = cacheDir
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	env.cfg = cfg
	env.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))
	if used != "" {
		env.log.Debug("config loaded", "path", used)
	}

	env.registry, err = cfg.Registry()
	return err
}

// openCache opens the prototype cache, or returns nil when caching is turned
// off and force is false.
func openCache(force bool) (*storage.Cache, error) {
	if !force && !env.cfg.CacheEnabled {
		return nil, nil
	}
	c, err := storage.Open(env.cfg.CacheDir, env.log)
	if err != nil {
		return nil, fmt.Errorf("open cache in %s: %w", env.cfg.CacheDir, err)
	}
	return c, nil
}

// resolveProfile picks the profile from --lang, falling back to the file extension
func resolveProfile(lang, path string) (*profile.Profile, error) {
	if lang != "" {
		return env.registry.Resolve(lang)
	}
	if path == "" || path == "-" {
		return nil, fmt.Errorf("--lang is required when reading stdin")
	}
	return env.registry.ForFile(path)
}
