package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/saeedalam/protodetect/internal/format"
	"github.com/saeedalam/protodetect/internal/prototype"
	"github.com/saeedalam/protodetect/internal/worker"
	"github.com/saeedalam/protodetect/pkg/types"
)

var (
	detectLang    string
	detectOffset  int
	detectFormat  string
	detectNoCache bool
)

var detectCmd = &cobra.Command{
	Use:   "detect [file|-]",
	Short: "Detect the declaration at the start of a span",
	Long: `Detect the declaration that starts at --offset (default 0) of the input.

The input is the text that follows a documentation comment. With no file or
"-" it is read from stdin and --lang is required; otherwise the profile is
picked from the file extension unless --lang is given.

Formats:
  text    annotations, one per line, then the one-line signature (default)
  detail  every field of the prototype
  json    the prototype as JSON
  yaml    the prototype as YAML

Examples:
  protodetect detect UserService.java
  protodetect detect --offset 120 --format detail Handler.cs
  echo '@Override public String toString() {' | protodetect detect -l java`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().StringVarP(&detectLang, "lang", "l", "", "Language profile, alias or extension")
	detectCmd.Flags().IntVar(&detectOffset, "offset", 0, "Offset of the span in the input")
	detectCmd.Flags().StringVarP(&detectFormat, "format", "f", "text", "Output format: text, detail, json, yaml")
	detectCmd.Flags().BoolVar(&detectNoCache, "no-cache", false, "Skip the prototype cache")
}

func runDetect(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) > 0 {
		path = args[0]
	}

	prof, err := resolveProfile(detectLang, path)
	if err != nil {
		return err
	}

	src, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	if detectOffset < 0 || detectOffset > len(src) {
		return fmt.Errorf("offset %d is outside the input (%d bytes)", detectOffset, len(src))
	}

	var cache worker.Cache
	if !detectNoCache {
		c, err := openCache(false)
		if err != nil {
			return err
		}
		if c != nil {
			defer c.Close()
			cache = c
		}
	}

	pool := worker.NewPool(worker.Config{Workers: 1}, cache, env.log)
	res := pool.Run(cmd.Context(), []worker.Job{{
		Source:  path,
		Span:    prototype.Span{Text: src[detectOffset:], Offset: detectOffset},
		Profile: prof,
	}})[0]
	if res.Err != nil {
		return fmt.Errorf("%s: %w", displayPath(path), res.Err)
	}
	env.log.Debug("detected", "name", res.Prototype.Name, "cached", res.Cached, "took", res.Duration)

	return writePrototype(cmd.OutOrStdout(), res.Prototype, detectFormat)
}

func writePrototype(w io.Writer, p *types.Prototype, outFormat string) error {
	switch outFormat {
	case "text":
		_, err := io.WriteString(w, format.Prototype(p))
		return err
	case "detail":
		_, err := io.WriteString(w, format.Detail(p))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported format: %s", outFormat)
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func displayPath(path string) string {
	if path == "-" {
		return "stdin"
	}
	return path
}
