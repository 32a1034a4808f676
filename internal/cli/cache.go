package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	cacheSearchLimit int
	cacheRunsLimit   int
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the prototype cache",
	Long: `Inspect or clear the prototype cache.

The cache lives in <cache_dir>/cache/prototypes.db and holds every detected
prototype, keyed by profile, offset and span text, plus the runs recorded by
'protodetect batch' and their failures.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(true)
		if err != nil {
			return err
		}
		defer c.Close()

		stats, err := c.Stats()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Cache: %s\n", c.Path())
		fmt.Fprintln(out, strings.Repeat("-", 40))
		fmt.Fprintf(out, "  Prototypes:  %d\n", stats["prototypes"])
		fmt.Fprintf(out, "  Runs:        %d\n", stats["runs"])
		fmt.Fprintf(out, "  Failures:    %d\n", stats["failures"])
		return nil
	},
}

var cacheSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search cached prototypes by name or signature",
	Long: `Search cached prototypes by name or signature.

Every word of the query must match; words also match as prefixes.

Example:
  protodetect cache search "send"
  protodetect cache search "Map String" --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(true)
		if err != nil {
			return err
		}
		defer c.Close()

		entries, err := c.Search(args[0], cacheSearchLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Searching for: %s\n", args[0])
		fmt.Fprintln(out, strings.Repeat("-", 40))
		if len(entries) == 0 {
			fmt.Fprintln(out, "No results found.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(out, "  %-10s %s\n", e.Language, e.Signature)
		}
		fmt.Fprintf(out, "\nTotal: %d results\n", len(entries))
		return nil
	},
}

var cacheRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent batch runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(true)
		if err != nil {
			return err
		}
		defer c.Close()

		runs, err := c.Runs(cacheRunsLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded.")
			return nil
		}
		for _, r := range runs {
			took := "unfinished"
			if !r.FinishedAt.IsZero() {
				took = r.FinishedAt.Sub(r.StartedAt).String()
			}
			fmt.Fprintf(out, "%s  %s  %d jobs, %d detected, %d failed, %d cached (%s)\n",
				r.ID, r.StartedAt.Format(time.RFC3339), r.Jobs, r.Detected, r.Failed, r.CacheHits, took)
		}
		return nil
	},
}

var cacheFailuresCmd = &cobra.Command{
	Use:   "failures <run-id>",
	Short: "List the failed inputs of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(true)
		if err != nil {
			return err
		}
		defer c.Close()

		failures, err := c.Failures(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(failures) == 0 {
			fmt.Fprintf(out, "No failures recorded for run %s.\n", args[0])
			return nil
		}
		for _, f := range failures {
			fmt.Fprintf(out, "%s: %s at %d-%d: %s\n", f.Source, f.Kind, f.Start, f.End, f.Message)
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached prototypes, runs and failures",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(true)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	},
}

func init() {
	cacheSearchCmd.Flags().IntVarP(&cacheSearchLimit, "limit", "n", 20, "Max results")
	cacheRunsCmd.Flags().IntVarP(&cacheRunsLimit, "limit", "n", 10, "Max runs")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheSearchCmd)
	cacheCmd.AddCommand(cacheRunsCmd)
	cacheCmd.AddCommand(cacheFailuresCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
