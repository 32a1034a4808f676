package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/saeedalam/protodetect/internal/format"
	"github.com/saeedalam/protodetect/internal/profile"
	"github.com/saeedalam/protodetect/internal/prototype"
	"github.com/saeedalam/protodetect/internal/storage"
	"github.com/saeedalam/protodetect/internal/worker"
)

var (
	batchLang    string
	batchWorkers int
	batchNoCache bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>...",
	Short: "Detect the leading declaration of many files concurrently",
	Long: `Detect the declaration at the start of every given file.

Each file is one independent span; a failing file never stops the others.
The profile comes from --lang or from each file's extension. When the cache
is enabled the run and its failures are recorded and can be listed with
'protodetect cache runs' and 'protodetect cache failures <run-id>'.

Examples:
  protodetect batch spans/*.java
  protodetect batch --workers 16 --lang kotlin a.txt b.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchLang, "lang", "l", "", "Language profile for every file (default: by extension)")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "Concurrent detections (overrides workers)")
	batchCmd.Flags().BoolVar(&batchNoCache, "no-cache", false, "Skip the prototype cache and run bookkeeping")
}

func runBatch(cmd *cobra.Command, args []string) error {
	workers := env.cfg.Workers
	if cmd.Flags().Changed("workers") {
		workers = batchWorkers
	}
	if workers < 1 || workers > 256 {
		return fmt.Errorf("--workers must be between 1 and 256")
	}

	var cache *storage.Cache
	if !batchNoCache {
		var err error
		if cache, err = openCache(false); err != nil {
			return err
		}
		if cache != nil {
			defer cache.Close()
		}
	}

	// Inputs that cannot be read or matched to a profile fail up front and
	// keep their place in the output.
	setupErrs := make([]error, len(args))
	var jobs []worker.Job
	var jobIndex []int
	for i, path := range args {
		prof, err := resolveProfile(batchLang, path)
		if err == nil {
			var src string
			if src, err = readInput(cmd, path); err == nil {
				jobs = append(jobs, worker.Job{Source: path, Span: prototype.Span{Text: src}, Profile: prof})
				jobIndex = append(jobIndex, i)
				continue
			}
		}
		setupErrs[i] = err
	}

	var poolCache worker.Cache
	if cache != nil {
		poolCache = cache
	}
	pool := worker.NewPool(worker.Config{Workers: workers}, poolCache, env.log)

	var run *storage.Run
	if cache != nil {
		var err error
		if run, err = cache.StartRun(); err != nil {
			return err
		}
	}

	detected := pool.Run(cmd.Context(), jobs)

	results := make([]worker.Result, len(args))
	for i, path := range args {
		results[i] = worker.Result{Job: worker.Job{Source: path}, Err: setupErrs[i]}
	}
	for n, res := range detected {
		results[jobIndex[n]] = res
	}

	out := cmd.OutOrStdout()
	var failures []storage.Failure
	for _, res := range results {
		printResult(out, res)
		if res.Err != nil {
			failures = append(failures, failureOf(res))
		}
	}

	stats := pool.Stats()
	failed := stats.Failed + len(args) - len(jobs)
	fmt.Fprintf(out, "\n%d inputs: %d detected, %d failed, %d from cache\n",
		len(args), stats.Detected, failed, stats.CacheHits)

	if run != nil {
		run.Jobs, run.Detected, run.Failed, run.CacheHits = len(args), stats.Detected, failed, stats.CacheHits
		for i := range failures {
			failures[i].RunID = run.ID
		}
		if err := cache.RecordFailures(failures); err != nil {
			return err
		}
		if err := cache.FinishRun(run); err != nil {
			return err
		}
		fmt.Fprintf(out, "Run: %s\n", run.ID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(args))
	}
	return nil
}

func printResult(w io.Writer, res worker.Result) {
	if res.Err != nil {
		fmt.Fprintf(w, "%s: error: %v\n", res.Job.Source, res.Err)
		return
	}
	p := res.Prototype
	line := p.Name
	if p.HasParameterList {
		line += "(" + format.Parameters(p.Parameters) + ")"
	}
	if p.Type != "" {
		line += " " + p.Type
	}
	if res.Cached {
		line += "  [cached]"
	}
	fmt.Fprintf(w, "%s: %s\n", res.Job.Source, line)
}

func failureOf(res worker.Result) storage.Failure {
	f := storage.Failure{Source: res.Job.Source, Kind: "error", Message: res.Err.Error()}

	var de *prototype.DetectError
	switch {
	case errors.As(res.Err, &de):
		f.Kind = de.Kind.String()
		f.Start, f.End = de.Range.Start, de.Range.End
		f.Message = de.Message
	case errors.Is(res.Err, profile.ErrUnknownProfile):
		f.Kind = "UnknownProfile"
	case errors.Is(res.Err, context.Canceled):
		f.Kind = "Cancelled"
	}
	return f
}
