// Package worker runs prototype detection over many independent spans
// concurrently.
package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/saeedalam/protodetect/internal/profile"
	"github.com/saeedalam/protodetect/internal/prototype"
	"github.com/saeedalam/protodetect/internal/storage"
	"github.com/saeedalam/protodetect/pkg/types"
)

// Config configures the pool
type Config struct {
	Workers int `json:"workers" yaml:"workers"` // concurrent detections, at least 1
}

// DefaultConfig returns one worker per CPU
func DefaultConfig() Config {
	return Config{Workers: runtime.NumCPU()}
}

// Cache is the subset of storage.Cache the pool uses
type Cache interface {
	Get(key string) (*types.Prototype, bool, error)
	Put(key string, p *types.Prototype) error
}

// Job is one span to detect
type Job struct {
	Source  string // file name or other label, only used for reporting
	Span    prototype.Span
	Profile *profile.Profile
}

// Result is the outcome of one job
type Result struct {
	Job       Job
	Prototype *types.Prototype
	Err       error
	Cached    bool
	Duration  time.Duration
}

// Stats tracks pool activity across runs
type Stats struct {
	Jobs      int `json:"jobs"`
	Detected  int `json:"detected"`
	Failed    int `json:"failed"`
	CacheHits int `json:"cache_hits"`
}

// Pool detects prototypes with a fixed number of workers
type Pool struct {
	config Config
	cache  Cache
	log    *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// NewPool creates a pool. cache may be nil to detect every job afresh.
func NewPool(config Config, cache Cache, logger *slog.Logger) *Pool {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pool{config: config, cache: cache, log: logger}
}

// Run detects every job and returns the results in job order. A failing job
// never affects the others. Once ctx is done no further jobs are started and
// the remaining ones report ctx.Err().
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	workers := p.config.Workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	queue := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				results[i] = p.detect(jobs[i])
			}
		}()
	}

	next := 0
dispatch:
	for ; next < len(jobs); next++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- next:
		}
	}
	close(queue)
	wg.Wait()

	for i := next; i < len(jobs); i++ {
		results[i] = Result{Job: jobs[i], Err: ctx.Err()}
		p.record(results[i])
	}
	if next < len(jobs) {
		p.log.Warn("run cancelled", "started", next, "skipped", len(jobs)-next)
	}

	return results
}

func (p *Pool) detect(job Job) (res Result) {
	res.Job = job
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
	}()

	if job.Profile == nil {
		res.Err = errors.New("no language profile")
		p.record(res)
		return res
	}

	key := storage.Key(job.Profile.Fingerprint(), job.Span.Offset, job.Span.Text)
	if p.cache != nil {
		proto, ok, err := p.cache.Get(key)
		switch {
		case err != nil:
			p.log.Warn("cache lookup failed", "source", job.Source, "error", err)
		case ok:
			res.Prototype, res.Cached = proto, true
			p.record(res)
			return res
		}
	}

	res.Prototype, res.Err = prototype.Detect(job.Span, job.Profile)
	if res.Err != nil {
		p.log.Debug("detection failed", "source", job.Source, "error", res.Err)
	} else if p.cache != nil {
		if err := p.cache.Put(key, res.Prototype); err != nil {
			p.log.Warn("cache store failed", "source", job.Source, "error", err)
		}
	}

	p.record(res)
	return res
}

func (p *Pool) record(res Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Jobs++
	switch {
	case res.Err != nil:
		p.stats.Failed++
	case res.Cached:
		p.stats.CacheHits++
		p.stats.Detected++
	default:
		p.stats.Detected++
	}
}

// Stats returns the counters accumulated so far
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
