package adapter

import (
	"log/slog"
	"sync"
	"time"

	"github.com/kartikbazzad/bunbase/bunquery"
	"github.com/kartikbazzad/bunbase/bunquery/internal/logger"
)

// DefaultDelay is the debounce window used when none is configured.
const DefaultDelay = 300 * time.Millisecond

// Result is a snapshot of a Debounced filter.
type Result[T any] struct {
	Results      []T
	IsDebouncing bool
}

// DebounceOption configures a Debounced filter.
type DebounceOption func(*debounceConfig)

type debounceConfig struct {
	delay     time.Duration
	queryOpts []bunquery.Option
	logger    *slog.Logger
}

// WithDelay sets the debounce window.
func WithDelay(d time.Duration) DebounceOption {
	return func(c *debounceConfig) {
		c.delay = d
	}
}

// WithQueryOptions sets the engine options used for every pass.
func WithQueryOptions(opts ...bunquery.Option) DebounceOption {
	return func(c *debounceConfig) {
		c.queryOpts = opts
	}
}

// WithDebounceLogger sets the logger used for engine errors.
func WithDebounceLogger(l *slog.Logger) DebounceOption {
	return func(c *debounceConfig) {
		c.logger = l
	}
}

// Debounced re-filters after its inputs have been quiet for the configured
// delay. Until a scheduled pass completes it keeps serving the previous
// results and reports IsDebouncing.
type Debounced[T any] struct {
	cfg debounceConfig

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
	closed  bool
	results []T

	onResult func([]T)
}

// NewDebounced computes the initial result immediately.
func NewDebounced[T any](data []T, q bunquery.Query, opts ...DebounceOption) *Debounced[T] {
	cfg := debounceConfig{delay: DefaultDelay}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get()
	}
	if cfg.delay < 0 {
		cfg.delay = 0
	}

	d := &Debounced[T]{cfg: cfg}
	d.results = d.compute(data, q)
	return d
}

func (d *Debounced[T]) compute(data []T, q bunquery.Query) []T {
	results, err := bunquery.Filter(data, q, d.cfg.queryOpts...)
	if err != nil {
		d.cfg.logger.Error("debounced query failed", "error", err)
		return []T{}
	}
	return results
}

// Update supersedes any scheduled pass and schedules a new one. A nil query
// is committed immediately as an empty result.
func (d *Debounced[T]) Update(data []T, q bunquery.Query) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	gen := d.gen

	if q == nil {
		d.pending = false
		d.mu.Unlock()
		d.commit(gen, d.compute(data, q))
		return
	}

	d.pending = true
	d.timer = time.AfterFunc(d.cfg.delay, func() {
		d.commit(gen, d.compute(data, q))
	})
	d.mu.Unlock()
}

// commit publishes results unless a newer Update or Close happened.
func (d *Debounced[T]) commit(gen uint64, results []T) {
	d.mu.Lock()
	if d.closed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.results = results
	d.pending = false
	d.timer = nil
	cb := d.onResult
	d.mu.Unlock()

	if cb != nil {
		cb(results)
	}
}

// OnResult registers fn to be called after each committed pass, outside of
// any lock. The initial result computed by NewDebounced is not reported.
// A later call replaces fn; nil removes it.
func (d *Debounced[T]) OnResult(fn func([]T)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onResult = fn
}

// Result returns the committed results and whether a pass is pending.
func (d *Debounced[T]) Result() Result[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Result[T]{Results: d.results, IsDebouncing: d.pending}
}

// Close cancels the pending pass. Later Updates are ignored.
func (d *Debounced[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
