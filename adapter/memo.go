// Package adapter wraps the query engine for callers that re-filter the same
// inputs repeatedly: Memo caches by argument identity and Debounced delays
// re-filtering while inputs keep changing.
//
// Both adapters swallow engine errors: they log them and expose an empty
// result instead.
package adapter

import (
	"log/slog"
	"reflect"
	"sync"
	"unsafe"

	"github.com/kartikbazzad/bunbase/bunquery"
	"github.com/kartikbazzad/bunbase/bunquery/internal/logger"
)

// identity of a slice (backing array and length) or a map header.
type identity struct {
	ptr uintptr
	n   int
}

func sliceIdentity[T any](s []T) identity {
	return identity{ptr: uintptr(unsafe.Pointer(unsafe.SliceData(s))), n: len(s)}
}

func mapIdentity(m map[string]any) identity {
	if m == nil {
		return identity{}
	}
	return identity{ptr: reflect.ValueOf(m).Pointer(), n: -1}
}

// Memo recomputes a filter only when the data slice, the query map or the
// options change.
type Memo[T any] struct {
	mu     sync.Mutex
	logger *slog.Logger

	valid  bool
	data   identity
	query  identity
	opts   bunquery.Options
	result []T
}

// MemoOption configures a Memo.
type MemoOption func(*memoConfig)

type memoConfig struct {
	logger *slog.Logger
}

// WithMemoLogger sets the logger used for engine errors.
func WithMemoLogger(l *slog.Logger) MemoOption {
	return func(c *memoConfig) {
		c.logger = l
	}
}

// NewMemo creates an empty Memo.
func NewMemo[T any](opts ...MemoOption) *Memo[T] {
	cfg := memoConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get()
	}
	return &Memo[T]{logger: cfg.logger}
}

// Query returns the filtered records, reusing the previous result slice
// when called again with the same data, query and options.
func (m *Memo[T]) Query(data []T, q bunquery.Query, opts ...bunquery.Option) []T {
	resolved := bunquery.ResolveOptions(opts...)
	dataID, queryID := sliceIdentity(data), mapIdentity(q)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && m.data == dataID && m.query == queryID && m.opts == resolved {
		return m.result
	}

	result, err := bunquery.Filter(data, q, bunquery.WithOptions(resolved))
	if err != nil {
		m.logger.Error("memoized query failed", "error", err)
		result = []T{}
	}

	m.valid = true
	m.data, m.query, m.opts = dataID, queryID, resolved
	m.result = result
	return result
}

// Reset drops the cached result.
func (m *Memo[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valid = false
	m.result = nil
}
