package status

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// Cache is the external status cache. A miss returns ok=false and no error.
type Cache interface {
	Upsert(ctx context.Context, name string, code Code) error
	Get(ctx context.Context, name string) (code Code, ok bool, err error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// Resolver answers single-file lookups and keeps the cache written through.
// The cache is never a source of truth: errors and misses fall back to the
// live classification.
type Resolver struct {
	cache  Cache
	logger *log.Logger

	mu   sync.Mutex
	last map[string]Code
}

// NewResolver returns a resolver. cache may be nil.
func NewResolver(cache Cache, logger *log.Logger) *Resolver {
	return &Resolver{cache: cache, logger: logger}
}

// Lookup resolves the status of one file: live classification first, then
// the cache, then the ignore patterns, and Unmodified otherwise.
func (r *Resolver) Lookup(ctx context.Context, in Input, name string) Code {
	if c, ok := Classify(in)[name]; ok && c != Unmodified {
		return c
	}
	if r.cache != nil {
		c, ok, err := r.cache.Get(ctx, name)
		if err != nil {
			r.logger.Warn("status cache read failed", "file", name, "err", err)
		} else if ok && c.Valid() {
			return c
		}
	}
	if Matches(in.Ignore, name) {
		return Ignored
	}
	return Unmodified
}

// Refresh classifies in and, when the result differs from the previous
// refresh, writes every entry to the cache. It reports whether anything
// changed.
func (r *Resolver) Refresh(ctx context.Context, in Input) (map[string]Code, bool) {
	codes := Classify(in)

	r.mu.Lock()
	changed := r.last == nil || !Equal(r.last, codes)
	if changed {
		r.last = codes
	}
	r.mu.Unlock()

	if changed && r.cache != nil {
		for name, c := range codes {
			if err := r.cache.Upsert(ctx, name, c); err != nil {
				r.logger.Warn("status cache write failed", "file", name, "err", err)
			}
		}
	}
	return codes, changed
}

// MarkClean records names as Unmodified in the cache after a commit or
// revert.
func (r *Resolver) MarkClean(ctx context.Context, names ...string) {
	if r.cache == nil {
		return
	}
	for _, name := range names {
		if err := r.cache.Upsert(ctx, name, Unmodified); err != nil {
			r.logger.Warn("status cache write failed", "file", name, "err", err)
		}
	}
}
