package resolve

import (
	"sync"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/rafalfr/ruledns/internal/config"
)

// entry is what the pool caches per upstream: either a built client or the
// error that building one produced.  Both are memoized — a failing upstream
// doesn't get retried on every query.
type entry struct {
	client Client
	err    error
}

// Pool builds at most one [Client] per distinct [config.Upstream] and hands
// out the same one to every caller after that. Construction runs under an
// exclusive lock so two goroutines racing to build the same upstream never
// both pay for it; most lookups only need the shared read path.
type Pool struct {
	mu      sync.RWMutex
	entries map[config.Upstream]entry
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	return &Pool{entries: map[config.Upstream]entry{}}
}

// Get returns the Client for u, building and memoizing it on first use.
func (p *Pool) Get(u config.Upstream) (Client, error) {
	p.mu.RLock()
	e, ok := p.entries[u]
	p.mu.RUnlock()

	if ok {
		return e.client, e.err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Re-check: another goroutine may have built u while we waited for the
	// exclusive lock.
	if e, ok = p.entries[u]; ok {
		return e.client, e.err
	}

	client, err := Build(u)
	if err != nil {
		err = errors.Annotate(err, "building client: %w")
	}

	p.entries[u] = entry{client: client, err: err}

	return client, err
}

// Close releases every client the pool has built.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for _, e := range p.entries {
		if e.client == nil {
			continue
		}

		if err := e.client.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
