package ratelimit

import (
	"context"
	"fmt"
	"sync"
)

// Registry is the process-wide named-limiter registry (§9: an explicit
// object rather than a free-function singleton, built once in main and
// threaded through a root context to every client that calls Apply).
type Registry struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
	aliases  map[string]string
}

// NewRegistry constructs a Registry preloaded with the given named specs.
func NewRegistry(specs map[string]Spec) *Registry {
	r := &Registry{
		limiters: make(map[string]*Limiter, len(specs)),
		aliases:  make(map[string]string),
	}
	for name, spec := range specs {
		r.limiters[name] = NewLimiter(spec)
	}
	return r
}

// BindQueue routes admission requests for alias to target's limiter.
func (r *Registry) BindQueue(alias, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.limiters[target]; !ok {
		return fmt.Errorf("ratelimit: unknown target queue %q", target)
	}
	r.aliases[alias] = target
	return nil
}

func (r *Registry) resolve(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if target, ok := r.aliases[name]; ok {
		return target
	}
	return name
}

// Apply blocks until the named queue's limiter admits the caller. Unknown
// queue names are treated as unbounded (no limiter configured).
func (r *Registry) Apply(ctx context.Context, queueName string) error {
	resolved := r.resolve(queueName)

	r.mu.RLock()
	limiter, ok := r.limiters[resolved]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}
