// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnspool

import (
	"context"
	"sync"

	"github.com/miekg/dns"
)

// Gates is an explicit registry of per-resolver connection pools, keyed by
// resolver address. Pools are created lazily the first time an address is
// seen and are then retained for the registry's lifetime, so that all
// concurrent domain checks against the same resolver share the same
// concurrency gate.
//
// Gates is safe for concurrent use by arbitrarily many domain checks.
type Gates struct {
	size    int
	dnsclnt *dns.Client
	options []PoolOption
	mu      sync.Mutex // protects the pool registry
	pools   map[string]*Pool
}

// NewGates returns a new pool registry creating pools of the given size
// (the per-resolver concurrency limit). The options are applied to every
// pool the registry creates.
func NewGates(size int, dnsclnt *dns.Client, options ...PoolOption) *Gates {
	return &Gates{
		size:    size,
		dnsclnt: dnsclnt,
		options: options,
		pools:   map[string]*Pool{},
	}
}

// Pool returns the connection pool gating the given resolver address,
// creating it on first use. The context is used for dialing the pool's
// connections only.
func (g *Gates) Pool(ctx context.Context, addr string) (*Pool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if pool, ok := g.pools[addr]; ok {
		return pool, nil
	}
	pool, err := New(ctx, g.size, g.dnsclnt, addr, g.options...)
	if err != nil {
		return nil, err
	}
	g.pools[addr] = pool
	return pool, nil
}

// StopWait waits for all pools to finish their enqueued tasks and then
// shuts them down.
func (g *Gates) StopWait() {
	g.mu.Lock()
	pools := make([]*Pool, 0, len(g.pools))
	for _, pool := range g.pools {
		pools = append(pools, pool)
	}
	g.pools = map[string]*Pool{}
	g.mu.Unlock()
	for _, pool := range pools {
		pool.StopWait()
	}
}
