// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnspool

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"os"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/miekg/dns"
	"golang.org/x/time/rate"
)

// Defaults for resolution attempts against a single resolver; see
// WithAttempts and WithBaseTimeout.
const (
	DefaultAttempts    = 10
	DefaultBaseTimeout = 3 * time.Second
)

// jitterRange is the maximum absolute perturbation applied to the base
// timeout after a timed-out attempt.
const jitterRange = 200 * time.Millisecond

// Exchanger sends a single DNS query over the given connection and waits at
// most timeout for the reply. It is the seam through which tests inject
// instrumented fake resolvers.
type Exchanger interface {
	Exchange(msg *dns.Msg, conn *dns.Conn, timeout time.Duration) (*dns.Msg, error)
}

// connExchanger is the production Exchanger, driving a miekg/dns client
// over the pool's pre-dialed connections.
type connExchanger struct{}

func (connExchanger) Exchange(msg *dns.Msg, conn *dns.Conn, timeout time.Duration) (*dns.Msg, error) {
	dnsclnt := dns.Client{Timeout: timeout}
	r, _, err := dnsclnt.ExchangeWithConn(msg, conn)
	return r, err
}

// Pool is a (size-limited) pool of DNS client connections talking with the
// same DNS resolver address. The pool size doubles as the concurrency gate
// for that resolver: no more than size queries are ever in flight against
// it at the same time.
type Pool struct {
	workers     *workerpool.WorkerPool
	exchanger   Exchanger
	limiter     *rate.Limiter // optional, shared across pools.
	attempts    int
	baseTimeout time.Duration
	mu          sync.Mutex // protects the pool of DNS connections
	free        []*dns.Conn
}

// PoolOption can be passed to New when creating new [Pool] objects.
type PoolOption func(*Pool)

// New returns a pool of the specified size of DNS client connections, with
// each connection talking to the same DNS resolver address.
//
// DNS tasks are submitted using [Pool.Submit] in form of task functions
// receiving a concrete [dns.Conn]; [Pool.ResolveA] is the higher-level
// resolution workhorse on top of it.
//
// The passed context is used for creating (dialing) the DNS client
// connections only. It is not directly passed to the submitted DNS tasks,
// so task submitters are themselves responsible for capturing the necessary
// context in their task function closure.
func New(ctx context.Context, size int, dnsclnt *dns.Client, addr string, options ...PoolOption) (*Pool, error) {
	pool := &Pool{
		workers:     workerpool.New(size),
		exchanger:   connExchanger{},
		attempts:    DefaultAttempts,
		baseTimeout: DefaultBaseTimeout,
	}
	for _, opt := range options {
		opt(pool)
	}
	free := make([]*dns.Conn, 0, size)
	for i := 0; i < size; i++ {
		conn, err := dnsclnt.DialContext(ctx, addr)
		if err != nil {
			// Immediately release all connections created so far.
			for _, conn := range free {
				conn.Close()
			}
			return nil, err
		}
		free = append(free, conn)
	}
	pool.free = free
	return pool, nil
}

// WithExchanger replaces the production query exchanger; tests use this to
// fake resolver behavior without any network I/O.
func WithExchanger(x Exchanger) PoolOption {
	return func(p *Pool) {
		p.exchanger = x
	}
}

// WithRateLimiter applies an optional rate limiter that each resolution
// attempt has to pass before its query may be issued. The same limiter is
// typically shared between all pools to cap the overall query rate.
func WithRateLimiter(l *rate.Limiter) PoolOption {
	return func(p *Pool) {
		p.limiter = l
	}
}

// WithAttempts sets the maximum number of query attempts per resolution.
func WithAttempts(attempts int) PoolOption {
	return func(p *Pool) {
		p.attempts = attempts
	}
}

// WithBaseTimeout sets the base per-attempt query timeout.
func WithBaseTimeout(timeout time.Duration) PoolOption {
	return func(p *Pool) {
		p.baseTimeout = timeout
	}
}

// Submit a task to the DNS client connection pool, where it gets enqueued
// to be executed on an available DNS client connection.
func (p *Pool) Submit(task func(conn *dns.Conn)) {
	p.workers.Submit(func() { p.task(task) })
}

// ResolveA resolves the A record of the given name against this pool's
// resolver and returns the first answered address. ok is false if the name
// could not be resolved — be it NXDOMAIN, a server failure, an answer
// without any A records, or too many timed-out attempts; the reasons are
// deliberately not told apart.
//
// A timed-out attempt is retried with the base timeout perturbed by a fresh
// uniform jitter of up to ±200ms, until the attempt cap is reached. Any
// definitive DNS answer ends the resolution immediately. Each attempt
// occupies a pool worker (and thus a concurrency gate slot) only while its
// single query is in flight.
func (p *Pool) ResolveA(ctx context.Context, name string) (addr string, ok bool) {
	timeout := p.baseTimeout
	for attempt := 1; attempt <= p.attempts; attempt++ {
		// don't issue further queries if the context has been cancelled.
		select {
		case <-ctx.Done():
			return "", false
		default:
		}
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return "", false
			}
		}
		msg := dns.Msg{
			MsgHdr: dns.MsgHdr{Id: dns.Id()},
		}
		msg.SetQuestion(dns.Fqdn(name), dns.TypeA)
		r, err := p.exchange(&msg, timeout)
		if err != nil {
			if isTimeout(err) {
				timeout = p.baseTimeout + jitter()
				continue
			}
			return "", false
		}
		if r.Rcode != dns.RcodeSuccess {
			return "", false
		}
		for _, rr := range r.Answer {
			if addrRR, okRR := rr.(*dns.A); okRR {
				return addrRR.A.String(), true
			}
		}
		return "", false
	}
	// too many failed attempts
	return "", false
}

// exchange runs a single query on one of the pool's connections, blocking
// the caller until the query has settled.
func (p *Pool) exchange(msg *dns.Msg, timeout time.Duration) (*dns.Msg, error) {
	type answer struct {
		r   *dns.Msg
		err error
	}
	ch := make(chan answer, 1)
	p.Submit(func(conn *dns.Conn) {
		r, err := p.exchanger.Exchange(msg, conn, timeout)
		ch <- answer{r: r, err: err}
	})
	a := <-ch
	return a.r, a.err
}

// task grabs the next free DNS client and passes it to the specified
// function. After the function returns, the connection is put back into the
// free list.
func (p *Pool) task(task func(conn *dns.Conn)) {
	// pop off a free DNS client connection,
	// https://ueokande.github.io/go-slice-tricks/,
	p.mu.Lock()
	if len(p.free) == 0 {
		panic("no free DNS client connection available")
	}
	last := len(p.free) - 1
	conn := p.free[last]
	p.free = p.free[:last]
	p.mu.Unlock()
	// run the task with its assigned DNS client connection...
	task(conn)
	// ...and push the DNS client connection back into the free list.
	p.mu.Lock()
	p.free = append(p.free, conn)
	p.mu.Unlock()
}

// StopWait waits for all enqueued resolution tasks to finish, and then
// shuts down the pool.
func (p *Pool) StopWait() {
	p.workers.StopWait()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, conn := range p.free {
		conn.Close()
	}
	p.free = nil
}

// jitter returns a uniform random duration in [-jitterRange, +jitterRange],
// in 10ms steps.
func jitter() time.Duration {
	steps := int(jitterRange / (10 * time.Millisecond))
	return time.Duration(rand.Intn(2*steps+1)-steps) * 10 * time.Millisecond
}

// isTimeout tells timed-out queries (worth a retry) apart from all other
// query errors (definitive failures).
func isTimeout(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)
}
