// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package weeder

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/siemens/deadwood/dnspool"
	"github.com/siemens/deadwood/probe"
	"github.com/siemens/deadwood/types"

	"github.com/miekg/dns"
	"golang.org/x/time/rate"
)

// Phase identifies the pipeline phase a progress update belongs to.
type Phase int

// The two pipeline phases.
const (
	PhaseDNS Phase = iota // resolving all domains.
	PhaseTCP              // probing web ports of the TCP-check candidates.
)

// String returns the clear-text representation of a Phase value.
func (p Phase) String() string {
	switch p {
	case PhaseDNS:
		return "DNS checks"
	case PhaseTCP:
		return "TCP checks"
	}
	return fmt.Sprintf("Phase(%d)", p)
}

// Progress reports one completed unit of work: a fully checked domain in
// the DNS phase, a settled port probe in the TCP phase.
type Progress struct {
	Phase Phase
	Done  int
	Total int
}

// Weeder runs the two-phase dead-domain pipeline over a list of domains.
type Weeder struct {
	cfg        Config
	progressfn func(Progress)
	exchanger  dnspool.Exchanger
	dialer     probe.Dialer
}

// Option can be passed to New when creating new [Weeder] objects.
type Option func(*Weeder)

// New returns a new Weeder for the given configuration. The weeder can be
// configured during creation using several options:
//   - [WithProgress]
//   - [WithExchanger]
//   - [WithDialer]
func New(cfg Config, options ...Option) *Weeder {
	w := &Weeder{cfg: cfg}
	for _, opt := range options {
		opt(w)
	}
	return w
}

// WithProgress registers a callback receiving one [Progress] update per
// completed unit of work. The callback must be safe for concurrent use, as
// domain checks complete concurrently.
func WithProgress(fn func(Progress)) Option {
	return func(w *Weeder) {
		w.progressfn = fn
	}
}

// WithExchanger replaces the production DNS query exchanger; tests use this
// to fake resolver behavior without any network I/O.
func WithExchanger(x dnspool.Exchanger) Option {
	return func(w *Weeder) {
		w.exchanger = x
	}
}

// WithDialer replaces the production TCP dialer; tests use this to fake
// ports without any network I/O.
func WithDialer(d probe.Dialer) Option {
	return func(w *Weeder) {
		w.dialer = d
	}
}

// Weed checks the liveness of all given domains and returns the report
// classifying each domain as alive or dead. The original domain list is
// never modified.
//
// Weed drives the DNS checks for all domains fully concurrently and only
// proceeds to the TCP phase after every last resolution has settled;
// likewise the report is only compiled after every last port probe has
// settled. A fatal probe error (anything beyond the benign
// refused/timeout/unreachable trio) makes Weed return that error and no
// report at all.
func (w *Weeder) Weed(ctx context.Context, domains []string) (*Report, error) {
	fates := make(map[string]types.Fate, len(domains))

	// Phase 1: resolve every domain against every server group, one
	// goroutine per domain. The per-resolver pools bound the real network
	// concurrency.
	pooloptions := []dnspool.PoolOption{
		dnspool.WithAttempts(w.cfg.MaxAttempts),
		dnspool.WithBaseTimeout(w.cfg.BaseTimeout),
	}
	if w.exchanger != nil {
		pooloptions = append(pooloptions, dnspool.WithExchanger(w.exchanger))
	}
	if w.cfg.QPS > 0 {
		pooloptions = append(pooloptions,
			dnspool.WithRateLimiter(rate.NewLimiter(rate.Limit(w.cfg.QPS), w.cfg.QPS)))
	}
	gates := dnspool.NewGates(w.cfg.PerServerLimit, &dns.Client{}, pooloptions...)

	vectors := make([][]string, len(domains))
	var dnsDone int32
	var wg sync.WaitGroup
	for idx := range domains {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			vectors[idx] = w.checkDomain(ctx, gates, domains[idx])
			w.step(PhaseDNS, &dnsDone, len(domains))
		}(idx)
	}
	wg.Wait() // phase 1 join barrier
	gates.StopWait()

	// Triage the resolution vectors: completely unresolved domains are
	// dead, completely resolved domains are alive, and only the mixed rest
	// needs its web ports probed. For each candidate we remember the first
	// resolved address in vector order.
	byaddr := map[string][]string{} // address -> domains pending a port probe
	for idx, domain := range domains {
		resolved, unresolved := 0, 0
		first := ""
		for _, outcome := range vectors[idx] {
			if outcome == "" {
				unresolved++
				continue
			}
			resolved++
			if first == "" {
				first = outcome
			}
		}
		switch {
		case resolved == 0:
			fates[domain] = types.DeadDNS
		case unresolved == 0:
			fates[domain] = types.Alive
		default:
			byaddr[first] = append(byaddr[first], domain)
		}
	}

	// Phase 2: probe every web port of every candidate address. Candidates
	// sharing an address share the probe results, so each (address, port)
	// pair goes on the wire exactly once.
	numprobes := len(byaddr) * len(w.cfg.WebPorts)
	if numprobes > 0 {
		proberoptions := []probe.ProberOption{
			probe.WithTimeout(w.cfg.ProbeTimeout),
		}
		if w.dialer != nil {
			proberoptions = append(proberoptions, probe.WithDialer(w.dialer))
		}
		prober, verdicts := probe.New(numprobes, proberoptions...)

		open := map[string]bool{} // address -> some probed port accepted
		var fatal error
		var tcpDone int32
		collected := make(chan struct{})
		go func() {
			defer close(collected)
			for verdict := range verdicts {
				if verdict.Err != nil && fatal == nil {
					fatal = fmt.Errorf("probing %s port %d: %w",
						verdict.Address, verdict.Port, verdict.Err)
				}
				if verdict.Open {
					open[verdict.Address] = true
				}
				w.step(PhaseTCP, &tcpDone, numprobes)
			}
		}()
		for addr, pending := range byaddr {
			for _, port := range w.cfg.WebPorts {
				prober.Probe(ctx, pending[0], addr, port)
			}
		}
		prober.StopWait() // phase 2 join barrier
		<-collected
		if fatal != nil {
			return nil, fatal
		}
		for addr, pending := range byaddr {
			fate := types.DeadTCP
			if open[addr] {
				fate = types.Alive
			}
			for _, domain := range pending {
				fates[domain] = fate
			}
		}
	} else {
		// No ports configured (or no candidates): candidates without any
		// probed-open port are dead.
		for _, pending := range byaddr {
			for _, domain := range pending {
				fates[domain] = types.DeadTCP
			}
		}
	}

	return &Report{fates: fates}, nil
}

// checkDomain queries every configured server group for the given domain,
// in freshly shuffled group order and picking one of each pair's two
// addresses at random, and returns the resolution vector: one outcome per
// group in query order, "" meaning unresolved.
func (w *Weeder) checkDomain(ctx context.Context, gates *dnspool.Gates, domain string) []string {
	groups := make([]ServerGroup, len(w.cfg.ServerGroups))
	copy(groups, w.cfg.ServerGroups)
	rand.Shuffle(len(groups), func(i, j int) {
		groups[i], groups[j] = groups[j], groups[i]
	})
	vector := make([]string, 0, len(groups))
	for _, group := range groups {
		server := group.Primary
		if rand.Intn(2) == 1 {
			server = group.Secondary
		}
		pool, err := gates.Pool(ctx, server)
		if err != nil {
			// An undialable resolver counts as an unresolved outcome, just
			// like an unresponsive one.
			vector = append(vector, "")
			continue
		}
		addr, ok := pool.ResolveA(ctx, domain)
		if !ok {
			addr = ""
		}
		vector = append(vector, addr)
	}
	return vector
}

// step advances a phase's completion counter and notifies the optional
// progress callback.
func (w *Weeder) step(phase Phase, done *int32, total int) {
	count := atomic.AddInt32(done, 1)
	if w.progressfn == nil {
		return
	}
	w.progressfn(Progress{
		Phase: phase,
		Done:  int(count),
		Total: total,
	})
}
