// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gammazero/workerpool"
)

// DefaultTimeout is the default TCP connect timeout; see WithTimeout.
const DefaultTimeout = 10 * time.Second

// Dialer opens a transport connection; it is the seam through which tests
// inject fake networks. The production dialer is [net.DialTimeout].
type Dialer func(network, address string, timeout time.Duration) (net.Conn, error)

// Verdict is the outcome of probing a single (domain, address, port)
// triple. Open tells whether a TCP handshake completed. Err is only set for
// errors outside the benign “port closed” allow-list; such an error is
// unrecoverable and the consumer is expected to abort the whole run.
type Verdict struct {
	Domain  string `json:"domain"`
	Address string `json:"address"`
	Port    int    `json:"port"`
	Open    bool   `json:"open"`
	Err     error  `json:"-"`
}

// Prober probes (address, port) pairs for accepting TCP connections and
// streams the verdicts to a result/output channel. Probers use a
// goroutine-limited worker pool.
type Prober struct {
	timeout  time.Duration
	dialer   Dialer
	workers  *workerpool.WorkerPool
	verdicts chan Verdict
	stopOnce sync.Once
}

// ProberOption can be passed to New when creating new Prober objects.
type ProberOption func(*Prober)

// New returns a new [Prober] with a maximum worker pool of the specified
// size, as well as the verdict stream. The prober defaults to a connect
// timeout of 10s and can be configured during creation using several
// options:
//   - [WithTimeout]
//   - [WithDialer]
func New(size int, options ...ProberOption) (*Prober, <-chan Verdict) {
	verdicts := make(chan Verdict, size)
	prober := &Prober{
		timeout:  DefaultTimeout,
		dialer:   net.DialTimeout,
		workers:  workerpool.New(size),
		verdicts: verdicts,
	}
	for _, opt := range options {
		opt(prober)
	}
	return prober, verdicts
}

// WithTimeout sets the TCP connect timeout.
func WithTimeout(timeout time.Duration) ProberOption {
	return func(p *Prober) {
		p.timeout = timeout
	}
}

// WithDialer replaces the production dialer; tests use this to fake ports
// without any network I/O.
func WithDialer(dialer Dialer) ProberOption {
	return func(p *Prober) {
		p.dialer = dialer
	}
}

// Probe enqueues a TCP connect probe for the given (address, port) pair;
// the domain tags the resulting verdict so consumers can map it back. The
// verdict is sent to the channel returned together with the newly created
// [Prober].
//
// If the specified context gets cancelled, pending probe verdicts won't be
// echoed to the verdict stream at all. However, spurious verdicts might
// still appear on the verdict stream due to the uncontrollable order of
// verdict sending and context cancellation detection.
func (p *Prober) Probe(ctx context.Context, domain string, address string, port int) {
	p.workers.Submit(func() {
		verdict := Verdict{
			Domain:  domain,
			Address: address,
			Port:    port,
		}
		// A quick and non-blocking check to see if the context has been
		// cancelled before we start our work...
		select {
		case <-ctx.Done():
			return
		default:
		}
		conn, err := p.dialer("tcp", net.JoinHostPort(address, strconv.Itoa(port)), p.timeout)
		if err == nil {
			conn.Close() // handshake completed; that's all we wanted to know.
			verdict.Open = true
		} else if !closedVerdict(err) {
			verdict.Err = err
		}
		// Allow cancelling a blocked verdict send to avoid leaking
		// goroutines.
		select {
		case p.verdicts <- verdict:
		case <-ctx.Done():
		}
	})
}

// StopWait waits for all queued probes to get processed and then finally
// closes the verdict channel.
func (p *Prober) StopWait() {
	p.stopOnce.Do(func() {
		p.workers.StopWait()
		close(p.verdicts)
	})
}

// closedVerdict tells whether a connect error just means “port closed”:
// only refused connections, connect timeouts, and unreachable hosts
// qualify. Everything else is a fatal condition the caller must not paper
// over.
func closedVerdict(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
