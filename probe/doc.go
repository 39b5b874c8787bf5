/*
Package probe implements a TCP-handshake-based reachability prober for
(address, port) pairs.

[Prober] objects support concurrent probing jobs with maximum goroutine
limits. Individual probe verdicts are streamed as they are decided, to a
channel returned when creating a new Prober object. A [Verdict] carries the
probed domain, address, and port, whether any TCP handshake completed, and —
for the narrow set of errors that are not simply “port closed” — the fatal
error itself.

	                       +---+
	(domain,addr,port)-->--| P |-->--ch Verdict
	                       +---+

A connect that is refused, times out, or runs into an unreachable host
counts as “closed”; every other transport or OS-level error is deliberately
NOT suppressed and travels on the verdict for the consumer to act upon.
Successful handshakes are torn down immediately, no payload is ever sent.

# Acknowledgements

Under its hood, [Prober] leverages [github.com/gammazero/workerpool] as the
limiting goroutine pool.

[github.com/gammazero/workerpool]: https://github.com/gammazero/workerpool
*/
package probe
