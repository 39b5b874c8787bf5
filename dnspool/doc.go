/*
Package dnspool implements a simple limiting DNS client-request execution
pool. Deadwood uses one [Pool] of “DNS workers” per resolver address, so
that the number of in-flight queries against any single resolver never
exceeds the pool size. The [Gates] registry hands out at most one Pool per
distinct resolver address, created lazily on first use.

Usage

	gates := dnspool.NewGates(10, &dns.Client{})
	pool, err := gates.Pool(context.Background(), "8.8.8.8:53")
	if err != nil { ... }
	addr, ok := pool.ResolveA(context.Background(), "example.org")
	...
	gates.StopWait()

[Pool.ResolveA] retries timed-out queries with a jittered per-attempt
timeout up to a configurable attempt cap; definitive DNS answers (NXDOMAIN,
SERVFAIL, empty answer sections) end the resolution immediately.

# Acknowledgements

Under its hood, [Pool] leverages [github.com/gammazero/workerpool] as the
limiting goroutine pool.

[github.com/gammazero/workerpool]: https://github.com/gammazero/workerpool
*/
package dnspool
