/*
Package weeder implements deadwood's two-phase dead-domain decision engine.

A [Weeder] first resolves every domain of a run against all configured DNS
server groups concurrently, one goroutine per domain, with the per-resolver
connection pools of [github.com/siemens/deadwood/dnspool] acting as the
concurrency gates. After this first join barrier the domains get triaged on
their resolution vectors: domains no resolver could resolve are dead right
away, domains every resolver resolved are alive, and the “mixed” rest
becomes TCP-check candidates. The second phase then probes the candidates'
web ports using [github.com/siemens/deadwood/probe], with candidates that
resolved to the same address coalesced so each (address, port) pair gets
probed only once. Candidates without any open web port are dead, too.

A single fatal probe error (anything beyond refused/timeout/unreachable)
aborts the whole run with an error instead of a [Report]; the caller must
then not rewrite its domain list.
*/
package weeder
