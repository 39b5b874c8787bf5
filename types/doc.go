/*
Package types defines deadwood's information model. Which is rather simple
and revolves around the [Fate] of a domain: whether it is still undecided,
has been found alive, or has been declared dead — and if dead, whether the
DNS phase or the TCP phase killed it.
*/
package types
