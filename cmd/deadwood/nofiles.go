// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// raiseFileLimit raises this process' soft limit on open file descriptors
// to the hard limit, if possible. Failing to raise the limit is fine: the
// checking pipeline works under whatever limit is in effect, just slower
// when the per-server pools pile up on a tight limit.
func raiseFileLimit() {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		return
	}
	if rlimit.Cur == unix.RLIM_INFINITY ||
		(rlimit.Cur >= rlimit.Max && rlimit.Max != unix.RLIM_INFINITY) {
		return
	}
	oldlimit := rlimit.Cur
	rlimit.Cur = rlimit.Max
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		return
	}
	fmt.Printf("max open files count set from %d to %d\n", oldlimit, rlimit.Cur)
}
