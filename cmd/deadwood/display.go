// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/siemens/deadwood/weeder"
)

// board is the (concurrency-safe) progress scoreboard the weeder reports
// into and the renderer reads from.
type board struct {
	mu     sync.Mutex
	phases [2]weeder.Progress
}

// newBoard returns a progress board for a run over the given number of
// domains. The TCP phase's extent only becomes known once the DNS phase has
// completed, so it starts out empty.
func newBoard(numdomains int) *board {
	b := &board{}
	b.phases[weeder.PhaseDNS] = weeder.Progress{Phase: weeder.PhaseDNS, Total: numdomains}
	b.phases[weeder.PhaseTCP] = weeder.Progress{Phase: weeder.PhaseTCP}
	return b
}

// Update stores the latest progress of a phase; it is the weeder's progress
// callback.
func (b *board) Update(p weeder.Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.phases[p.Phase] = p
}

// Get returns a snapshot of the progress of both phases.
func (b *board) Get() [2]weeder.Progress {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phases
}

// spinnerPhases is yet another (braille) spinner.
var spinnerPhases = []rune("⠉⠘⠰⠤⠆⠃")

// renderer renders the progress of the two checking phases, advancing its
// spinner one notch per Render call.
type renderer struct {
	w    io.Writer
	tick int
}

// newRenderer returns a renderer object rendering to the specified
// io.Writer.
func newRenderer(w io.Writer) *renderer {
	return &renderer{w: w}
}

// Render the given progress snapshot, one line per phase.
func (r *renderer) Render(phases [2]weeder.Progress) {
	r.tick++
	spin := string(spinnerPhases[r.tick%len(spinnerPhases)])
	for _, p := range phases {
		label := fmt.Sprintf("%s %d/%d", p.Phase, p.Done, p.Total)
		switch {
		case p.Total == 0:
			fmt.Fprintf(r.w, "  %s: nothing to check (yet)\n", p.Phase)
		case p.Done < p.Total:
			fmt.Fprintf(r.w, "%s\n", runningStyle.Styled(spin+" "+label))
		default:
			fmt.Fprintf(r.w, "%s\n", doneStyle.Styled("✔ "+label))
		}
	}
}
