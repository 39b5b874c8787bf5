// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/siemens/deadwood/weeder"

	"github.com/gosuri/uilive"
)

// WeedAndReport reads the domain list file, checks the liveness of every
// domain on it, and rewrites the file in place without the dead domains,
// reporting how many were removed. The file is only ever rewritten after a
// fully successful run; any fatal probing error leaves the list untouched.
func WeedAndReport(ctx context.Context, listfile string) error {
	domains, err := readDomainList(listfile)
	if err != nil {
		return fmt.Errorf("cannot read domain list: %w", err)
	}
	// We're about to open lots of sockets in parallel, so give this process
	// as much file descriptor headroom as the hard limit permits. The
	// checking pipeline itself works under whatever limit is in effect.
	raiseFileLimit()

	cfg := weeder.DefaultConfig()
	cfg.PerServerLimit = int(*perServer)
	cfg.MaxAttempts = int(*attempts)
	cfg.BaseTimeout = *dnsTimeout
	cfg.ProbeTimeout = *tcpTimeout
	cfg.QPS = int(*qps)

	// Create the (concurrency-safe) progress board and immediately fire off
	// the rendering goroutine. The rendering will only stop after the
	// weeding has finished; we then render a final update and end
	// rendering, signalling the end of our activities via renderingDone.
	scoreboard := newBoard(len(domains))
	weedingDone := make(chan struct{})
	renderingDone := make(chan struct{})

	go func() {
		// Dunno what uilive's background updating mode using Start() is good
		// for? It may trigger anytime with the rendering into the buffer not
		// yet complete, thus making the terminal output very flickery. So we
		// avoid Start() and instead trigger an explicit flush to the terminal
		// after having completed the rendering.
		term := uilive.New()
		renderer := newRenderer(term)
		defer func() {
			renderData(term, renderer, scoreboard)
			close(renderingDone)
		}()
		renderData(term, renderer, scoreboard)
		ticker := time.NewTicker(*spinnerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				renderData(term, renderer, scoreboard)
			case <-weedingDone:
				return
			}
		}
	}()

	w := weeder.New(cfg, weeder.WithProgress(scoreboard.Update))
	report, err := w.Weed(ctx, domains)
	close(weedingDone)
	<-renderingDone
	if err != nil {
		return fmt.Errorf("domain checking aborted, list left untouched: %w", err)
	}

	if err := writeDomainList(listfile, report.Alive(domains)); err != nil {
		return fmt.Errorf("cannot rewrite domain list: %w", err)
	}
	fmt.Printf("%d dead domain(s) removed\n", report.DeadCount())
	return nil
}

// renderData gets the current progress data and then renders (and flushes)
// it to the terminal.
func renderData(term *uilive.Writer, r *renderer, scoreboard *board) {
	r.Render(scoreboard.Get())
	term.Flush()
}
