// SPDX-License-Identifier: GPL-3.0-or-later

// Package closepool allows pooling [io.Closer] instances registered
// during a simulation run and closing them together at shutdown.
//
// A [*sim.Simulator] owns exactly one [Pool]: whatever a caller
// registers via Simulator.AddCloser (an EchoOut sink with its own
// lifecycle, for example) ends up here and is released by
// Simulator.Close. The simulator's [sim.CommandSource] is not pooled;
// Simulator.Close closes it directly, before the pool.
package closepool

import (
	"errors"
	"io"
	"slices"
	"sync"
)

// Pool allows pooling a set of [io.Closer] registered over the
// lifetime of one simulation run.
//
// The zero value is ready to use.
type Pool struct {
	// handles contains the [io.Closer] to close.
	handles []io.Closer

	// mu provides mutual exclusion, since a node callback running
	// inside the tick loop could in principle register a closer
	// concurrently with shutdown in a future multi-run harness.
	mu sync.Mutex
}

// Len reports how many closers are currently pooled, mainly useful in
// tests asserting that shutdown registration happened.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handles)
}

// Add registers c to be closed by a future call to Close.
func (p *Pool) Add(c io.Closer) {
	p.mu.Lock()
	p.handles = append(p.handles, c)
	p.mu.Unlock()
}

// Close closes every pooled [io.Closer] in reverse registration order:
// the closer added first is closed last, so a closer added because it
// depends on an earlier one always sees the earlier one still open.
// The returned error joins every error encountered.
func (p *Pool) Close() error {
	// Lock and copy the [io.Closer] to close.
	p.mu.Lock()
	conns := p.handles
	p.handles = nil
	p.mu.Unlock()

	// Close all the [io.Closer].
	var errv []error
	for _, conn := range slices.Backward(conns) {
		if err := conn.Close(); err != nil {
			errv = append(errv, err)
		}
	}
	return errors.Join(errv...)
}
