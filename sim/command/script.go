// SPDX-License-Identifier: GPL-3.0-or-later

// Package command implements the two [sim.CommandSource] variants:
// a pre-parsed sorted event script and a line-oriented interactive
// prompt (spec.md §6).
package command

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rbmk-project/nodesim/errclass"
	"github.com/rbmk-project/nodesim/sim"
)

// scriptSource is a [sim.CommandSource] backed by a fully-parsed,
// append-only event slice, sorted by tick via TimeAdvance boundaries.
//
// Grounded on the original's sortedEvents list, consumed with
// `sortedEvents.remove(0)` in Simulator.start()'s file branch; here the
// whole file is parsed up front instead of lazily, since nothing in
// script mode can append new scripted events mid-run.
type scriptSource struct {
	events []sim.Event
	i      int
	closer io.Closer
}

// NewScriptSource parses the command script at path into a
// [sim.CommandSource]. The returned source's Close releases the
// underlying file handle.
func NewScriptSource(path string) (sim.CommandSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("command: open script: %w (%s)", err, errclass.New(err))
	}
	events, err := parseScript(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &scriptSource{events: events, closer: f}, nil
}

// NewScriptSourceReader is like [NewScriptSource] but reads from an
// already-open r, useful for tests and for embedding a script inline.
// The returned source's Close is a no-op; the caller owns r.
func NewScriptSourceReader(r io.Reader) (sim.CommandSource, error) {
	events, err := parseScript(r)
	if err != nil {
		return nil, err
	}
	return &scriptSource{events: events, closer: io.NopCloser(nil)}, nil
}

func (s *scriptSource) Next() (sim.Event, error) {
	if s.i >= len(s.events) {
		return sim.Event{}, io.EOF
	}
	ev := s.events[s.i]
	s.i++
	return ev, nil
}

func (s *scriptSource) Interactive() bool { return false }

func (s *scriptSource) Close() error { return s.closer.Close() }

// parseScript reads the line-oriented script grammar:
//
//	# comment lines and blank lines are skipped outright
//	TIME                         -> EventTimeAdvance
//	COMMAND <addr> <rest...>     -> EventCommand
//	ECHO <rest...>                -> EventEcho
//	FAILURE <addr>                -> EventFailure (deprecated, §6)
//	START <addr>                  -> EventStart
//	EXIT                           -> EventExit
//
// One event per line; TimeAdvance is the tick boundary the simulator
// drains to (§3's "Sorted event script"). Parsing is entirely this
// package's concern — [sim.Simulator] only ever sees already-built
// [sim.Event] values (spec.md §6).
func parseScript(r io.Reader) ([]sim.Event, error) {
	var events []sim.Event
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ev, err := parseScriptLine(line)
		if err != nil {
			return nil, fmt.Errorf("command: line %d: %w", lineNo, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("command: reading script: %w", err)
	}
	return events, nil
}

func parseScriptLine(line string) (sim.Event, error) {
	fields := strings.Fields(line)
	tag := strings.ToUpper(fields[0])
	switch tag {
	case "TIME":
		return sim.Event{Kind: sim.EventTimeAdvance}, nil

	case "EXIT":
		return sim.Event{Kind: sim.EventExit}, nil

	case "COMMAND":
		addr, rest, err := parseAddrAndRest(line, fields)
		if err != nil {
			return sim.Event{}, err
		}
		return sim.Event{Kind: sim.EventCommand, Addr: addr, Command: rest}, nil

	case "ECHO":
		return sim.Event{Kind: sim.EventEcho, Message: strings.TrimSpace(strings.TrimPrefix(line, fields[0]))}, nil

	case "FAILURE":
		addr, err := parseSoleAddr(fields)
		if err != nil {
			return sim.Event{}, err
		}
		return sim.Event{Kind: sim.EventFailure, Addr: addr}, nil

	case "START":
		addr, err := parseSoleAddr(fields)
		if err != nil {
			return sim.Event{}, err
		}
		return sim.Event{Kind: sim.EventStart, Addr: addr}, nil

	default:
		return sim.Event{}, fmt.Errorf("%w: unknown event tag %q", sim.ErrUserInputMalformed, fields[0])
	}
}

// parseAddrAndRest splits a "COMMAND <addr> <rest...>" line into its
// address and the verbatim remainder, which is the string passed
// through to the node's on_command untouched (§6: the node's own
// command grammar, e.g. "send 2 hi", is opaque to this parser).
func parseAddrAndRest(line string, fields []string) (sim.Address, string, error) {
	if len(fields) < 2 {
		return 0, "", fmt.Errorf("%w: COMMAND requires an address and a string", sim.ErrUserInputMalformed)
	}
	addr, err := parseAddr(fields[1])
	if err != nil {
		return 0, "", err
	}
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(line, fields[0])), fields[1]))
	return addr, rest, nil
}

func parseSoleAddr(fields []string) (sim.Address, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("%w: %s requires exactly one address", sim.ErrUserInputMalformed, fields[0])
	}
	return parseAddr(fields[1])
}

func parseAddr(s string) (sim.Address, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid address %q", sim.ErrUserInputMalformed, s)
	}
	return sim.Address(n), nil
}
