// SPDX-License-Identifier: GPL-3.0-or-later

package command

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rbmk-project/nodesim/sim"
)

// interactiveSource is a [sim.CommandSource] that reads one line at a
// time from an operator. Blank input and the literal "TIME" token both
// act as the tick boundary (§6), the token matched case-insensitively.
// interactiveSource never reports exhaustion: Next waits for the next
// line, and once the input is exhausted it returns a TimeAdvance event
// on every call.
//
// Grounded on the original's interactive branch of Simulator.start(),
// which reads via keyboard.readLine() and treats a null/blank line the
// same as an explicit TIME command.
type interactiveSource struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewInteractiveSource builds an interactive [sim.CommandSource]
// reading commands from in and echoing prompts to out.
func NewInteractiveSource(in io.Reader, out io.Writer) sim.CommandSource {
	return &interactiveSource{in: bufio.NewScanner(in), out: out}
}

func (s *interactiveSource) Next() (sim.Event, error) {
	for {
		fmt.Fprint(s.out, "> ")
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				return sim.Event{}, err
			}
			// Mirrors the original's "null input means advance": an
			// exhausted interactive terminal still yields tick boundaries
			// forever rather than ending the simulation outright, since
			// only an explicit Exit event is allowed to do that (§4.2).
			return sim.Event{Kind: sim.EventTimeAdvance}, nil
		}
		line := strings.TrimSpace(s.in.Text())
		if line == "" || strings.EqualFold(line, "TIME") {
			return sim.Event{Kind: sim.EventTimeAdvance}, nil
		}
		ev, err := parseInteractiveLine(line)
		if err != nil {
			fmt.Fprintf(s.out, "invalid input: %v, try again\n", err)
			continue
		}
		return ev, nil
	}
}

func (s *interactiveSource) Interactive() bool { return true }

func (s *interactiveSource) Close() error { return nil }

// parseInteractiveLine reuses the script grammar (COMMAND/ECHO/
// FAILURE/START/EXIT) for a single operator-typed line; TIME and blank
// lines are handled by the caller before reaching here.
func parseInteractiveLine(line string) (sim.Event, error) {
	return parseScriptLine(line)
}
