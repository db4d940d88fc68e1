// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rbmk-project/nodesim/closepool"
)

// Config configures a [Simulator]. Zero value fields fall back to
// sensible defaults in [New]: [ModeNothing], no output, [slog.Default].
type Config struct {
	// Mode selects the [FailureController]'s escalation level.
	Mode Mode

	// DropRate, DelayRate, FailureRate, RecoveryRate are the
	// configuration-file rates of §6, each in [0, 1]. Ignored under
	// [ModeEverything].
	DropRate     float64
	DelayRate    float64
	FailureRate  float64
	RecoveryRate float64

	// Seed seeds the deterministic RNG (§3, §5).
	Seed int64

	// PromptIn/PromptOut carry the [FailureController]'s interactive
	// drop/delay/crash/order prompts. Required at [ModeCrash] and
	// above.
	PromptIn  io.Reader
	PromptOut io.Writer

	// EchoOut is where Echo events are written (§4.3). Defaults to
	// io.Discard.
	EchoOut io.Writer

	// Logger receives structured, per-tick diagnostics distinct from
	// EchoOut's simulated protocol output. Defaults to [slog.Default].
	Logger *slog.Logger
}

// Simulator is the discrete-event engine described by C1-C9. It owns
// the node table, in-transit queue, waiting-timeouts set, canceled-
// timeouts set, clock, and RNG exclusively; user code may only touch
// this state through a [*Runtime] (§3).
//
// Construct using [New].
type Simulator struct {
	cfg     Config
	clock   Clock
	table   NodeTable
	fc      *FailureController
	factory Factory
	source  CommandSource
	logger  *slog.Logger
	echo    io.Writer
	closers closepool.Pool

	inTransit []*Packet
	waiting   []*Timeout
	canceled  map[TimeoutID]bool
	nextTOID  TimeoutID
}

// New constructs a [*Simulator] from cfg, factory, and source. factory
// builds fresh [Node] instances on start_node; source supplies
// TimeAdvance/Command/Echo/Failure/Start/Exit events.
func New(cfg Config, factory Factory, source CommandSource) *Simulator {
	if cfg.EchoOut == nil {
		cfg.EchoOut = io.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Simulator{
		cfg:     cfg,
		factory: factory,
		source:  source,
		logger:  cfg.Logger,
		echo:    cfg.EchoOut,
		fc: NewFailureController(FailureControllerConfig{
			Mode:         cfg.Mode,
			DropRate:     cfg.DropRate,
			DelayRate:    cfg.DelayRate,
			FailureRate:  cfg.FailureRate,
			RecoveryRate: cfg.RecoveryRate,
			Seed:         cfg.Seed,
			In:           cfg.PromptIn,
			Out:          cfg.PromptOut,
		}),
		canceled: make(map[TimeoutID]bool),
	}
	return s
}

// AddCloser registers c to be closed, in reverse order of addition,
// when [*Simulator.Close] runs — e.g. a script file or an EchoOut sink
// with its own lifecycle.
func (s *Simulator) AddCloser(c io.Closer) {
	s.closers.Add(c)
}

// Close releases resources registered with AddCloser and the
// configured [CommandSource].
func (s *Simulator) Close() error {
	s.logger.Debug("closing simulator", "registered closers", s.closers.Len())
	var errv []error
	if err := s.source.Close(); err != nil {
		errv = append(errv, err)
	}
	if err := s.closers.Close(); err != nil {
		errv = append(errv, err)
	}
	return errors.Join(errv...)
}

// Clock returns the simulator's clock, mainly for tests and logging.
func (s *Simulator) Clock() *Clock {
	return &s.clock
}

// Table returns the simulator's node table, mainly for tests, CLI
// status output, and the final-state summary printed at Exit.
func (s *Simulator) Table() *NodeTable {
	return &s.table
}

// Run drives the simulation to completion, returning a process exit
// code: 0 on a clean Exit event or script/queue exhaustion, non-zero
// if err is non-nil (an internal invariant violation or a
// [CommandSource] error unrelated to normal exhaustion).
func (s *Simulator) Run() (code int, err error) {
	if s.source.Interactive() {
		code, err = s.runInteractive()
	} else {
		code, err = s.runScript()
	}
	s.printFinalSummary()
	if err != nil {
		return 1, err
	}
	return code, nil
}

// runScript drives [*Simulator.StepScript] to completion. It terminates
// when the script, in-transit queue, and waiting-timeouts set are all
// drained — which is not guaranteed to happen: a packet can be delayed
// every tick forever (§4.1, high delay rate), in which case only an
// explicit Exit event in the script ends the run.
func (s *Simulator) runScript() (int, error) {
	for {
		done, exit, err := s.StepScript()
		if err != nil {
			return 1, err
		}
		if done || exit {
			return 0, nil
		}
	}
}

// runInteractive drives [*Simulator.StepInteractive] to completion. It
// terminates only on an Exit event (§4.2, §9's flagged asymmetry with
// runScript, preserved as specified).
func (s *Simulator) runInteractive() (int, error) {
	for {
		exit, err := s.StepInteractive()
		if err != nil {
			return 1, err
		}
		if exit {
			return 0, nil
		}
	}
}

// StepScript runs exactly one tick in script mode's fixed phase order
// (§4.2): resolve-in-transit -> drain-script-to-TimeAdvance ->
// resolve-crashes -> resolve-timeouts -> execute -> advance-clock. done
// reports that the script, in-transit queue, and waiting-timeouts set
// were all drained with nothing left to execute; exit reports an
// explicit Exit event. Neither advances the clock once true. Exposed
// mainly so a caller (or a test) can drive a bounded number of ticks
// without risking an unbounded loop when a packet is perpetually
// delayed (§4.1) and the script never reaches an Exit event.
func (s *Simulator) StepScript() (done, exit bool, err error) {
	s.canceled = make(map[TimeoutID]bool)

	inTransitEvents, err := s.resolveInTransitPhase()
	if err != nil {
		return false, false, err
	}

	scriptEvents, eof, err := s.drainToTimeAdvance()
	if err != nil {
		return false, false, err
	}

	events := append(inTransitEvents, scriptEvents...)
	if eof && len(s.inTransit) == 0 && len(s.waiting) == 0 && len(events) == 0 {
		return true, false, nil
	}

	crashEvents, err := s.resolveCrashesPhase()
	if err != nil {
		return false, false, err
	}
	events = append(events, crashEvents...)
	events = append(events, s.resolveTimeoutsPhase()...)

	exit, err = s.executePhase(events)
	if err != nil {
		return false, false, err
	}
	if exit {
		return false, true, nil
	}
	s.clock.Advance()
	return false, false, nil
}

// StepInteractive runs exactly one tick in interactive mode's fixed
// phase order (§4.2): prompt-user-to-TimeAdvance -> resolve-crashes ->
// resolve-in-transit -> resolve-timeouts -> execute -> advance-clock.
// exit reports an explicit Exit event; the clock is not advanced once
// true.
func (s *Simulator) StepInteractive() (exit bool, err error) {
	s.canceled = make(map[TimeoutID]bool)

	events, _, err := s.drainToTimeAdvance()
	if err != nil {
		return false, err
	}

	crashEvents, err := s.resolveCrashesPhase()
	if err != nil {
		return false, err
	}
	events = append(events, crashEvents...)

	inTransitEvents, err := s.resolveInTransitPhase()
	if err != nil {
		return false, err
	}
	events = append(events, inTransitEvents...)
	events = append(events, s.resolveTimeoutsPhase()...)

	exit, err = s.executePhase(events)
	if err != nil {
		return false, err
	}
	if exit {
		return true, nil
	}
	s.clock.Advance()
	return false, nil
}

// drainToTimeAdvance pulls events from the [CommandSource] until it
// yields an EventTimeAdvance (the tick boundary, not itself included
// in the returned slice) or is exhausted. eof reports the latter.
func (s *Simulator) drainToTimeAdvance() (events []Event, eof bool, err error) {
	for {
		ev, err := s.source.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return events, true, nil
			}
			return nil, false, err
		}
		if ev.Kind == EventTimeAdvance {
			return events, false, nil
		}
		events = append(events, ev)
	}
}

// resolveInTransitPhase applies the failure controller's drop/delay
// policy to every currently in-transit packet (§4.2's
// resolve-in-transit). Delayed packets return to the queue for next
// tick; dropped packets vanish; survivors become Delivery events.
func (s *Simulator) resolveInTransitPhase() ([]Event, error) {
	candidates := s.inTransit
	s.inTransit = nil

	verdicts, err := s.fc.ResolveInTransit(candidates)
	if err != nil {
		return nil, err
	}

	var events []Event
	for i, pkt := range candidates {
		switch verdicts[i] {
		case VerdictDrop:
			s.logger.Debug("packet dropped", "tick", s.clock.Now(), "src", pkt.Src, "dst", pkt.Dst)
		case VerdictDelay:
			s.logger.Debug("packet delayed", "tick", s.clock.Now(), "src", pkt.Src, "dst", pkt.Dst)
			s.inTransit = append(s.inTransit, pkt)
		default:
			events = append(events, Event{Kind: EventDelivery, Pkt: pkt})
		}
	}
	return events, nil
}

// resolveCrashesPhase emits Failure events for live nodes the failure
// controller selects to crash and Start events for crashed nodes it
// selects to recover (§4.2's resolve-crashes). Addresses are sorted
// before being handed to the controller so RNG draws happen in a
// fixed order regardless of Go's randomized map iteration (§5's
// determinism law).
func (s *Simulator) resolveCrashesPhase() ([]Event, error) {
	live := s.table.LiveAddresses()
	crashed := s.table.CrashedAddresses()
	sortAddrs(live)
	sortAddrs(crashed)

	toCrash, toStart, err := s.fc.ResolveCrashes(live, crashed)
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, addr := range toCrash {
		events = append(events, Event{Kind: EventFailure, Addr: addr})
	}
	for _, addr := range toStart {
		events = append(events, Event{Kind: EventStart, Addr: addr})
	}
	return events, nil
}

// resolveTimeoutsPhase moves every waiting timeout with FireTick <=
// now that is not canceled into this tick's event list (§4.2's
// resolve-timeouts: "waiting - canceled").
func (s *Simulator) resolveTimeoutsPhase() []Event {
	now := s.clock.Now()
	var events []Event
	var remaining []*Timeout
	for _, to := range s.waiting {
		if to.FireTick <= now && !s.canceled[to.ID] {
			events = append(events, Event{Kind: EventTimeout, TO: to})
			continue
		}
		remaining = append(remaining, to)
	}
	s.waiting = remaining
	return events
}

// executePhase orders events per the failure controller (random
// shuffle under RNG modes, an operator permutation under
// [ModeEverything]) and dispatches each in turn. It reports whether
// an Exit event was dispatched.
func (s *Simulator) executePhase(events []Event) (exit bool, err error) {
	order, err := s.fc.Order(events)
	if err != nil {
		return false, err
	}
	for _, i := range order {
		if s.dispatchEvent(events[i]) {
			return true, nil
		}
	}
	return false, nil
}

// dispatchEvent executes one event per the table in §4.3, absorbing
// any [ErrNodeCrash] a handler signals (bookkeeping for that crash was
// already done by the node's call into [*Runtime]). It reports
// whether ev was an Exit event.
func (s *Simulator) dispatchEvent(ev Event) (exit bool) {
	switch ev.Kind {
	case EventFailure:
		s.failNode(ev.Addr)
		s.logger.Info("node failed", "tick", s.clock.Now(), "addr", ev.Addr)

	case EventStart:
		if err := s.startNode(ev.Addr); err != nil {
			s.logger.Warn("start_node failed", "tick", s.clock.Now(), "addr", ev.Addr, "err", err)
		} else {
			s.logger.Info("node started", "tick", s.clock.Now(), "addr", ev.Addr)
		}

	case EventCommand:
		if _, err := s.dispatchCommand(ev.Addr, ev.Command); err != nil {
			s.logger.Warn("command failed", "tick", s.clock.Now(), "addr", ev.Addr, "err", err)
		}

	case EventEcho:
		fmt.Fprintln(s.echo, ev.Message)

	case EventDelivery:
		s.deliverPacket(ev.Pkt)

	case EventTimeout:
		s.fireTimeout(ev.TO)

	case EventExit:
		s.logger.Info("exit requested", "tick", s.clock.Now())
		return true
	}
	return false
}

// dispatchCommand implements a Command event's on_command dispatch,
// distinguishing "delivered to a live node" from "ignored because the
// address is crashed" from "invalid address" (supplemented feature: the
// original's sendNodeCmd liveness return value, §4.3).
func (s *Simulator) dispatchCommand(addr Address, command string) (delivered bool, err error) {
	if !addr.Valid() {
		s.logger.Warn("command: invalid address", "addr", addr)
		return false, ErrInvalidAddress
	}
	node, ok := s.table.Node(addr)
	if !ok {
		if s.table.IsCrashed(addr) {
			s.logger.Debug("command: ignored, node crashed", "addr", addr)
		} else {
			s.logger.Debug("command: ignored, node absent", "addr", addr)
		}
		return false, nil
	}
	if err := node.OnCommand(command); err != nil && !errors.Is(err, ErrNodeCrash) {
		s.logger.Warn("on_command returned error", "addr", addr, "err", err)
	}
	return true, nil
}

// deliverPacket implements a Delivery event: if the destination is
// live, call its on_receive; otherwise drop silently (§4.3).
func (s *Simulator) deliverPacket(pkt *Packet) {
	node, ok := s.table.Node(pkt.Dst)
	if !ok {
		s.logger.Debug("delivery: dropped, destination not live", "src", pkt.Src, "dst", pkt.Dst)
		return
	}
	if err := node.OnReceive(pkt.Src, pkt.Protocol, pkt.Payload); err != nil && !errors.Is(err, ErrNodeCrash) {
		s.logger.Warn("on_receive returned error", "dst", pkt.Dst, "err", err)
	}
}

// fireTimeout implements a Timeout event, re-checking liveness and
// cancellation at dispatch time since a Failure event for the same
// owner may have been reordered ahead of it within the same tick (§5).
func (s *Simulator) fireTimeout(to *Timeout) {
	if s.canceled[to.ID] || !s.table.IsLive(to.Owner) {
		return
	}
	if err := to.Callback(); err != nil && !errors.Is(err, ErrNodeCrash) {
		s.logger.Warn("timeout callback returned error", "owner", to.Owner, "err", err)
	}
}

// failNode implements fail_node(n) (§4.4).
func (s *Simulator) failNode(addr Address) error {
	node, ok := s.table.Node(addr)
	if !ok {
		return nil
	}
	stopErr := node.Stop()
	s.table.markCrashed(addr)
	remaining := s.waiting[:0]
	for _, to := range s.waiting {
		if to.Owner == addr {
			s.canceled[to.ID] = true
			continue
		}
		remaining = append(remaining, to)
	}
	s.waiting = remaining
	s.table.checkInvariant(addr)
	return stopErr
}

// startNode implements start_node(n) (§4.5).
func (s *Simulator) startNode(addr Address) error {
	if !addr.Valid() {
		return ErrInvalidAddress
	}
	if s.table.IsLive(addr) {
		s.failNode(addr)
	}
	wasCrashed := s.table.IsCrashed(addr)

	rt := &Runtime{sim: s, addr: addr}
	node, err := s.factory(rt)
	if err != nil {
		s.table.forceCrashed(addr)
		return fmt.Errorf("%w: %v", ErrFactoryFailure, err)
	}

	s.table.markLive(addr, node, rt)
	if !wasCrashed {
		s.table.noteCreation()
	}

	if err := node.Start(); err != nil && !errors.Is(err, ErrNodeCrash) {
		s.logger.Warn("start returned error", "addr", addr, "err", err)
	}
	return nil
}

// sendPkt implements send_pkt(from, to, payload) (§4.6).
func (s *Simulator) sendPkt(from, to Address, protocol int, payload []byte) error {
	if !s.table.IsLive(from) {
		return ErrSendFromCrashed
	}
	if to == Broadcast {
		for _, dest := range s.liveExceptSorted(from) {
			// Re-check liveness on every iteration: a crash observed
			// mid-broadcast leaves already-enqueued packets in transit
			// and stops further enqueues (§4.6's crash-mid-broadcast
			// semantics). Nothing in this synchronous loop can flip
			// liveness today, but the check is what the semantics
			// require, not an artifact of how it happens to run.
			if !s.table.IsLive(from) {
				break
			}
			s.inTransit = append(s.inTransit, &Packet{Src: from, Dst: dest, Protocol: protocol, Payload: payload})
		}
		return nil
	}
	if !to.Valid() {
		return ErrInvalidAddress
	}
	s.inTransit = append(s.inTransit, &Packet{Src: from, Dst: to, Protocol: protocol, Payload: payload})
	return nil
}

// liveExceptSorted returns every live address other than from, sorted
// ascending so broadcast fan-out order is deterministic.
func (s *Simulator) liveExceptSorted(from Address) []Address {
	live := s.table.LiveAddresses()
	out := make([]Address, 0, len(live))
	for _, addr := range live {
		if addr != from {
			out = append(out, addr)
		}
	}
	sortAddrs(out)
	return out
}

// registerTimeout implements set_timeout, assigning the next
// [TimeoutID] and appending to the waiting set.
func (s *Simulator) registerTimeout(owner Address, fireTick int, cb func() error) TimeoutID {
	s.nextTOID++
	id := s.nextTOID
	s.waiting = append(s.waiting, &Timeout{ID: id, Owner: owner, FireTick: fireTick, Callback: cb})
	return id
}

// writeBarrierCheck implements the write-barrier crash check (§4.7).
func (s *Simulator) writeBarrierCheck(addr Address) error {
	fire, err := s.fc.WriteBarrierTrial(addr)
	if err != nil {
		return err
	}
	if fire {
		s.failNode(addr)
		return ErrNodeCrash
	}
	return nil
}

// stringer is satisfied by a [Node] that wants its final-state summary
// line to show more than "live"/"crashed".
type stringer interface {
	String() string
}

// printFinalSummary implements the original's stop()-time listing of
// every node's address and state, restored as a supplemented feature.
func (s *Simulator) printFinalSummary() {
	live := s.table.LiveAddresses()
	crashed := s.table.CrashedAddresses()
	sortAddrs(live)
	sortAddrs(crashed)

	fmt.Fprintln(s.echo, "final state:")
	for _, addr := range live {
		node, _ := s.table.Node(addr)
		if str, ok := node.(stringer); ok {
			fmt.Fprintf(s.echo, "  %s: live (%s)\n", addr, str.String())
		} else {
			fmt.Fprintf(s.echo, "  %s: live\n", addr)
		}
	}
	for _, addr := range crashed {
		fmt.Fprintf(s.echo, "  %s: crashed\n", addr)
	}
	fmt.Fprintf(s.echo, "nodes ever created: %d\n", s.table.Created())
}
