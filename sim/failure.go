// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// Mode selects how much control the [FailureController] hands to an
// interactive operator versus its RNG. Modes escalate: each mode
// subsumes the features of the modes below it.
type Mode int

const (
	// ModeNothing drops, delays, crashes, and recovers nothing; event
	// order is a random shuffle.
	ModeNothing Mode = iota

	// ModeDrop adds RNG-controlled drops.
	ModeDrop

	// ModeDelay adds RNG-controlled delays.
	ModeDelay

	// ModeCrash moves drop/delay decisions to an interactive prompt and
	// adds RNG-controlled crashes/recoveries.
	ModeCrash

	// ModeEverything moves crash/recovery decisions and event ordering
	// to an interactive prompt as well. RNG-controlled parameters are
	// ignored under this mode.
	ModeEverything
)

// String returns the configuration-file spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNothing:
		return "NOTHING"
	case ModeDrop:
		return "DROP"
	case ModeDelay:
		return "DELAY"
	case ModeCrash:
		return "CRASH"
	case ModeEverything:
		return "EVERYTHING"
	default:
		return "UNKNOWN"
	}
}

// ParseMode parses the configuration-file spelling of a [Mode].
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NOTHING":
		return ModeNothing, nil
	case "DROP":
		return ModeDrop, nil
	case "DELAY":
		return ModeDelay, nil
	case "CRASH":
		return ModeCrash, nil
	case "EVERYTHING":
		return ModeEverything, nil
	default:
		return 0, fmt.Errorf("sim: %w: unknown mode %q", ErrUserInputMalformed, s)
	}
}

// FailureController decides drops, delays, crashes, recoveries, and
// the per-tick execution order, escalating control from its RNG to an
// interactive prompt as [Mode] increases (§4.1).
//
// Construct using [NewFailureController].
type FailureController struct {
	mode         Mode
	dropRate     float64
	delayRate    float64
	failureRate  float64
	recoveryRate float64
	rng          *rand.Rand

	in  *bufio.Reader
	out io.Writer
}

// FailureControllerConfig configures a [FailureController].
type FailureControllerConfig struct {
	Mode         Mode
	DropRate     float64
	DelayRate    float64
	FailureRate  float64
	RecoveryRate float64

	// Seed seeds the deterministic RNG. Ignored under [ModeEverything],
	// where RNG-controlled parameters play no role (§6).
	Seed int64

	// In is where interactive prompts read operator input from. Unused
	// below [ModeCrash].
	In io.Reader

	// Out is where interactive prompts write their listings to. Unused
	// below [ModeCrash].
	Out io.Writer
}

// NewFailureController constructs a [*FailureController] from cfg.
func NewFailureController(cfg FailureControllerConfig) *FailureController {
	fc := &FailureController{
		mode:         cfg.Mode,
		dropRate:     cfg.DropRate,
		delayRate:    cfg.DelayRate,
		failureRate:  cfg.FailureRate,
		recoveryRate: cfg.RecoveryRate,
		rng:          rand.New(rand.NewSource(cfg.Seed)),
		out:          cfg.Out,
	}
	if cfg.In != nil {
		fc.in = bufio.NewReader(cfg.In)
	}
	return fc
}

// Verdict is the decision a [FailureController] reaches for one
// in-transit packet.
type Verdict int

const (
	// VerdictDeliver means the packet becomes a Delivery event this tick.
	VerdictDeliver Verdict = iota

	// VerdictDrop means the packet disappears.
	VerdictDrop

	// VerdictDelay means the packet returns to the in-transit queue for
	// reconsideration next tick.
	VerdictDelay
)

// classifyRNG applies the drop/delay Bernoulli trials against the RNG,
// drawing in the fixed order the determinism law (§5) requires: first
// the drop draw, then — only if not dropped — the delay draw. Each
// trial draws only once the mode owns that feature (§4.1: NOTHING owns
// neither, DROP owns drops but not delays), so the draw order stays
// fixed across modes even though a given mode may skip a draw outright.
func (fc *FailureController) classifyRNG() Verdict {
	if fc.mode >= ModeDrop && fc.rng.Float64() < fc.dropRate {
		return VerdictDrop
	}
	if fc.mode < ModeDelay {
		return VerdictDeliver
	}
	// Conditional delay probability: the marginal the user configured
	// composes correctly only if we scale by 1/(1-dropRate) (§4.1).
	denom := 1 - fc.dropRate
	effective := fc.delayRate
	if denom > 0 {
		effective = fc.delayRate / denom
	}
	if fc.rng.Float64() < effective {
		return VerdictDelay
	}
	return VerdictDeliver
}

// ResolveInTransit classifies every packet in candidates, in order,
// returning the verdict for each. Under [ModeCrash] and
// [ModeEverything] it prompts the operator once for the whole batch;
// under lower modes it draws from the RNG per packet.
func (fc *FailureController) ResolveInTransit(candidates []*Packet) ([]Verdict, error) {
	if fc.mode < ModeCrash {
		verdicts := make([]Verdict, len(candidates))
		for i := range candidates {
			verdicts[i] = fc.classifyRNG()
		}
		return verdicts, nil
	}
	return fc.promptDropDelay(candidates)
}

// promptDropDelay implements the interactive drop/delay prompt
// (§4.1): list in-transit packets with ordinal indices, read two
// whitespace-delimited index lists. An index in both lists delays
// (delay wins); an empty line means "none".
func (fc *FailureController) promptDropDelay(candidates []*Packet) ([]Verdict, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	fmt.Fprintln(fc.out, "in-transit packets:")
	for i, pkt := range candidates {
		fmt.Fprintf(fc.out, "  [%d] %s\n", i, pkt)
	}
	drop, err := fc.promptIndexSet("drop indices (blank for none): ", len(candidates))
	if err != nil {
		return nil, err
	}
	delay, err := fc.promptIndexSet("delay indices (blank for none): ", len(candidates))
	if err != nil {
		return nil, err
	}
	verdicts := make([]Verdict, len(candidates))
	for i := range verdicts {
		verdicts[i] = VerdictDeliver
	}
	for i := range drop {
		verdicts[i] = VerdictDrop
	}
	for i := range delay {
		// Delay wins over drop when an index appears in both lists.
		verdicts[i] = VerdictDelay
	}
	return verdicts, nil
}

// promptIndexSet reads one line of whitespace-separated integer
// indices in [0, n), re-prompting on malformed input.
func (fc *FailureController) promptIndexSet(prompt string, n int) (map[int]bool, error) {
	for {
		fmt.Fprint(fc.out, prompt)
		line, err := fc.readLine()
		if err != nil {
			return nil, err
		}
		set, ok := parseIndexSet(line, n)
		if ok {
			return set, nil
		}
		fmt.Fprintf(fc.out, "invalid input: %v, try again\n", ErrUserInputMalformed)
	}
}

// parseIndexSet parses a whitespace-delimited list of indices, each
// required to be in [0, n). An empty (or whitespace-only) line is a
// valid, empty set.
func parseIndexSet(line string, n int) (map[int]bool, bool) {
	set := make(map[int]bool)
	fields := strings.Fields(line)
	for _, f := range fields {
		idx, err := strconv.Atoi(f)
		if err != nil || idx < 0 || idx >= n {
			return nil, false
		}
		set[idx] = true
	}
	return set, true
}

// ResolveCrashes returns the addresses of live nodes to crash and
// crashed nodes to restart this tick. Below [ModeCrash] it selects
// nothing; under [ModeCrash] it draws Bernoulli trials against
// failureRate/recoveryRate for each address; under [ModeEverything] it
// prompts interactively.
func (fc *FailureController) ResolveCrashes(live, crashed []Address) (toCrash, toStart []Address, err error) {
	if fc.mode < ModeCrash {
		return nil, nil, nil
	}
	if fc.mode == ModeCrash {
		for _, addr := range live {
			if fc.rng.Float64() < fc.failureRate {
				toCrash = append(toCrash, addr)
			}
		}
		for _, addr := range crashed {
			if fc.rng.Float64() < fc.recoveryRate {
				toStart = append(toStart, addr)
			}
		}
		return toCrash, toStart, nil
	}
	return fc.promptCrashRecover(live, crashed)
}

// promptCrashRecover implements the interactive crash prompt (§4.1):
// show live and crashed address lists, read a crash-set and a
// restart-set. A non-integer address re-prompts for both sets.
func (fc *FailureController) promptCrashRecover(live, crashed []Address) (toCrash, toStart []Address, err error) {
	sortAddrs(live)
	sortAddrs(crashed)
	fmt.Fprintf(fc.out, "live nodes: %s\n", joinAddrs(live))
	fmt.Fprintf(fc.out, "crashed nodes: %s\n", joinAddrs(crashed))
	fmt.Fprint(fc.out, "crash which nodes (blank for none): ")
	crashLine, err := fc.readLine()
	if err != nil {
		return nil, nil, err
	}
	fmt.Fprint(fc.out, "restart which nodes (blank for none): ")
	startLine, err := fc.readLine()
	if err != nil {
		return nil, nil, err
	}
	for _, f := range strings.Fields(crashLine) {
		addr, err := strconv.Atoi(f)
		if err != nil {
			fmt.Fprintf(fc.out, "invalid input: %v: %q, try again\n", ErrUserInputMalformed, f)
			return fc.promptCrashRecover(live, crashed)
		}
		toCrash = append(toCrash, Address(addr))
	}
	for _, f := range strings.Fields(startLine) {
		addr, err := strconv.Atoi(f)
		if err != nil {
			fmt.Fprintf(fc.out, "invalid input: %v: %q, try again\n", ErrUserInputMalformed, f)
			return fc.promptCrashRecover(live, crashed)
		}
		toStart = append(toStart, Address(addr))
	}
	return toCrash, toStart, nil
}

// WriteBarrierTrial decides whether a write-barrier check (§4.7)
// fires, for node addr.
func (fc *FailureController) WriteBarrierTrial(addr Address) (bool, error) {
	if fc.mode < ModeCrash {
		return false, nil
	}
	if fc.mode == ModeCrash {
		return fc.rng.Float64() < fc.failureRate, nil
	}
	fmt.Fprintf(fc.out, "node %s is about to commit a write: crash it? (y/n): ", addr)
	line, err := fc.readLine()
	if err != nil {
		return false, err
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes", nil
}

// Order returns the indices of events, 0..n-1, in the order the tick
// loop should execute them: a random permutation under RNG modes, an
// operator-supplied permutation under [ModeEverything] (§4.2).
func (fc *FailureController) Order(events []Event) ([]int, error) {
	n := len(events)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if fc.mode < ModeEverything {
		fc.rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		return idx, nil
	}
	return fc.promptPermutation(events)
}

// promptPermutation implements EVERYTHING mode's execution-order
// prompt (§4.1): list events, read a permutation; an empty line means
// "in script order"; non-permutation input re-prompts.
func (fc *FailureController) promptPermutation(events []Event) ([]int, error) {
	n := len(events)
	identity := make([]int, n)
	for i := range identity {
		identity[i] = i
	}
	if n == 0 {
		return identity, nil
	}
	fmt.Fprintln(fc.out, "events this tick:")
	for i, ev := range events {
		fmt.Fprintf(fc.out, "  [%d] %s\n", i, ev)
	}
	for {
		fmt.Fprint(fc.out, "execution order (blank for script order): ")
		line, err := fc.readLine()
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(line) == "" {
			return identity, nil
		}
		perm, ok := parsePermutation(line, n)
		if ok {
			return perm, nil
		}
		fmt.Fprintf(fc.out, "invalid input: %v, try again\n", ErrUserInputMalformed)
	}
}

// parsePermutation parses a whitespace-delimited permutation of 0..n-1.
func parsePermutation(line string, n int) ([]int, bool) {
	fields := strings.Fields(line)
	if len(fields) != n {
		return nil, false
	}
	perm := make([]int, n)
	seen := make(map[int]bool, n)
	for i, f := range fields {
		idx, err := strconv.Atoi(f)
		if err != nil || idx < 0 || idx >= n || seen[idx] {
			return nil, false
		}
		seen[idx] = true
		perm[i] = idx
	}
	return perm, true
}

// readLine reads one line from the interactive input, trimming the
// trailing newline.
func (fc *FailureController) readLine() (string, error) {
	if fc.in == nil {
		return "", fmt.Errorf("sim: failure controller has no interactive input configured")
	}
	line, err := fc.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func sortAddrs(addrs []Address) {
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
}

func joinAddrs(addrs []Address) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}
