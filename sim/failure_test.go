// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rbmk-project/nodesim/sim/packet"
)

func TestClassifyRNGModeGating(t *testing.T) {
	// NOTHING owns neither drops nor delays: a packet is always
	// delivered regardless of how aggressive the configured rates are.
	fc := NewFailureController(FailureControllerConfig{
		Mode: ModeNothing, DropRate: 1.0, DelayRate: 1.0, Seed: 1,
	})
	for i := 0; i < 20; i++ {
		if v := fc.classifyRNG(); v != VerdictDeliver {
			t.Fatalf("NOTHING mode classifyRNG() = %v; want VerdictDeliver", v)
		}
	}

	// DROP owns drops but not delays.
	fc = NewFailureController(FailureControllerConfig{
		Mode: ModeDrop, DropRate: 0, DelayRate: 1.0, Seed: 1,
	})
	for i := 0; i < 20; i++ {
		if v := fc.classifyRNG(); v != VerdictDeliver {
			t.Fatalf("DROP mode with DropRate=0 classifyRNG() = %v; want VerdictDeliver, not delayed", v)
		}
	}
	fc = NewFailureController(FailureControllerConfig{
		Mode: ModeDrop, DropRate: 1.0, DelayRate: 1.0, Seed: 1,
	})
	if v := fc.classifyRNG(); v != VerdictDrop {
		t.Fatalf("DROP mode with DropRate=1.0 classifyRNG() = %v; want VerdictDrop", v)
	}

	// DELAY owns both.
	fc = NewFailureController(FailureControllerConfig{
		Mode: ModeDelay, DropRate: 0, DelayRate: 1.0, Seed: 1,
	})
	if v := fc.classifyRNG(); v != VerdictDelay {
		t.Fatalf("DELAY mode with DelayRate=1.0 classifyRNG() = %v; want VerdictDelay", v)
	}
}

func TestResolveInTransitPromptsUnderCrashMode(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("0\n1\n")
	fc := NewFailureController(FailureControllerConfig{
		Mode: ModeCrash, In: in, Out: &out,
	})
	candidates := []*packet.Packet{
		{Src: 1, Dst: 2, Protocol: 0, Payload: []byte("a")},
		{Src: 3, Dst: 4, Protocol: 0, Payload: []byte("b")},
	}
	verdicts, err := fc.ResolveInTransit(candidates)
	if err != nil {
		t.Fatalf("ResolveInTransit: %v", err)
	}
	if len(verdicts) != 2 {
		t.Fatalf("got %d verdicts; want 2", len(verdicts))
	}
	if verdicts[0] != VerdictDrop {
		t.Fatalf("verdicts[0] = %v; want VerdictDrop", verdicts[0])
	}
	if verdicts[1] != VerdictDelay {
		t.Fatalf("verdicts[1] = %v; want VerdictDelay", verdicts[1])
	}
}

func TestPromptDropDelayDelayWinsOverDrop(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("0\n0\n")
	fc := NewFailureController(FailureControllerConfig{
		Mode: ModeCrash, In: in, Out: &out,
	})
	candidates := []*packet.Packet{
		{Src: 1, Dst: 2, Protocol: 0, Payload: []byte("a")},
	}
	verdicts, err := fc.promptDropDelay(candidates)
	if err != nil {
		t.Fatalf("promptDropDelay: %v", err)
	}
	if verdicts[0] != VerdictDelay {
		t.Fatalf("verdicts[0] = %v; want VerdictDelay when an index is both dropped and delayed", verdicts[0])
	}
}

func TestPromptDropDelayBlankMeansNone(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("\n\n")
	fc := NewFailureController(FailureControllerConfig{
		Mode: ModeCrash, In: in, Out: &out,
	})
	candidates := []*packet.Packet{
		{Src: 1, Dst: 2, Protocol: 0, Payload: []byte("a")},
	}
	verdicts, err := fc.promptDropDelay(candidates)
	if err != nil {
		t.Fatalf("promptDropDelay: %v", err)
	}
	if verdicts[0] != VerdictDeliver {
		t.Fatalf("verdicts[0] = %v; want VerdictDeliver", verdicts[0])
	}
}

func TestPromptDropDelayReprompsOnMalformedInput(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("garbage\n\n\n")
	fc := NewFailureController(FailureControllerConfig{
		Mode: ModeCrash, In: in, Out: &out,
	})
	candidates := []*packet.Packet{
		{Src: 1, Dst: 2, Protocol: 0, Payload: []byte("a")},
	}
	verdicts, err := fc.promptDropDelay(candidates)
	if err != nil {
		t.Fatalf("promptDropDelay: %v", err)
	}
	if verdicts[0] != VerdictDeliver {
		t.Fatalf("verdicts[0] = %v; want VerdictDeliver", verdicts[0])
	}
	if !strings.Contains(out.String(), "invalid input") {
		t.Fatalf("output %q does not mention the re-prompt", out.String())
	}
}

func TestResolveCrashesPromptsUnderEverythingMode(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("1\n2\n")
	fc := NewFailureController(FailureControllerConfig{
		Mode: ModeEverything, In: in, Out: &out,
	})
	toCrash, toStart, err := fc.ResolveCrashes([]Address{1, 3}, []Address{2})
	if err != nil {
		t.Fatalf("ResolveCrashes: %v", err)
	}
	if len(toCrash) != 1 || toCrash[0] != 1 {
		t.Fatalf("toCrash = %v; want [1]", toCrash)
	}
	if len(toStart) != 1 || toStart[0] != 2 {
		t.Fatalf("toStart = %v; want [2]", toStart)
	}
	if !strings.Contains(out.String(), "live nodes: 1,3") {
		t.Fatalf("output %q does not list live nodes", out.String())
	}
	if !strings.Contains(out.String(), "crashed nodes: 2") {
		t.Fatalf("output %q does not list crashed nodes", out.String())
	}
}

func TestResolveCrashesDrawsRNGUnderCrashMode(t *testing.T) {
	fc := NewFailureController(FailureControllerConfig{
		Mode: ModeCrash, FailureRate: 1.0, RecoveryRate: 1.0, Seed: 1,
	})
	toCrash, toStart, err := fc.ResolveCrashes([]Address{1}, []Address{2})
	if err != nil {
		t.Fatalf("ResolveCrashes: %v", err)
	}
	if len(toCrash) != 1 || toCrash[0] != 1 {
		t.Fatalf("toCrash = %v; want [1] with FailureRate=1.0", toCrash)
	}
	if len(toStart) != 1 || toStart[0] != 2 {
		t.Fatalf("toStart = %v; want [2] with RecoveryRate=1.0", toStart)
	}
}

func TestResolveCrashesNoOpBelowCrashMode(t *testing.T) {
	fc := NewFailureController(FailureControllerConfig{
		Mode: ModeDelay, FailureRate: 1.0, RecoveryRate: 1.0, Seed: 1,
	})
	toCrash, toStart, err := fc.ResolveCrashes([]Address{1}, []Address{2})
	if err != nil {
		t.Fatalf("ResolveCrashes: %v", err)
	}
	if toCrash != nil || toStart != nil {
		t.Fatalf("toCrash=%v toStart=%v; want both nil below CRASH mode", toCrash, toStart)
	}
}

func TestWriteBarrierTrialInteractive(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("yes\nno\n")
	fc := NewFailureController(FailureControllerConfig{
		Mode: ModeEverything, In: in, Out: &out,
	})
	crash, err := fc.WriteBarrierTrial(1)
	if err != nil {
		t.Fatalf("WriteBarrierTrial: %v", err)
	}
	if !crash {
		t.Fatalf("first WriteBarrierTrial = false; want true for 'yes'")
	}
	crash, err = fc.WriteBarrierTrial(1)
	if err != nil {
		t.Fatalf("WriteBarrierTrial: %v", err)
	}
	if crash {
		t.Fatalf("second WriteBarrierTrial = true; want false for 'no'")
	}
}

func TestWriteBarrierTrialRNGUnderCrashMode(t *testing.T) {
	fc := NewFailureController(FailureControllerConfig{
		Mode: ModeCrash, FailureRate: 1.0, Seed: 1,
	})
	crash, err := fc.WriteBarrierTrial(1)
	if err != nil {
		t.Fatalf("WriteBarrierTrial: %v", err)
	}
	if !crash {
		t.Fatalf("WriteBarrierTrial = false; want true with FailureRate=1.0 under CRASH mode")
	}
}

func TestWriteBarrierTrialNoOpBelowCrashMode(t *testing.T) {
	fc := NewFailureController(FailureControllerConfig{
		Mode: ModeDelay, FailureRate: 1.0, Seed: 1,
	})
	crash, err := fc.WriteBarrierTrial(1)
	if err != nil {
		t.Fatalf("WriteBarrierTrial: %v", err)
	}
	if crash {
		t.Fatalf("WriteBarrierTrial = true; want false below CRASH mode regardless of FailureRate")
	}
}

func TestPromptPermutationExplicitOrder(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("1 0\n")
	fc := NewFailureController(FailureControllerConfig{
		Mode: ModeEverything, In: in, Out: &out,
	})
	events := []Event{
		{Kind: EventEcho, Message: "first"},
		{Kind: EventEcho, Message: "second"},
	}
	order, err := fc.Order(events)
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 0 {
		t.Fatalf("order = %v; want [1 0]", order)
	}
}

func TestPromptPermutationBlankMeansScriptOrder(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("\n")
	fc := NewFailureController(FailureControllerConfig{
		Mode: ModeEverything, In: in, Out: &out,
	})
	events := []Event{
		{Kind: EventEcho, Message: "first"},
		{Kind: EventEcho, Message: "second"},
	}
	order, err := fc.Order(events)
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if len(order) != 2 || order[0] != 0 || order[1] != 1 {
		t.Fatalf("order = %v; want [0 1] (script order)", order)
	}
}

func TestPromptPermutationReprompsOnBadPermutation(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("0 0\n1 0\n")
	fc := NewFailureController(FailureControllerConfig{
		Mode: ModeEverything, In: in, Out: &out,
	})
	events := []Event{
		{Kind: EventEcho, Message: "first"},
		{Kind: EventEcho, Message: "second"},
	}
	order, err := fc.Order(events)
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 0 {
		t.Fatalf("order = %v; want [1 0] after the repeated-index line is rejected", order)
	}
	if !strings.Contains(out.String(), "invalid input") {
		t.Fatalf("output %q does not mention the re-prompt", out.String())
	}
}

func TestOrderShufflesBelowEverythingMode(t *testing.T) {
	fc := NewFailureController(FailureControllerConfig{Mode: ModeCrash, Seed: 1})
	events := make([]Event, 5)
	order, err := fc.Order(events)
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	seen := make(map[int]bool, len(order))
	for _, idx := range order {
		seen[idx] = true
	}
	if len(seen) != len(events) {
		t.Fatalf("order = %v is not a permutation of 0..%d", order, len(events)-1)
	}
}
