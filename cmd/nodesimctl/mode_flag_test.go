// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"testing"

	"github.com/rbmk-project/nodesim/sim"
)

func TestModeValueSetAndString(t *testing.T) {
	var m sim.Mode
	v := &modeValue{mode: &m}

	if got := v.String(); got != "NOTHING" {
		t.Fatalf("zero-value String() = %q; want NOTHING", got)
	}
	if err := v.Set("crash"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if m != sim.ModeCrash {
		t.Fatalf("mode = %v; want ModeCrash", m)
	}
	if got := v.String(); got != "CRASH" {
		t.Fatalf("String() after Set = %q; want CRASH", got)
	}
}

func TestModeValueSetRejectsUnknown(t *testing.T) {
	var m sim.Mode
	v := &modeValue{mode: &m}
	if err := v.Set("bogus"); err == nil {
		t.Fatalf("expected an error for an unknown mode")
	}
}

func TestResolveFactoryKnownPrograms(t *testing.T) {
	for _, name := range []string{"echo", "dns"} {
		if _, err := resolveFactory(name); err != nil {
			t.Fatalf("resolveFactory(%q): %v", name, err)
		}
	}
}

func TestResolveFactoryUnknownProgram(t *testing.T) {
	if _, err := resolveFactory("carrier-pigeon"); err == nil {
		t.Fatalf("expected an error for an unknown program")
	}
}
