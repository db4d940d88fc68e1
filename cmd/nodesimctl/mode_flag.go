// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"github.com/spf13/pflag"

	"github.com/rbmk-project/nodesim/sim"
)

// modeValue adapts [sim.Mode] to [pflag.Value] so an invalid --mode is
// rejected at flag-parsing time, with the failure-injection mode's own
// name shown in --help and any error message instead of an int.
type modeValue struct {
	mode *sim.Mode
}

var _ pflag.Value = (*modeValue)(nil)

func (v *modeValue) String() string {
	if v.mode == nil {
		return sim.ModeNothing.String()
	}
	return v.mode.String()
}

func (v *modeValue) Set(s string) error {
	m, err := sim.ParseMode(s)
	if err != nil {
		return err
	}
	*v.mode = m
	return nil
}

func (v *modeValue) Type() string { return "mode" }
