// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"

	"github.com/rbmk-project/nodesim/examples/dnsnode"
	"github.com/rbmk-project/nodesim/examples/echonode"
	"github.com/rbmk-project/nodesim/sim"
)

// programs maps the --program flag's accepted spellings to the
// [sim.Factory] that builds that node program's instances.
var programs = map[string]sim.Factory{
	"echo": echonode.Factory,
	"dns":  dnsnode.Factory,
}

func resolveFactory(name string) (sim.Factory, error) {
	factory, ok := programs[name]
	if !ok {
		return nil, fmt.Errorf("nodesimctl: unknown program %q (want one of: echo, dns)", name)
	}
	return factory, nil
}
