// SPDX-License-Identifier: GPL-3.0-or-later

// Command nodesimctl runs a node program inside the discrete-event
// simulator driven either by a recorded command script or by an
// interactive prompt, honoring the configured failure-injection mode.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cmdRoot = &cobra.Command{
	Use:   "nodesimctl",
	Short: "Run node programs inside the discrete-event network simulator",
	Run:   printUsageAndExit1,
}

func init() {
	cmdRoot.AddCommand(cmdRun)
}

func main() {
	cmdRoot.Execute()
}

func printUsageAndExit1(cmd *cobra.Command, args []string) {
	_ = cmd.Usage()
	os.Exit(1)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "nodesimctl: "+format+"\n", args...)
	os.Exit(1)
}

func check(err error) {
	if err != nil {
		fatalf("%v", err)
	}
}
