// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rbmk-project/common/runtimex"
	"github.com/rbmk-project/nodesim/sim"
	"github.com/rbmk-project/nodesim/sim/command"
)

var cmdRun = &cobra.Command{
	Use:   "run",
	Short: "Run a node program to completion or until Exit",
	Run:   runMain,
}

var flagRun struct {
	Config   string
	Program  string
	Mode     sim.Mode
	Drop     float64
	Delay    float64
	Failure  float64
	Recovery float64
	Seed     int64
	Script   string
	Verbose  bool
}

func init() {
	flags := cmdRun.Flags()
	flags.StringVarP(&flagRun.Config, "config", "c", "", "YAML configuration file")
	flags.StringVarP(&flagRun.Program, "program", "p", "echo", "node program to run (echo, dns)")
	flags.VarP(&modeValue{mode: &flagRun.Mode}, "mode", "m", "failure-injection mode (NOTHING, DROP, DELAY, CRASH, EVERYTHING)")
	flags.Float64Var(&flagRun.Drop, "drop-rate", 0, "packet drop rate in [0, 1]")
	flags.Float64Var(&flagRun.Delay, "delay-rate", 0, "packet delay rate in [0, 1]")
	flags.Float64Var(&flagRun.Failure, "failure-rate", 0, "node crash rate in [0, 1]")
	flags.Float64Var(&flagRun.Recovery, "recovery-rate", 0, "crashed node recovery rate in [0, 1]")
	flags.Int64Var(&flagRun.Seed, "seed", 0, "deterministic RNG seed")
	flags.StringVarP(&flagRun.Script, "script", "s", "", "command script file; omit for interactive mode")
	flags.BoolVarP(&flagRun.Verbose, "verbose", "v", false, "emit debug-level diagnostics")
}

func runMain(cmd *cobra.Command, args []string) {
	fc, err := loadConfig(flagRun.Config)
	check(err)
	mode, err := mergeFlags(cmd.Flags(), &fc)
	check(err)

	factory, err := resolveFactory(fc.Program)
	check(err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	source, err := buildSource(fc.Script)
	check(err)

	sc := sim.Config{
		Mode:         mode,
		DropRate:     fc.DropRate,
		DelayRate:    fc.DelayRate,
		FailureRate:  fc.FailureRate,
		RecoveryRate: fc.RecoveryRate,
		Seed:         fc.Seed,
		PromptIn:     os.Stdin,
		PromptOut:    os.Stdout,
		EchoOut:      os.Stdout,
		Logger:       logger,
	}
	runtimex.Assert(factory != nil, "resolveFactory returned a nil factory")

	s := sim.New(sc, factory, source)
	code, runErr := s.Run()
	if err := s.Close(); err != nil {
		logger.Warn("close", "err", err)
	}
	if runErr != nil {
		fatalf("%v", runErr)
	}
	os.Exit(code)
}

// mergeFlags overlays command-line flags explicitly set by the user
// onto fc, giving flags precedence over the loaded configuration file,
// and resolves the final failure-injection mode.
func mergeFlags(flags *pflag.FlagSet, fc *fileConfig) (sim.Mode, error) {
	if flags.Changed("program") || fc.Program == "" {
		fc.Program = flagRun.Program
	}
	if flags.Changed("drop-rate") {
		fc.DropRate = flagRun.Drop
	}
	if flags.Changed("delay-rate") {
		fc.DelayRate = flagRun.Delay
	}
	if flags.Changed("failure-rate") {
		fc.FailureRate = flagRun.Failure
	}
	if flags.Changed("recovery-rate") {
		fc.RecoveryRate = flagRun.Recovery
	}
	if flags.Changed("seed") {
		fc.Seed = flagRun.Seed
	}
	if flags.Changed("script") || fc.Script == "" {
		fc.Script = flagRun.Script
	}
	if flags.Changed("mode") {
		return flagRun.Mode, nil
	}
	return resolveMode(fc.Mode)
}

func logLevel() slog.Level {
	if flagRun.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// buildSource returns an interactive [sim.CommandSource] reading from
// stdin when path is empty, or a script source reading path otherwise.
// [*sim.Simulator.Close] closes whichever source it is given.
func buildSource(path string) (sim.CommandSource, error) {
	if path == "" {
		return command.NewInteractiveSource(os.Stdin, os.Stdout), nil
	}
	return command.NewScriptSource(path)
}
