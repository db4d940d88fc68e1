// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rbmk-project/nodesim/sim"
)

// fileConfig is the YAML shape accepted by the --config flag. Every
// field also has a command-line flag counterpart; flags explicitly set
// on the command line override the loaded file (see mergeFlags).
type fileConfig struct {
	Program      string  `yaml:"program"`
	Mode         string  `yaml:"mode"`
	DropRate     float64 `yaml:"drop_rate"`
	DelayRate    float64 `yaml:"delay_rate"`
	FailureRate  float64 `yaml:"failure_rate"`
	RecoveryRate float64 `yaml:"recovery_rate"`
	Seed         int64   `yaml:"seed"`
	Script       string  `yaml:"script"`
}

// loadConfig reads and parses a YAML configuration file. An empty
// path is not an error: the zero [fileConfig] lets flags alone drive
// the run. A path naming a file that cannot be read is an error.
func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("nodesimctl: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("nodesimctl: parse config: %w", err)
	}
	return cfg, nil
}

// resolveMode parses s, falling back to [sim.ModeNothing] when empty.
func resolveMode(s string) (sim.Mode, error) {
	if s == "" {
		return sim.ModeNothing, nil
	}
	return sim.ParseMode(s)
}
