//
// Copyright © 2024-2026 The devenv Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package cli registers the devenv sub-commands and the glue between
// global flags and the driver façade.
package cli

import (
	"log/slog"
	"os"

	"github.com/DataDrake/cli-ng/v2/cmd"

	"github.com/devenv-sh/devenv/cli/log"
	"github.com/devenv-sh/devenv/config"
	"github.com/devenv-sh/devenv/devenv"
)

// DefaultConfigFile is consulted when -f/--file is not given.
const DefaultConfigFile = "./devenv.toml"

func init() {
	cmd.Register(&cmd.GenManPages)
	cmd.Register(&cmd.Help)
}

// Root is the root command for devenv.
var Root = cmd.Root{
	Name:  "devenv",
	Short: "devenv builds lightweight per-project development containers",
	Flags: &GlobalFlags{},
}

// GlobalFlags are available to all sub-commands.
type GlobalFlags struct {
	File    string `short:"f" long:"file"     desc:"Path to the devenv configuration file"`
	Verbose bool   `short:"v" long:"verbose"  desc:"Enable debug messages"`
	NoColor bool   `short:"n" long:"no-color" desc:"Disable color output"`
	Boot    bool   `short:"b" long:"boot"     desc:"Boot an init system inside the container before running tasks"`
}

// beginSession applies the global flags, loads the configuration and
// builds the environment every sub-command operates on. Unrecoverable
// problems exit the process.
func beginSession(r *cmd.Root) (*devenv.DevEnv, *GlobalFlags) {
	rFlags := r.Flags.(*GlobalFlags) //nolint:forcetypeassert // guaranteed by callee.

	log.Configure(rFlags.Verbose, rFlags.NoColor)

	if os.Geteuid() != 0 {
		log.Fatal("You must be root to manage devenv containers")
	}

	path := rFlags.File
	if path == "" {
		path = DefaultConfigFile
	}

	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("Could not load configuration", "path", path, "err", err)
		os.Exit(1)
	}

	d, err := devenv.New(cfg)
	if err != nil {
		slog.Error("Could not set up the environment", "err", err)
		os.Exit(1)
	}

	slog.Info("devenv location", "path", d.Location())

	return d, rFlags
}

// bringUp creates the container and pushes the standing tasks every
// interactive verb needs: dependency resolution and, when requested, the
// init boot.
func bringUp(d *devenv.DevEnv, rFlags *GlobalFlags) {
	if err := d.Create(); err != nil {
		slog.Error("Could not create the container", "err", err)
		os.Exit(1)
	}

	if err := d.ResolveDependencies(); err != nil {
		slog.Error("Could not resolve dependencies", "err", err)
		os.Exit(1)
	}

	if rFlags.Boot {
		if err := d.Boot(); err != nil {
			slog.Error("Could not boot the container", "err", err)
			os.Exit(1)
		}
	}
}

// finish reaps the container and propagates its exit status.
func finish(d *devenv.DevEnv) {
	status, err := d.WaitForContainer()
	if err != nil {
		slog.Error("Could not wait for the container", "err", err)
		os.Exit(1)
	}

	slog.Debug("Container exited", "status", status)

	if status != 0 {
		os.Exit(status)
	}
}
