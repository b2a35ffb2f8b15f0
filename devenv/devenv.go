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

// Package devenv is the driver façade: it translates a configuration into
// filesystem-composer and container-engine calls and exposes the verbs the
// CLI works with.
package devenv

import (
	"os"
	"path/filepath"

	"github.com/devenv-sh/devenv/channel"
	"github.com/devenv-sh/devenv/config"
	"github.com/devenv-sh/devenv/container"
	"github.com/devenv-sh/devenv/devenverr"
	"github.com/devenv-sh/devenv/overlay"
)

// DefaultTarget is the directory created under the current working
// directory when the configuration names no destination.
const DefaultTarget = ".devenv"

// DevEnv owns one development environment: its configuration, its overlay
// composer and the container built on top, for the whole lifetime of a CLI
// invocation.
type DevEnv struct {
	cfg       *config.Configuration
	container *container.Container
	location  string
}

// New builds a DevEnv from a configuration, resolving the destination to
// an absolute path so the container process sees the same location after
// the driver has moved on.
func New(cfg *config.Configuration) (*DevEnv, error) {
	target := cfg.Dest
	if target == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, devenverr.IO("could not determine working directory", err)
		}

		target = filepath.Join(cwd, DefaultTarget)
	}

	target, err := filepath.Abs(target)
	if err != nil {
		return nil, devenverr.IO("could not resolve destination path", err)
	}

	image, err := filepath.Abs(cfg.ImagePath())
	if err != nil {
		return nil, devenverr.IO("could not resolve image path", err)
	}

	fs := overlay.New(image, target)

	cont, err := container.New(fs)
	if err != nil {
		return nil, err
	}

	// PID 1 resolves the shell variable from its own environment, so the
	// configured name has to survive the environment scrub.
	cont.ExtraEnv = []string{cfg.ShellVar()}

	return &DevEnv{cfg: cfg, container: cont, location: target}, nil
}

// Location is the absolute path the environment lives at.
func (d *DevEnv) Location() string {
	return d.location
}

// Create brings the environment up: overlay mounted, container process
// running as PID 1 and waiting for tasks.
func (d *DevEnv) Create() error {
	return d.container.Create()
}

// Destroy tears the environment down and removes its directories.
func (d *DevEnv) Destroy() error {
	return d.container.Destroy()
}

// Boot asks the container to exec an init system in place of PID 1.
func (d *DevEnv) Boot() error {
	return d.container.Boot()
}

// Run executes command inside the container. args is the full argv,
// including the command itself.
func (d *DevEnv) Run(command string, args []string) error {
	return d.container.RunInContainer(channel.Command{
		Name:   command,
		Params: args,
	})
}

// OpenShell replaces PID 1 with the user's shell: the configured shell
// variable's value, resolved inside the container.
func (d *DevEnv) OpenShell() error {
	return d.container.RunInContainer(channel.Command{
		Name:     d.cfg.ShellVar(),
		ReusePID: true,
	})
}

// ResolveDependencies forwards the configuration's dependency list to the
// container as a single task.
func (d *DevEnv) ResolveDependencies() error {
	return d.container.RunInContainer(channel.ResolveDependencies{
		Dependencies: d.cfg.Dependencies,
	})
}

// Shutdown asks the dispatch loop to exit, letting WaitForContainer
// return. Pointless (and failing) after a ReusePID command took PID 1
// over; callers only use it on the plain-command path.
func (d *DevEnv) Shutdown() error {
	return d.container.RunInContainer(channel.Exit{})
}

// WaitForContainer reaps the container process and reports its exit
// status.
func (d *DevEnv) WaitForContainer() (int, error) {
	return d.container.WaitForContainer()
}
