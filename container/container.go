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

// Package container implements the container lifecycle engine: it clones
// the current executable into fresh namespaces where it runs as PID 1,
// chroots it into the composed overlay root, and drives it with typed
// tasks over the control channel.
package container

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/devenv-sh/devenv/channel"
	"github.com/devenv-sh/devenv/devenverr"
	"github.com/devenv-sh/devenv/mount"
	"github.com/devenv-sh/devenv/overlay"
)

// initTargets are the init binaries Boot probes, in order. The first one
// PID 1 manages to exec takes the container over.
var initTargets = []string{
	"/usr/lib/systemd/systemd",
	"/lib/systemd/systemd",
	"/sbin/init",
}

// cloneFlags are the namespaces the container process is started in: one
// clone(2) call covers both the namespace unshare and the fork. A user
// namespace is deliberately not requested.
const cloneFlags = unix.CLONE_NEWNS |
	unix.CLONE_NEWPID |
	unix.CLONE_NEWUTS |
	unix.CLONE_NEWNET |
	unix.CLONE_NEWCGROUP |
	unix.CLONE_NEWIPC

// Container pairs a composed filesystem with the process that will live
// inside it. The driver side owns the composer and the host endpoint of
// the control channel; after Create the container process owns the peer
// endpoint and a read-only view of the composer's paths.
type Container struct {
	fs  *overlay.Composer
	ipc *channel.Endpoint

	// ExtraEnv names additional environment variables to pass through to
	// the container process on top of the sanitized defaults. The shell
	// variable the configuration names must travel this way, since PID 1
	// resolves it from its own environment.
	ExtraEnv []string

	containerEnd *channel.Endpoint
	cmd          *exec.Cmd
}

// New wires a Container around fs, creating the control channel pair.
func New(fs *overlay.Composer) (*Container, error) {
	host, peer, err := channel.New()
	if err != nil {
		return nil, err
	}

	return &Container{fs: fs, ipc: host, containerEnd: peer}, nil
}

// Create mounts the overlay, seeds the devenv binary into it, and starts
// the container process as PID 1 of a fresh namespace set. A failure
// leaves the system recoverable: the caller may still invoke Destroy to
// clean up partial mounts.
func (c *Container) Create() error {
	if c.cmd != nil {
		return devenverr.Custom("container has already been created")
	}

	if err := c.fs.Mount(); err != nil {
		slog.Error("Failed mounting the container's filesystem")

		return err
	}

	if err := installBinary(c.fs.RootPath()); err != nil {
		slog.Error("Failed to copy devenv binary into the container")

		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return devenverr.IO("could not determine current executable", err)
	}

	cmd := exec.Command(exe, reentryToken, c.fs.ImagePath, c.fs.TargetPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = saneEnvironment(c.ExtraEnv...)

	// Debug logging follows the driver into the container.
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		cmd.Env = append(cmd.Env, verboseEnvVar+"=1")
	}
	cmd.ExtraFiles = []*os.File{c.containerEnd.File()}
	cmd.SysProcAttr = &syscall.SysProcAttr{Cloneflags: cloneFlags}

	if err := cmd.Start(); err != nil {
		return devenverr.OS("could not start container process", err)
	}

	// The descriptor now lives in the child; the driver only keeps the
	// host endpoint.
	c.containerEnd.Close()

	c.cmd = cmd

	slog.Debug("Container process started", "pid", cmd.Process.Pid)

	return nil
}

// RunInContainer pushes a task to PID 1's dispatch loop.
func (c *Container) RunInContainer(task channel.Task) error {
	slog.Debug("Sending task", "task", task)

	return c.ipc.Send(task)
}

// Boot probes the known init targets in order; the first one the container
// can exec replaces PID 1 with a proper init.
func (c *Container) Boot() error {
	for _, target := range initTargets {
		task := channel.Command{Name: target, Params: []string{target}, ReusePID: true}
		if err := c.RunInContainer(task); err != nil {
			return err
		}
	}

	return nil
}

// WaitForContainer blocks until the container process exits and returns
// its exit status.
func (c *Container) WaitForContainer() (int, error) {
	if c.cmd == nil {
		return 0, devenverr.Custom("container was never created")
	}

	err := c.cmd.Wait()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		slog.Debug("Container process exited", "status", exitErr.ExitCode())

		return exitErr.ExitCode(), nil
	}

	if err != nil {
		return 0, devenverr.OS("could not wait for container process", err)
	}

	return 0, nil
}

// Destroy unmounts and removes the overlay layout. The unmount is skipped
// when the mount registry already shows the overlay gone, so destroying a
// never-created environment still removes any leftover directories.
func (c *Container) Destroy() error {
	reg, err := mount.NewRegistry()
	if err != nil {
		return err
	}

	if reg.Contains(mount.Point{Target: c.fs.RootPath(), FSType: mount.FSOverlay}) {
		if err := c.fs.Unmount(); err != nil {
			return err
		}
	}

	return c.fs.Delete()
}
