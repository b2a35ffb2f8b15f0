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

package container

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/zeebo/blake3"
	"golang.org/x/sys/unix"

	"github.com/devenv-sh/devenv/channel"
	"github.com/devenv-sh/devenv/devenverr"
	"github.com/devenv-sh/devenv/overlay"
	"github.com/devenv-sh/devenv/provider"
)

// reentryToken is the internal first argument the driver passes when it
// re-invokes its own binary as the container process. Never user-facing.
const reentryToken = "__devenv-container-process"

// channelFD is where the container end of the control channel lands in the
// child: the first entry of ExtraFiles, after stdin/stdout/stderr.
const channelFD = 3

// verboseEnvVar tells the container process the driver runs with debug
// logging enabled.
const verboseEnvVar = "DEVENV_VERBOSE"

// Verbose reports whether the driver asked for debug logging in the
// container's environment.
func Verbose() bool {
	return os.Getenv(verboseEnvVar) != ""
}

// IsReentry reports whether this invocation is the container-process
// re-entry rather than a user-facing CLI run.
func IsReentry(args []string) bool {
	return len(args) == 4 && args[1] == reentryToken
}

// Reenter runs the container-process side of the engine. args must have
// passed IsReentry. It only returns once the dispatch loop ends; an error
// aborts this process only, never the driver.
func Reenter(args []string) error {
	fs := overlay.New(args[2], args[3])
	ipc := channel.FromFile(os.NewFile(channelFD, "devenv-channel"))

	c := &Container{fs: fs, ipc: ipc}

	return c.process()
}

// process is everything that happens between being cloned and leaving the
// dispatch loop: the PID-1 assertion, chroot, the inner mounts, and task
// dispatch.
func (c *Container) process() error {
	pid := os.Getpid()
	slog.Debug("Container process running", "pid", pid)

	// systemd and friends expect to be PID 1; if the clone didn't give us
	// a fresh PID namespace nothing downstream can be trusted.
	if pid != 1 {
		return devenverr.Custom("container is not running with PID 1")
	}

	c.setHostname()

	if err := unix.Chroot(c.fs.RootPath()); err != nil {
		return devenverr.OS("could not chroot to "+c.fs.RootPath(), err)
	}

	cwd := "/"
	if home, err := os.UserHomeDir(); err == nil {
		cwd = home
	}

	if err := os.Chdir(cwd); err != nil {
		slog.Warn("Could not set working directory", "dir", cwd)

		if err := os.Chdir("/"); err != nil {
			return devenverr.OS("could not set working directory", err)
		}
	}

	if err := c.fs.InnerMount(); err != nil {
		return err
	}

	c.runTasks()

	return nil
}

// setHostname gives the fresh UTS namespace a stable, per-environment
// name derived from the target path. Best effort.
func (c *Container) setHostname() {
	sum := blake3.Sum256([]byte(c.fs.TargetPath))
	name := fmt.Sprintf("devenv-%x", sum[:4])

	if err := unix.Sethostname([]byte(name)); err != nil {
		slog.Warn("Could not set container hostname", "hostname", name, "err", err)

		return
	}

	slog.Debug("Container hostname set", "hostname", name)
}

// runTasks is the dispatch loop: receive a task, handle it to completion,
// repeat. It ends on an Exit task or when the driver closes its endpoint.
func (c *Container) runTasks() {
	slog.Debug("Executing tasks")

	for {
		task, err := c.ipc.Receive()
		if err != nil {
			slog.Warn("Error while receiving new tasks", "err", err)

			return
		}

		if done := c.runTask(task); done {
			return
		}
	}
}

// runTask handles one task. Per-task failures are logged, not fatal to the
// loop; only Exit (or an exec takeover) ends dispatch.
func (c *Container) runTask(task channel.Task) bool {
	slog.Debug("Executing task", "task", task)

	switch t := task.(type) {
	case channel.Command:
		c.executeCommand(t)
	case channel.ResolveDependencies:
		provider.Resolve(t.Dependencies)
	case channel.Exit:
		return true
	default:
		slog.Warn("Unknown task received", "task", task)
	}

	return false
}

// executeCommand resolves the command name through the environment and
// runs it. ReusePID commands exec-replace PID 1 (init takeover, with PATH
// search); plain commands run as a reaped child of PID 1 so the dispatch
// loop stays alive.
func (c *Container) executeCommand(t channel.Command) {
	name := resolveCommandName(t.Name)
	argv := commandArgv(name, t.Params)

	slog.Debug("Executing command", "command", name, "argv", argv)

	if t.ReusePID {
		path, err := exec.LookPath(name)
		if err != nil {
			slog.Error("Could not find command", "command", name, "err", err)

			return
		}

		if err := unix.Exec(path, argv, os.Environ()); err != nil {
			slog.Error("Could not exec command", "command", path, "err", err)
		}

		return
	}

	cmd := &exec.Cmd{
		Path:   name,
		Args:   argv,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	if err := cmd.Run(); err != nil {
		slog.Error("Command failed", "command", name, "err", err)
	}
}

// resolveCommandName substitutes the value of an environment variable by
// the command's name, if one exists. This is how the shell task turns the
// configured variable name into an executable path.
func resolveCommandName(name string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}

	return name
}

// commandArgv normalizes a task's params into an argv, falling back to the
// resolved name when the driver sent none.
func commandArgv(name string, params []string) []string {
	if len(params) == 0 {
		return []string{name}
	}

	return params
}
