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

package cli

import (
	"github.com/DataDrake/cli-ng/v2/cmd"

	"github.com/devenv-sh/devenv/cli/log"
)

func init() {
	cmd.Register(&Run)
}

// Run executes a command inside the container.
var Run = cmd.Sub{
	Name:  "run",
	Short: "Run a command inside the container",
	Args:  &RunArgs{},
	Run:   RunRun,
}

// RunArgs are arguments for the "run" sub-command.
type RunArgs struct {
	Command []string `zero:"yes" desc:"Command and arguments to run inside the container"`
}

// RunRun carries out the "run" sub-command.
func RunRun(r *cmd.Root, s *cmd.Sub) {
	sArgs := s.Args.(*RunArgs) //nolint:forcetypeassert // guaranteed by callee.

	if len(sArgs.Command) == 0 {
		log.Fatal("No command provided")
	}

	d, rFlags := beginSession(r)

	bringUp(d, rFlags)

	if err := d.Run(sArgs.Command[0], sArgs.Command); err != nil {
		log.Fatal("Could not run the command", "err", err)
	}

	// The command runs as a child of PID 1; end the dispatch loop so the
	// container exits once it is done. After --boot an init owns PID 1
	// and there is no loop left to stop.
	if !rFlags.Boot {
		if err := d.Shutdown(); err != nil {
			log.Fatal("Could not stop the container", "err", err)
		}
	}

	finish(d)
}
