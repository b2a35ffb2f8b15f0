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
	cmd.Register(&Shell)
}

// Shell opens an interactive shell inside the container.
var Shell = cmd.Sub{
	Name:  "shell",
	Short: "Open an interactive shell inside the container",
	Run:   ShellRun,
}

// ShellRun carries out the "shell" sub-command.
func ShellRun(r *cmd.Root, _ *cmd.Sub) {
	d, rFlags := beginSession(r)

	bringUp(d, rFlags)

	if err := d.OpenShell(); err != nil {
		log.Fatal("Could not open a shell", "err", err)
	}

	finish(d)
}
