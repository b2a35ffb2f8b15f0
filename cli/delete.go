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
	"log/slog"
	"os"

	"github.com/DataDrake/cli-ng/v2/cmd"
)

func init() {
	cmd.Register(&Delete)
}

// Delete tears down an environment and removes its directories.
var Delete = cmd.Sub{
	Name:  "delete",
	Short: "Tear down the container and remove its overlay directories",
	Run:   DeleteRun,
}

// DeleteRun carries out the "delete" sub-command.
func DeleteRun(r *cmd.Root, _ *cmd.Sub) {
	d, _ := beginSession(r)

	if err := d.Destroy(); err != nil {
		slog.Error("Could not delete the environment", "err", err)
		os.Exit(1)
	}

	slog.Info("Environment deleted", "path", d.Location())
}
