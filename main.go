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

package main

import (
	"log/slog"
	"os"

	"github.com/devenv-sh/devenv/cli"
	"github.com/devenv-sh/devenv/cli/log"
	"github.com/devenv-sh/devenv/container"
)

func main() {
	// The driver re-invokes this same binary as the container's PID 1;
	// that path never touches the CLI.
	if container.IsReentry(os.Args) {
		log.Configure(container.Verbose(), false)

		if err := container.Reenter(os.Args); err != nil {
			slog.Error("Container process failed", "err", err)
			os.Exit(1)
		}

		os.Exit(0)
	}

	log.Configure(false, false)

	cli.Root.Run()
}
