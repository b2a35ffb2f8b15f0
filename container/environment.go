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
	"io"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"

	"github.com/devenv-sh/devenv/devenverr"
)

// saneEnvironment generates a clean environment for the container process.
// PID 1 and everything it execs inherit this block (plus DEVENV_VERBOSE
// when the driver logs at debug level, see Container.Create), so any
// variable a task needs resolved (notably the configured shell variable)
// must appear here, either in the defaults or via extra.
func saneEnvironment(extra ...string) []string {
	environment := []string{
		"PATH=/usr/bin:/usr/sbin:/bin:/sbin",
		"LANG=en_US.UTF-8",
		"LC_ALL=en_US.UTF-8",
	}

	permitted := []string{
		"HOME",
		"USER",
		"SHELL",
		"TERM",
		"http_proxy",
		"https_proxy",
		"no_proxy",
		"ftp_proxy",
	}
	permitted = append(permitted, extra...)

	seen := make(map[string]bool)

	for _, p := range permitted {
		if seen[p] {
			continue
		}

		seen[p] = true

		env := os.Getenv(p)
		if env == "" {
			continue
		}

		environment = append(environment, fmt.Sprintf("%s=%s", p, env))
	}

	return environment
}

// installBinary copies the running devenv executable to usr/bin/devenv
// under the chroot root, so the binary stays reachable after chroot.
func installBinary(root string) error {
	exe, err := os.Executable()
	if err != nil {
		return devenverr.IO("could not determine current executable", err)
	}

	src, err := os.Open(exe)
	if err != nil {
		return devenverr.IO("could not open current executable", err)
	}
	defer src.Close()

	st, err := src.Stat()
	if err != nil {
		return devenverr.IO("could not stat current executable", err)
	}

	destDir := filepath.Join(root, "usr", "bin")
	if err := os.MkdirAll(destDir, 0o0755); err != nil {
		return devenverr.IO("could not create "+destDir, err)
	}

	dest := filepath.Join(destDir, "devenv")

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o0755)
	if err != nil {
		return devenverr.IO("could not create "+dest, err)
	}
	defer out.Close()

	bar := pb.New64(st.Size()).Set(pb.Bytes, true)
	reader := bar.NewProxyReader(src)
	bar.Start()

	defer bar.Finish()

	if _, err := io.Copy(out, reader); err != nil {
		return devenverr.IO("could not copy devenv binary into container", err)
	}

	return nil
}
