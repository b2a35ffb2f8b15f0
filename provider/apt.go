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

package provider

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/getsolus/libosdev/commands"

	"github.com/devenv-sh/devenv/config"
	"github.com/devenv-sh/devenv/devenverr"
)

// aptMu serializes access to APT's shared package cache. The cache is
// process-global state; simultaneous containers must not race on it.
var aptMu sync.Mutex

func init() {
	Register(&APTProvider{})
}

// APTProvider resolves dependencies against the system APT package cache
// by shelling out to apt-cache and apt-get.
type APTProvider struct{}

// Name implements Provider.
func (a *APTProvider) Name() string {
	return "apt"
}

// Search queries the package cache for every published version of the
// dependency's package.
func (a *APTProvider) Search(dep config.Dependency) ([]config.Dependency, error) {
	pkg, err := dep.PackageName()
	if err != nil {
		return nil, err
	}

	aptMu.Lock()
	defer aptMu.Unlock()

	out, err := exec.Command("apt-cache", "madison", pkg).Output()
	if err != nil {
		return nil, devenverr.Wrap(devenverr.KindCustom, "apt-cache madison failed for "+pkg, err)
	}

	candidates := parseMadison(string(out))
	if len(candidates) == 0 {
		return nil, ErrNoMatch
	}

	return candidates, nil
}

// Info returns the cache's metadata record for the dependency's package.
func (a *APTProvider) Info(dep config.Dependency) (*Info, error) {
	pkg, err := dep.PackageName()
	if err != nil {
		return nil, err
	}

	aptMu.Lock()
	defer aptMu.Unlock()

	out, err := exec.Command("apt-cache", "show", pkg).Output()
	if err != nil {
		return nil, devenverr.Wrap(devenverr.KindCustom, "apt-cache show failed for "+pkg, err)
	}

	info := parseShow(string(out))
	if info == nil {
		return nil, ErrNoMatch
	}

	return info, nil
}

// Install runs apt-get install for the dependency, pinned to the requested
// version when one is given.
func (a *APTProvider) Install(dep config.Dependency) error {
	pkg, err := dep.PackageName()
	if err != nil {
		return err
	}

	version, err := dep.PackageVersion()
	if err != nil {
		return err
	}

	spec := pkg
	if version != "" {
		spec = fmt.Sprintf("%s=%s", pkg, version)
	}

	aptMu.Lock()
	defer aptMu.Unlock()

	if err := commands.ExecStdoutArgs("apt-get", []string{"install", "-y", spec}); err != nil {
		return devenverr.Wrap(devenverr.KindCustom, "apt-get install failed for "+spec, err)
	}

	return nil
}

// parseMadison turns "apt-cache madison" output, one "pkg | version | src"
// line per published version, into candidate dependencies.
func parseMadison(out string) []config.Dependency {
	var deps []config.Dependency

	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, "|")
		if len(fields) < 2 {
			continue
		}

		name := strings.TrimSpace(fields[0])
		version := strings.TrimSpace(fields[1])

		if name == "" || version == "" {
			continue
		}

		deps = append(deps, config.NewDependency("apt", name, version))
	}

	return deps
}

// parseShow extracts the first record's Package/Version/Description fields
// from "apt-cache show" output.
func parseShow(out string) *Info {
	info := &Info{}

	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "Package:"):
			if info.Name != "" {
				// Start of the next record.
				return info
			}

			info.Name = strings.TrimSpace(strings.TrimPrefix(line, "Package:"))
		case strings.HasPrefix(line, "Version:") && info.Version == "":
			info.Version = strings.TrimSpace(strings.TrimPrefix(line, "Version:"))
		case strings.HasPrefix(line, "Description:") && info.Description == "":
			info.Description = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
		}
	}

	if info.Name == "" {
		return nil
	}

	return info
}
