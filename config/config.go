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

// Package config decodes the devenv.toml configuration document and the
// dependency descriptors it carries.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/devenv-sh/devenv/devenverr"
)

// DefaultShellVar is used when a configuration omits "shell".
const DefaultShellVar = "SHELL"

// DefaultImagePath is used when a configuration omits "image".
const DefaultImagePath = "/"

// Image names the lower (read-only) filesystem the container's overlay is
// built on.
type Image struct {
	Path string `toml:"path"`
}

// Configuration is the read-only input to a devenv run: where the
// container lives, what it's built from, which shell to use, and what
// dependencies it needs.
type Configuration struct {
	Dest         string       `toml:"dest"`
	Shell        string       `toml:"shell"`
	Image        Image        `toml:"image"`
	Dependencies []Dependency `toml:"dependencies"`
}

// ShellVar returns the configured environment-variable name whose value
// names the shell binary, defaulting to SHELL.
func (c *Configuration) ShellVar() string {
	if c.Shell == "" {
		return DefaultShellVar
	}

	return c.Shell
}

// ImagePath returns the configured backing image path, defaulting to "/".
func (c *Configuration) ImagePath() string {
	if c.Image.Path == "" {
		return DefaultImagePath
	}

	return c.Image.Path
}

// Load reads and decodes the TOML configuration document at path.
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, devenverr.IO(fmt.Sprintf("could not read configuration file %s", path), err)
	}

	var cfg Configuration
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, devenverr.Wrap(devenverr.KindCustom, fmt.Sprintf("could not parse configuration file %s", path), err)
	}

	for i, dep := range cfg.Dependencies {
		if !dep.Valid() {
			return nil, devenverr.Custom(fmt.Sprintf("dependency %d needs a purl or a provider and package", i+1))
		}
	}

	return &cfg, nil
}
