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

// Package provider holds the dependency-provider interface and the
// process-global registry of installed providers. Providers resolve and
// install packages of one ecosystem (apt, ...); the container's dispatch
// loop looks them up by the name each dependency descriptor carries.
package provider

import (
	"log/slog"
	"sync"

	"github.com/devenv-sh/devenv/config"
	"github.com/devenv-sh/devenv/devenverr"
)

// Info carries package metadata returned by a provider lookup.
type Info struct {
	Name        string
	Description string
	Version     string
}

// Provider resolves and installs packages of a specific ecosystem.
type Provider interface {
	// Name of the provider, matched against Dependency.ProviderName.
	Name() string

	// Search returns the candidate matches (e.g. available versions) for a
	// dependency. Finding nothing is an expected error: ErrNoMatch.
	Search(dep config.Dependency) ([]config.Dependency, error)

	// Info returns package metadata for a dependency.
	Info(dep config.Dependency) (*Info, error)

	// Install installs a dependency, or fails if it does not exist.
	Install(dep config.Dependency) error
}

// ErrNoMatch is returned by Search when no package matches the dependency.
var ErrNoMatch = devenverr.Custom("no matching package")

var (
	registryMu sync.Mutex
	registry   = make(map[string]Provider)
)

// Register adds p to the global registry, replacing any provider already
// registered under the same name.
func Register(p Provider) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry[p.Name()] = p
}

// Get returns the provider registered under name.
func Get(name string) (Provider, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	p, ok := registry[name]
	if !ok {
		return nil, devenverr.Custom("no provider registered for " + name)
	}

	return p, nil
}

// Resolve best-effort installs every dependency in deps through its
// provider. Individual failures are logged and skipped; they are not fatal
// to the caller's loop.
func Resolve(deps []config.Dependency) {
	for _, dep := range deps {
		if err := resolveOne(dep); err != nil {
			slog.Error("Could not resolve dependency", "dependency", dep, "err", err)
		}
	}
}

func resolveOne(dep config.Dependency) error {
	name, err := dep.ProviderName()
	if err != nil {
		return err
	}

	prov, err := Get(name)
	if err != nil {
		return err
	}

	candidates, err := prov.Search(dep)
	if err != nil {
		return err
	}

	slog.Debug("Resolved dependency", "provider", name, "candidates", len(candidates))

	return prov.Install(dep)
}
