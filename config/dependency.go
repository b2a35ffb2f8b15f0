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

package config

import (
	"github.com/package-url/packageurl-go"

	"github.com/devenv-sh/devenv/devenverr"
)

// Dependency is either a complete Package URL, or an explicit
// (provider, package, version) triple, or some mix of the two: explicit
// fields always win over anything the URL would parse to, field by field.
type Dependency struct {
	PURL     string `toml:"purl"`
	Provider string `toml:"provider"`
	Package  string `toml:"package"`
	Version  string `toml:"version"`
}

// NewDependency builds a Dependency from an explicit triple, bypassing PURL
// parsing entirely. Used by providers to report resolved candidates
// (e.g. APTProvider.Search).
func NewDependency(provider, pkg, version string) Dependency {
	return Dependency{Provider: provider, Package: pkg, Version: version}
}

func (d Dependency) parsedPURL() (packageurl.PackageURL, error) {
	if d.PURL == "" {
		return packageurl.PackageURL{}, devenverr.Custom("dependency has no Package URL to parse")
	}

	pu, err := packageurl.FromString(d.PURL)
	if err != nil {
		return packageurl.PackageURL{}, devenverr.Wrap(devenverr.KindCustom, "could not parse Package URL", err)
	}

	return pu, nil
}

// ProviderName returns the explicit provider if set, otherwise the type
// segment of the Package URL. Fails only when neither is available.
func (d Dependency) ProviderName() (string, error) {
	if d.Provider != "" {
		return d.Provider, nil
	}

	pu, err := d.parsedPURL()
	if err != nil {
		return "", err
	}

	return pu.Type, nil
}

// PackageName returns the explicit package name if set, otherwise the name
// segment of the Package URL. Fails only when neither is available.
func (d Dependency) PackageName() (string, error) {
	if d.Package != "" {
		return d.Package, nil
	}

	pu, err := d.parsedPURL()
	if err != nil {
		return "", err
	}

	return pu.Name, nil
}

// PackageVersion returns the explicit version if set, otherwise the version
// segment of the Package URL. Unlike ProviderName/PackageName, a missing
// version is not an error: a dependency with neither an explicit version
// nor a URL-encoded one resolves to "", meaning whatever the provider
// considers latest.
func (d Dependency) PackageVersion() (string, error) {
	if d.Version != "" {
		return d.Version, nil
	}

	if d.PURL == "" {
		return "", nil
	}

	pu, err := d.parsedPURL()
	if err != nil {
		return "", err
	}

	return pu.Version, nil
}

// Valid reports whether d carries enough information to resolve a provider
// and package name: either a PURL, or an explicit provider+package pair.
func (d Dependency) Valid() bool {
	if d.PURL != "" {
		return true
	}

	return d.Provider != "" && d.Package != ""
}
