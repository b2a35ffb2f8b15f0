package config

import "testing"

func TestDependencyExplicitFieldsWin(t *testing.T) {
	d := Dependency{
		PURL:     "pkg:apt/other@9.9",
		Provider: "apt",
		Package:  "curl",
		Version:  "7.68",
	}

	if p, err := d.ProviderName(); err != nil || p != "apt" {
		t.Fatalf("ProviderName() = %q, %v; want apt, nil", p, err)
	}

	if p, err := d.PackageName(); err != nil || p != "curl" {
		t.Fatalf("PackageName() = %q, %v; want curl, nil", p, err)
	}

	if v, err := d.PackageVersion(); err != nil || v != "7.68" {
		t.Fatalf("PackageVersion() = %q, %v; want 7.68, nil", v, err)
	}
}

func TestDependencyFromPURL(t *testing.T) {
	d := Dependency{PURL: "pkg:apt/curl@7.68"}

	if p, err := d.ProviderName(); err != nil || p != "apt" {
		t.Fatalf("ProviderName() = %q, %v; want apt, nil", p, err)
	}

	if p, err := d.PackageName(); err != nil || p != "curl" {
		t.Fatalf("PackageName() = %q, %v; want curl, nil", p, err)
	}

	if v, err := d.PackageVersion(); err != nil || v != "7.68" {
		t.Fatalf("PackageVersion() = %q, %v; want 7.68, nil", v, err)
	}
}

func TestDependencyPURLWithoutVersion(t *testing.T) {
	d := Dependency{PURL: "pkg:apt/curl"}

	if v, err := d.PackageVersion(); err != nil || v != "" {
		t.Fatalf("PackageVersion() = %q, %v; want empty, nil", v, err)
	}
}

func TestDependencyNoVersionAnywhereIsEmptyNotError(t *testing.T) {
	d := Dependency{Provider: "apt", Package: "curl"}

	v, err := d.PackageVersion()
	if err != nil {
		t.Fatalf("PackageVersion() returned error: %v", err)
	}

	if v != "" {
		t.Fatalf("PackageVersion() = %q, want empty string", v)
	}
}

func TestDependencyNeitherExplicitNorPURLFails(t *testing.T) {
	d := Dependency{}

	if _, err := d.ProviderName(); err == nil {
		t.Fatalf("expected an error when no provider and no purl are set")
	}

	if _, err := d.PackageName(); err == nil {
		t.Fatalf("expected an error when no package and no purl are set")
	}
}

func TestDependencyValid(t *testing.T) {
	cases := []struct {
		dep  Dependency
		want bool
	}{
		{Dependency{PURL: "pkg:apt/curl@7.68"}, true},
		{Dependency{Provider: "apt", Package: "curl"}, true},
		{Dependency{Provider: "apt"}, false},
		{Dependency{}, false},
	}

	for _, c := range cases {
		if got := c.dep.Valid(); got != c.want {
			t.Errorf("Valid(%+v) = %v, want %v", c.dep, got, c.want)
		}
	}
}
