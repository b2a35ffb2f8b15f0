package mount

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMtab(t *testing.T, contents string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "mtab")

	if err := os.WriteFile(path, []byte(contents), 0o0644); err != nil {
		t.Fatalf("writing fake mtab: %v", err)
	}

	orig := EtcMtab
	EtcMtab = path

	t.Cleanup(func() { EtcMtab = orig })
}

func TestRegistryContainsMatchesTargetAndFSType(t *testing.T) {
	writeMtab(t, `overlay /home/user/env/merge overlay rw,relatime 0 0
tmpfs /home/user/env tmpfs rw,relatime 0 0
`)

	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if !reg.Contains(Point{Target: "/home/user/env/merge", FSType: FSOverlay}) {
		t.Fatalf("expected overlay mount to be present")
	}

	if reg.Contains(Point{Target: "/home/user/env/merge", FSType: FSTmpfs}) {
		t.Fatalf("fstype mismatch should not match")
	}

	if reg.Contains(Point{Target: "/home/user/env/merge"}) {
		t.Fatalf("empty fstype query should only match mounts recorded with no fstype")
	}
}

func TestRegistryContainsMissing(t *testing.T) {
	writeMtab(t, `tmpfs /tmp tmpfs rw 0 0
`)

	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if reg.Contains(Point{Target: "/nonexistent", FSType: FSOverlay}) {
		t.Fatalf("did not expect a match")
	}
}

func TestUnescapeMtab(t *testing.T) {
	cases := map[string]string{
		`/mnt/my\040dir`: "/mnt/my dir",
		`/plain/path`:    "/plain/path",
	}

	for in, want := range cases {
		if got := unescapeMtab(in); got != want {
			t.Errorf("unescapeMtab(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewRegistryMissingFile(t *testing.T) {
	orig := EtcMtab
	EtcMtab = filepath.Join(t.TempDir(), "does-not-exist")

	t.Cleanup(func() { EtcMtab = orig })

	if _, err := NewRegistry(); err == nil {
		t.Fatalf("expected an error reading a missing mtab")
	}
}
