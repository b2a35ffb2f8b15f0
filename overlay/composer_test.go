package overlay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/devenv-sh/devenv/mount"
)

func TestImageIsAncestor(t *testing.T) {
	cases := []struct {
		image, target string
		want          bool
	}{
		{"/", "/home/user/project/.devenv", true},
		{"/home/user", "/home/user/project/.devenv", true},
		{"/home/user/project/.devenv", "/home/user/project/.devenv", true},
		{"/tmp/alpine", "/home/user/project/.devenv", false},
		{"/home/user/project/.devenv/merge", "/home/user/project/.devenv", false},
	}

	for _, c := range cases {
		comp := &Composer{ImagePath: c.image, TargetPath: c.target}
		if got := comp.imageIsAncestor(); got != c.want {
			t.Errorf("imageIsAncestor(%q, %q) = %v, want %v", c.image, c.target, got, c.want)
		}
	}
}

func TestLayoutPaths(t *testing.T) {
	comp := &Composer{ImagePath: "/", TargetPath: "/home/user/env"}

	if got := comp.RootPath(); got != filepath.Join("/home/user/env", "merge") {
		t.Errorf("RootPath() = %q", got)
	}

	if got := comp.upperPath(); got != filepath.Join("/home/user/env", "upper") {
		t.Errorf("upperPath() = %q", got)
	}

	if got := comp.workPath(); got != filepath.Join("/home/user/env", "workdir") {
		t.Errorf("workPath() = %q", got)
	}
}

func TestInnerTableShape(t *testing.T) {
	table := innerTable()

	if len(table) == 0 {
		t.Fatalf("inner table is empty")
	}

	// The private remount of / must come before everything else so no
	// mount leaks back into the host's namespace view.
	if table[0].Target != "/" {
		t.Fatalf("first entry targets %q, want /", table[0].Target)
	}

	wantOrder := []string{"/", "/proc", "/proc/sys", "/proc/sys/net", "/proc/sys", "/sys", "/sys", "/dev", "/dev/shm", "/run", "/tmp"}
	if len(table) != len(wantOrder) {
		t.Fatalf("inner table has %d entries, want %d", len(table), len(wantOrder))
	}

	for i, want := range wantOrder {
		if table[i].Target != want {
			t.Errorf("entry %d targets %q, want %q", i, table[i].Target, want)
		}

		if !table[i].Fatal {
			t.Errorf("entry %d (%s) should be fatal", i, want)
		}
	}
}

func TestInnerTableNetNSHint(t *testing.T) {
	for _, p := range innerTable() {
		wantNetNS := p.Source == "/proc/sys/net"
		if p.UseNetNS != wantNetNS {
			t.Errorf("entry %+v: UseNetNS = %v, want %v", p, p.UseNetNS, wantNetNS)
		}
	}
}

func TestDevNodes(t *testing.T) {
	want := map[string][2]uint32{
		"null":    {1, 3},
		"zero":    {1, 5},
		"full":    {1, 7},
		"random":  {1, 8},
		"urandom": {1, 9},
		"tty":     {5, 0},
		"ptmx":    {5, 2},
	}

	if len(devNodes) != len(want) {
		t.Fatalf("got %d device nodes, want %d", len(devNodes), len(want))
	}

	for _, dn := range devNodes {
		nums, ok := want[dn.name]
		if !ok {
			t.Errorf("unexpected device node %q", dn.name)

			continue
		}

		if dn.major != nums[0] || dn.minor != nums[1] {
			t.Errorf("%s = %d:%d, want %d:%d", dn.name, dn.major, dn.minor, nums[0], nums[1])
		}
	}
}

func TestParseKernelMajorMinor(t *testing.T) {
	cases := []struct {
		release      string
		major, minor int
		ok           bool
	}{
		{"5.15.0-91-generic", 5, 15, true},
		{"3.18", 3, 18, true},
		{"6.8.0-rc1", 6, 8, true},
		{"4.x", 0, 0, false},
		{"nonsense", 0, 0, false},
	}

	for _, c := range cases {
		major, minor, ok := parseKernelMajorMinor(c.release)
		if ok != c.ok || major != c.major || minor != c.minor {
			t.Errorf("parseKernelMajorMinor(%q) = %d, %d, %v; want %d, %d, %v",
				c.release, major, minor, ok, c.major, c.minor, c.ok)
		}
	}
}

func TestDeleteOnUnmountedTargetRemovesDirectories(t *testing.T) {
	// With nothing mounted, Delete must still remove the three
	// subdirectories and the target itself, so deleting a never-created
	// environment cleans up leftover directories.
	dir := t.TempDir()
	target := filepath.Join(dir, "env")

	comp := &Composer{ImagePath: filepath.Join(dir, "image"), TargetPath: target}

	for _, sub := range []string{comp.RootPath(), comp.upperPath(), comp.workPath()} {
		if err := os.MkdirAll(sub, 0o0755); err != nil {
			t.Fatalf("creating layout: %v", err)
		}
	}

	writeEmptyMtab(t)

	if err := comp.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("target still exists after Delete")
	}
}

func writeEmptyMtab(t *testing.T) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mtab")
	if err := os.WriteFile(path, nil, 0o0644); err != nil {
		t.Fatalf("writing fake mtab: %v", err)
	}

	orig := mount.EtcMtab
	mount.EtcMtab = path

	t.Cleanup(func() { mount.EtcMtab = orig })
}
