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

// Package overlay is the filesystem composer: it builds the overlayfs root
// a container chroots into, handles the tmpfs interposition needed when
// the image is an ancestor of the target, and tears the whole thing down
// again.
package overlay

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/devenv-sh/devenv/devenverr"
	"github.com/devenv-sh/devenv/mount"
)

const (
	mergeDir = "merge"
	upperDir = "upper"
	workDir  = "workdir"
)

// minKernelRelease is the overlayfs-capable floor: 3.18.
var minKernelRelease = [2]int{3, 18}

// Composer owns one overlay/target pairing for the lifetime of a
// container. The overlay directories belong exclusively to the driver side
// and are destroyed on Delete.
type Composer struct {
	ImagePath  string
	TargetPath string

	mountedTmpfs bool
}

// New records image and target paths and warns (non-fatal) if the running
// kernel looks older than 3.18.
func New(imagePath, targetPath string) *Composer {
	if !kernelSupportsOverlayfs() {
		slog.Warn("Kernel release may predate overlayfs support (3.18); devenv may not work correctly")
	}

	return &Composer{ImagePath: imagePath, TargetPath: targetPath}
}

// RootPath is the chroot root: TargetPath/merge.
func (c *Composer) RootPath() string {
	return filepath.Join(c.TargetPath, mergeDir)
}

func (c *Composer) upperPath() string {
	return filepath.Join(c.TargetPath, upperDir)
}

func (c *Composer) workPath() string {
	return filepath.Join(c.TargetPath, workDir)
}

// imageIsAncestor reports whether ImagePath is an ancestor of TargetPath
// (including the image being "/" itself), the condition under which
// overlayfs's cyclic-reference rejection would otherwise kick in.
func (c *Composer) imageIsAncestor() bool {
	img := filepath.Clean(c.ImagePath)
	target := filepath.Clean(c.TargetPath)

	rel, err := filepath.Rel(img, target)
	if err != nil {
		return false
	}

	return rel == "." || !strings.HasPrefix(rel, "..")
}

// Mount establishes the overlay: creates the target tree, interposes a
// tmpfs if the image is an ancestor of the target, then mounts the
// overlayfs itself. It is idempotent: repeated calls consult the mount
// registry and skip work that's already done.
func (c *Composer) Mount() error {
	if err := mount.EnsureDir(c.TargetPath); err != nil {
		return err
	}

	reg, err := mount.NewRegistry()
	if err != nil {
		return err
	}

	if c.imageIsAncestor() {
		slog.Warn("Image path is an ancestor of the devenv target; changes will be lost across reboots")

		if !reg.Contains(mount.Point{Target: c.RootPath(), FSType: mount.FSOverlay}) {
			if err := mount.Do(mount.Point{
				Source: "tmpfs-devenv",
				Target: c.TargetPath,
				FSType: mount.FSTmpfs,
				Data:   "rw,relatime",
			}); err != nil {
				return devenverr.OS("could not mount tmpfs over target", err)
			}

			c.mountedTmpfs = true
		}
	}

	// Must happen after the tmpfs mount above, or these subdirectories
	// would be created on the wrong filesystem.
	for _, dir := range []string{c.RootPath(), c.upperPath(), c.workPath()} {
		if err := mount.EnsureDir(dir); err != nil {
			return err
		}
	}

	reg, err = mount.NewRegistry()
	if err != nil {
		return err
	}

	if !reg.Contains(mount.Point{Target: c.RootPath(), FSType: mount.FSOverlay}) {
		data := fmt.Sprintf("lowerdir=%s,upperdir=%s,workdir=%s", c.ImagePath, c.upperPath(), c.workPath())
		if err := mount.Do(mount.Point{
			Source: "overlay",
			Target: c.RootPath(),
			FSType: mount.FSOverlay,
			Data:   data,
		}); err != nil {
			return devenverr.OS("could not mount overlayfs", err)
		}
	}

	return nil
}

// innerTable is the inner-mount sequence, applied only from inside the
// container, after chroot.
func innerTable() []mount.Point {
	return []mount.Point{
		{Target: "/", Flags: unix.MS_REC | unix.MS_PRIVATE, Fatal: true, InUserNS: true},
		{Source: "proc", Target: "/proc", FSType: mount.FSProc, Flags: unix.MS_NOSUID | unix.MS_NOEXEC | unix.MS_NODEV, Fatal: true, InUserNS: true},
		{Source: "/proc/sys", Target: "/proc/sys", Flags: unix.MS_BIND, Fatal: true, InUserNS: true},
		{Source: "/proc/sys/net", Target: "/proc/sys/net", Flags: unix.MS_BIND, Fatal: true, InUserNS: true, UseNetNS: true},
		{Target: "/proc/sys", Flags: unix.MS_BIND | unix.MS_RDONLY | unix.MS_NOSUID | unix.MS_NOEXEC | unix.MS_NODEV | unix.MS_REMOUNT, Fatal: true, InUserNS: true},
		{Source: "tmpfs", Target: "/sys", FSType: mount.FSTmpfs, Data: "mode=755", Flags: unix.MS_NOSUID | unix.MS_NOEXEC | unix.MS_NODEV, Fatal: true},
		{Source: "sysfs", Target: "/sys", FSType: mount.FSSysfs, Flags: unix.MS_RDONLY | unix.MS_NOSUID | unix.MS_NOEXEC | unix.MS_NODEV, Fatal: true},
		{Source: "tmpfs", Target: "/dev", FSType: mount.FSTmpfs, Data: "mode=755", Flags: unix.MS_NOSUID | unix.MS_STRICTATIME, Fatal: true},
		{Source: "tmpfs", Target: "/dev/shm", FSType: mount.FSTmpfs, Data: "mode=1777", Flags: unix.MS_NOSUID | unix.MS_STRICTATIME | unix.MS_NODEV, Fatal: true},
		{Source: "tmpfs", Target: "/run", FSType: mount.FSTmpfs, Data: "mode=755", Flags: unix.MS_NOSUID | unix.MS_STRICTATIME | unix.MS_NODEV, Fatal: true},
		{Source: "tmpfs", Target: "/tmp", FSType: mount.FSTmpfs, Data: "mode=1777", Flags: unix.MS_STRICTATIME, Fatal: true},
	}
}

// devNode is one character device to seed under /dev after the inner mount
// table completes.
type devNode struct {
	name         string
	major, minor uint32
}

var devNodes = []devNode{
	{"null", 1, 3},
	{"zero", 1, 5},
	{"full", 1, 7},
	{"random", 1, 8},
	{"urandom", 1, 9},
	{"tty", 5, 0},
	{"ptmx", 5, 2},
}

// InnerMount applies the inner mount table and seeds /dev device nodes.
// Must be called only from inside the container, after chroot: it operates
// on absolute paths ("/proc", "/sys", ...) that are meaningless pre-chroot.
func (c *Composer) InnerMount() error {
	for _, p := range innerTable() {
		if err := mount.EnsureDir(p.Target); err != nil {
			return err
		}

		if err := mount.Do(p); err != nil {
			return devenverr.OS(fmt.Sprintf("error mounting %s", p.Target), err)
		}
	}

	for _, dn := range devNodes {
		path := filepath.Join("/dev", dn.name)
		dev := unix.Mkdev(dn.major, dn.minor)

		if err := unix.Mknod(path, unix.S_IFCHR|0o0666, int(dev)); err != nil {
			return devenverr.OS("could not create device node "+path, err)
		}
	}

	return nil
}

// Unmount tears down the container's mounts in reverse order of creation:
// proc, the overlay mountpoint, and finally the (possibly tmpfs-backed)
// target directory.
func (c *Composer) Unmount() error {
	// Non-fatal: the container process may already have torn this down,
	// or it may never have entered its dispatch loop.
	if err := mount.Unmount(filepath.Join(c.RootPath(), "proc")); err != nil {
		slog.Debug("Could not unmount container proc", "err", err)
	}

	if err := mount.Unmount(c.RootPath()); err != nil {
		return err
	}

	reg, err := mount.NewRegistry()
	if err != nil {
		return err
	}

	// The target itself is a mountpoint only when the tmpfs interposition
	// happened (image was an ancestor of the target).
	if reg.Contains(mount.Point{Target: c.TargetPath, FSType: mount.FSTmpfs}) {
		if err := mount.Unmount(c.TargetPath); err != nil {
			return err
		}
	}

	return nil
}

// Delete loops unmounting while the registry still reports the overlay,
// then removes the three subdirectories and the target itself. The loop
// exists because image == "/" causes the tmpfs interposition, which must
// also be dismantled before the scratch directories are removable.
func (c *Composer) Delete() error {
	for {
		reg, err := mount.NewRegistry()
		if err != nil {
			return err
		}

		if !reg.Contains(mount.Point{Target: c.RootPath(), FSType: mount.FSOverlay}) {
			break
		}

		if err := c.Unmount(); err != nil {
			return err
		}
	}

	for _, dir := range []string{c.RootPath(), c.upperPath(), c.workPath(), c.TargetPath} {
		if err := os.RemoveAll(dir); err != nil {
			return devenverr.IO("could not remove overlay directory "+dir, err)
		}
	}

	return nil
}

func kernelSupportsOverlayfs() bool {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return true // can't tell, don't nag
	}

	release := charsToString(uts.Release[:])

	major, minor, ok := parseKernelMajorMinor(release)
	if !ok {
		return true
	}

	if major != minKernelRelease[0] {
		return major > minKernelRelease[0]
	}

	return minor >= minKernelRelease[1]
}

func charsToString(c []byte) string {
	n := 0
	for n < len(c) && c[n] != 0 {
		n++
	}

	return string(c[:n])
}

// parseKernelMajorMinor extracts the leading "X.Y" from a uname release
// string like "5.15.0-91-generic". Not a full semver parser; two fields
// are all the comparison needs.
func parseKernelMajorMinor(release string) (int, int, bool) {
	parts := strings.SplitN(release, ".", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}

	minorStr := parts[1]
	for i, r := range minorStr {
		if r < '0' || r > '9' {
			minorStr = minorStr[:i]
			break
		}
	}

	minor, err := strconv.Atoi(minorStr)
	if err != nil {
		return 0, 0, false
	}

	return major, minor, true
}
