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

// Package mount describes individual mount operations and the in-memory
// mount table (mtab) used to make them idempotent.
package mount

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/devenv-sh/devenv/devenverr"
)

// FSType names a filesystem type as it would appear in mtab or as the
// fstype argument to mount(2). The empty string means "unspecified" and is
// distinct from any named type for Point/Registry equality purposes.
type FSType string

// Well-known filesystem types used by the inner mount sequence.
const (
	FSProc    FSType = "proc"
	FSOverlay FSType = "overlay"
	FSTmpfs   FSType = "tmpfs"
	FSSysfs   FSType = "sysfs"
)

// Point describes one mount: what to mount, where, and how. All fields are
// optional except Target. Fatal, InUserNS and UseNetNS are hints carried
// for callers that want to gate individual mounts; this package does not
// interpret them.
type Point struct {
	Source   string // "what" - device/source, e.g. "tmpfs", "/proc/sys"
	Target   string // mount point, required
	FSType   FSType // fstype, empty if unspecified
	Data     string // mount(2) data string, e.g. "mode=755"
	Flags    uintptr
	Fatal    bool
	InUserNS bool
	UseNetNS bool
}

// equalKey returns the (target, fstype) identity used for mtab presence
// lookups. Two points are "the same mount" for idempotency purposes iff
// their target and fstype match; source, data and flags are irrelevant.
func (p Point) equalKey() (string, FSType) {
	return p.Target, p.FSType
}

// Do performs the mount(2) syscall described by p, creating intermediate
// directories is the caller's responsibility (see overlay.Composer.InnerMount).
func Do(p Point) error {
	var source, fstype, data *string
	if p.Source != "" {
		source = &p.Source
	}

	if p.FSType != "" {
		s := string(p.FSType)
		fstype = &s
	}

	if p.Data != "" {
		data = &p.Data
	}

	if err := unix.Mount(deref(source), p.Target, deref(fstype), p.Flags, deref(data)); err != nil {
		return devenverr.OS(fmt.Sprintf("could not mount %+v", p), err)
	}

	return nil
}

// Unmount performs umount(2) on target. Any failure, including a "not
// mounted" error (ENOENT or EINVAL), is returned as a KindOS error wrapping
// the errno, so callers (e.g. Registry-driven teardown loops) can recognize
// it with errors.Is and ignore it.
func Unmount(target string) error {
	if err := unix.Unmount(target, 0); err != nil {
		return devenverr.OS(fmt.Sprintf("could not unmount %s", target), err)
	}

	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

// EnsureDir creates dir (and parents) if it doesn't already exist, matching
// the "creating any missing target directories first" requirement of the
// inner mount table.
func EnsureDir(dir string) error {
	if st, err := os.Stat(dir); err == nil && st.IsDir() {
		return nil
	}

	if err := os.MkdirAll(dir, 0o0755); err != nil {
		return devenverr.IO(fmt.Sprintf("could not create mount target directory %s", dir), err)
	}

	return nil
}
