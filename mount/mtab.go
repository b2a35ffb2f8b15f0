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

package mount

import (
	"bufio"
	"os"
	"strings"

	"github.com/devenv-sh/devenv/devenverr"
)

// EtcMtab is the file Registry reads to discover the current mount table.
// Overridable in tests.
var EtcMtab = "/etc/mtab"

// Registry is a snapshot of the mount table at construction time: an
// unordered multiset of mount points parsed from /etc/mtab. Its lifetime is
// meant to be a single query batch; re-read (NewRegistry again) whenever
// freshness matters, e.g. across a teardown loop iteration.
type Registry struct {
	points []Point
}

// NewRegistry parses EtcMtab and returns a Registry reflecting its current
// contents. A failure to read the file surfaces as a devenverr KindIO error.
func NewRegistry() (*Registry, error) {
	f, err := os.Open(EtcMtab)
	if err != nil {
		return nil, devenverr.IO("could not read /etc/mtab", err)
	}
	defer f.Close()

	var points []Point

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}

		points = append(points, Point{
			Source: unescapeMtab(fields[0]),
			Target: unescapeMtab(fields[1]),
			FSType: FSType(fields[2]),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, devenverr.IO("could not read /etc/mtab", err)
	}

	return &Registry{points: points}, nil
}

// Contains reports whether the registry has a recorded mount matching p's
// (Target, FSType) identity. An empty FSType on the query only matches
// mounts recorded with no fstype.
func (r *Registry) Contains(p Point) bool {
	wantTarget, wantFSType := p.equalKey()

	for _, mp := range r.points {
		target, fstype := mp.equalKey()
		if target == wantTarget && fstype == wantFSType {
			return true
		}
	}

	return false
}

// unescapeMtab decodes the octal escapes (e.g. \040 for a space) that
// /etc/mtab uses for whitespace and backslashes inside paths.
func unescapeMtab(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder

	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && isOctalDigit(s[i+1]) && isOctalDigit(s[i+2]) && isOctalDigit(s[i+3]) {
			v := (int(s[i+1]-'0') << 6) | (int(s[i+2]-'0') << 3) | int(s[i+3]-'0')
			b.WriteByte(byte(v))
			i += 3

			continue
		}

		b.WriteByte(s[i])
	}

	return b.String()
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}
