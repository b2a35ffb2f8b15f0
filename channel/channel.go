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

// Package channel implements the control channel between the host driver
// and the container's PID 1: a point-to-point, bidirectional, FIFO message
// stream carrying typed tasks.
//
// The transport is a Unix socketpair so both endpoints survive the clone
// into the container (the container end is handed over as an inherited file
// descriptor). Payloads are encoded with encoding/gob, a self-describing
// binary encoding, so the two processes need no schema negotiation.
package channel

import (
	"encoding/gob"
	"os"

	"golang.org/x/sys/unix"

	"github.com/devenv-sh/devenv/config"
	"github.com/devenv-sh/devenv/devenverr"
)

// Task is a message the driver pushes to the container's dispatch loop.
// The concrete variants are Command, ResolveDependencies and Exit.
type Task interface {
	task()
}

// Command asks PID 1 to execute a program. Name is resolved through the
// environment first: if a variable by that name exists its value becomes
// the executable (this is how the shell task turns "SHELL" into
// "/bin/bash"). Params is the full argv, including argv[0].
//
// With ReusePID set the command replaces PID 1 via a path-searching exec,
// which is how an init system is booted. Without it the command runs as a
// child of PID 1 and the dispatch loop keeps going.
type Command struct {
	Name     string
	Params   []string
	ReusePID bool
}

// ResolveDependencies asks PID 1 to install the given dependencies through
// their providers, best effort.
type ResolveDependencies struct {
	Dependencies []config.Dependency
}

// Exit asks PID 1 to leave the dispatch loop.
type Exit struct{}

func (Command) task()             {}
func (ResolveDependencies) task() {}
func (Exit) task()                {}

// taskKind discriminates the variant carried by an envelope.
type taskKind uint8

const (
	kindCommand taskKind = iota + 1
	kindResolve
	kindExit
)

// envelope is the wire form of a Task: a kind tag plus the fields of the
// variant it carries. Kept concrete so gob never has to encode an empty
// variant through an interface.
type envelope struct {
	Kind         taskKind
	Command      Command
	Dependencies []config.Dependency
}

func wrap(t Task) (envelope, error) {
	switch t := t.(type) {
	case Command:
		return envelope{Kind: kindCommand, Command: t}, nil
	case ResolveDependencies:
		return envelope{Kind: kindResolve, Dependencies: t.Dependencies}, nil
	case Exit:
		return envelope{Kind: kindExit}, nil
	default:
		return envelope{}, devenverr.Custom("unknown task variant")
	}
}

func (e envelope) unwrap() (Task, error) {
	switch e.Kind {
	case kindCommand:
		return e.Command, nil
	case kindResolve:
		return ResolveDependencies{Dependencies: e.Dependencies}, nil
	case kindExit:
		return Exit{}, nil
	default:
		return nil, devenverr.Custom("unknown task variant on the wire")
	}
}

// Endpoint is one side of the channel. The driver holds one endpoint for
// the container's lifetime; the container process holds the other.
type Endpoint struct {
	conn *os.File
	enc  *gob.Encoder
	dec  *gob.Decoder
}

func newEndpoint(conn *os.File) *Endpoint {
	return &Endpoint{
		conn: conn,
		enc:  gob.NewEncoder(conn),
		dec:  gob.NewDecoder(conn),
	}
}

// New creates a connected endpoint pair. The first endpoint stays with the
// driver, the second is for the container process.
func New() (*Endpoint, *Endpoint, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, devenverr.Channel("could not create control channel socketpair", err)
	}

	host := newEndpoint(os.NewFile(uintptr(fds[0]), "devenv-channel-host"))
	container := newEndpoint(os.NewFile(uintptr(fds[1]), "devenv-channel-container"))

	return host, container, nil
}

// FromFile reattaches an endpoint to a file descriptor inherited across
// exec, on the container side of the clone.
func FromFile(f *os.File) *Endpoint {
	return newEndpoint(f)
}

// File exposes the underlying descriptor so it can be passed to a child
// process (exec.Cmd.ExtraFiles).
func (e *Endpoint) File() *os.File {
	return e.conn
}

// Send delivers t to the peer's queue, or fails with a channel error. A
// send after the peer has gone away (e.g. PID 1 exec-replaced itself and
// the kernel tore the socket down) is reported, never silently dropped.
func (e *Endpoint) Send(t Task) error {
	env, err := wrap(t)
	if err != nil {
		return err
	}

	if err := e.enc.Encode(env); err != nil {
		return devenverr.Channel("could not send task", err)
	}

	return nil
}

// Receive blocks until a task arrives or the peer endpoint is closed, in
// which case a channel error is returned.
func (e *Endpoint) Receive() (Task, error) {
	var env envelope
	if err := e.dec.Decode(&env); err != nil {
		return nil, devenverr.Channel("could not receive task", err)
	}

	return env.unwrap()
}

// Close releases the endpoint's descriptor. The peer's next Receive fails.
func (e *Endpoint) Close() error {
	return e.conn.Close()
}
