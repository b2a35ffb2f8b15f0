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

// Package devenverr provides the tagged error model used across devenv.
//
// Every error carries a Kind (what sort of failure this is) and a message,
// and optionally wraps a causal error for diagnostic chaining. Callers that
// need to distinguish error classes should switch on Kind via As, not on the
// message text.
package devenverr

import (
	"errors"
	"fmt"
)

// Kind tags the broad category of a failure. Do not exhaustively switch on
// Kind in callers outside this module; new kinds may be added over time.
type Kind int

const (
	// KindCustom is a domain-level failure with no OS or I/O cause, e.g.
	// "not PID 1" or "no matching package".
	KindCustom Kind = iota
	// KindOS tags a failure reported by a kernel syscall (mount, unshare,
	// fork, chroot, exec, mknod, waitpid).
	KindOS
	// KindIO tags a filesystem I/O failure outside the syscalls above.
	KindIO
	// KindChannel tags a send/receive failure on the control channel.
	KindChannel
)

func (k Kind) String() string {
	switch k {
	case KindOS:
		return "os error"
	case KindIO:
		return "io error"
	case KindChannel:
		return "channel error"
	default:
		return "error"
	}
}

// Error is the concrete error type returned throughout devenv.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

// New creates an Error of the given kind with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Wrap creates an Error of the given kind carrying cause for diagnostic
// chaining. cause may be nil, in which case Wrap behaves like New.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{kind: kind, msg: msg, cause: cause}
}

// Custom builds a KindCustom error, devenv's equivalent of a plain
// domain-level failure message.
func Custom(msg string) *Error {
	return New(KindCustom, msg)
}

// OS wraps cause as a KindOS error.
func OS(msg string, cause error) *Error {
	return Wrap(KindOS, msg, cause)
}

// IO wraps cause as a KindIO error.
func IO(msg string, cause error) *Error {
	return Wrap(KindIO, msg, cause)
}

// Channel wraps cause as a KindChannel error.
func Channel(msg string, cause error) *Error {
	return Wrap(KindChannel, msg, cause)
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.cause)
	}

	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the error's tag.
func (e *Error) Kind() Kind {
	return e.kind
}

// Is reports whether err is (or wraps) a devenverr.Error of the given kind.
func Is(err error, kind Kind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.kind == kind
	}

	return false
}
