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

// Package log wires devenv's process-wide slog handler. Messages go to
// stderr so they never interleave with the output of commands running
// inside a container; a powerline-styled handler is used on a TTY and a
// plain text handler otherwise. Debug output is gated behind Level.
package log

import (
	"log/slog"
	"os"

	"gitlab.com/slxh/go/powerline"
)

// Level is the application log level. Configure raises it to debug for
// verbose sessions; it is never lowered again within a process.
var Level slog.LevelVar

// The devenv palette, one accent per level.
var colors = map[slog.Level]powerline.ColorScheme{
	slog.LevelDebug: {
		Time:    powerline.NewColor(141, powerline.ColorBlack),
		Level:   powerline.NewColor(powerline.ColorBlack, 141),
		Message: powerline.NewColor(141, powerline.ColorDefault),
	},
	slog.LevelInfo: {
		Time:    powerline.NewColor(37, powerline.ColorBlack),
		Level:   powerline.NewColor(powerline.ColorBlack, 37),
		Message: powerline.NewColor(37, powerline.ColorDefault),
	},
	slog.LevelWarn: {
		Time:    powerline.NewColor(214, powerline.ColorBlack),
		Level:   powerline.NewColor(powerline.ColorBlack, 214),
		Message: powerline.NewColor(214, powerline.ColorDefault),
	},
	slog.LevelError: {
		Time:    powerline.NewColor(203, powerline.ColorBlack),
		Level:   powerline.NewColor(powerline.ColorBlack, 203),
		Message: powerline.NewColor(203, powerline.ColorDefault),
	},
}

func onTTY() bool {
	s, _ := os.Stderr.Stat()

	return s.Mode()&os.ModeCharDevice > 0
}

// Configure installs the handler for this session: colored powerline
// output when stderr is a TTY and noColor is unset, plain text otherwise,
// with debug-level logging when verbose is set. Called once with defaults
// at startup and again once the global flags are parsed.
func Configure(verbose, noColor bool) {
	if verbose {
		Level.Set(slog.LevelDebug)
	}

	var h slog.Handler
	if onTTY() && !noColor {
		h = powerline.NewHandler(os.Stderr, &powerline.HandlerOptions{
			Level:  &Level,
			Colors: colors,
		})
	} else {
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: &Level,
		})
	}

	slog.SetDefault(slog.New(h))
}

// Fatal logs msg at error level and exits the process. For unrecoverable
// CLI-level failures only; library code returns errors instead.
func Fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}
