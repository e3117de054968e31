/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns panics into a crash report plus a rescue PNG of the open drawing.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "sketchpad/internal/log"
	"sketchpad/internal/export"
	"sketchpad/internal/sketch"
	"sketchpad/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// State describes what to rescue when the process panics. All fields are optional.
type State struct {
	Dir     string                 // report directory, defaults to os.TempDir()
	Strokes func() []sketch.Stroke // current drawing
	Size    func() (int, int)      // current canvas size
}

// Recover captures a panic, logs it with a stacktrace, writes a report file and, when a
// drawing is open, a rescue PNG next to it. It then exits with code 2.
//
// Usage: defer crash.Recover(st)
func Recover(st *State) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, err := writeReport(st, r, stack)
		if err != nil {
			l.Error("write crash report failed", slog.Any("err", err))
		}
		if path, err := rescueImage(st); err != nil {
			l.Error("rescue image failed", slog.Any("err", err))
		} else if path != "" {
			l.Info("rescue image written", slog.String("path", path))
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		exitFn(2)
	}
}

func reportDir(st *State) string {
	if st != nil && st.Dir != "" {
		_ = os.MkdirAll(st.Dir, 0o755)
		return st.Dir
	}
	return os.TempDir()
}

func stamp() string { return time.Now().Format("20060102-150405") }

func writeReport(st *State, panicVal any, stack []byte) (string, error) {
	path := filepath.Join(reportDir(st), fmt.Sprintf("sketchpad-crash-%s.log", stamp()))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Sketchpad Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if st != nil && st.Strokes != nil {
		_, _ = fmt.Fprintf(&buf, "Strokes: %d\n", len(safeStrokes(st)))
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()
	return path, nil
}

// rescueImage writes the open drawing as PNG. It returns "" when there is nothing to save.
func rescueImage(st *State) (string, error) {
	if st == nil || st.Strokes == nil {
		return "", nil
	}
	strokes := safeStrokes(st)
	if len(strokes) == 0 {
		return "", nil
	}
	w, h := 600, 600
	if st.Size != nil {
		if cw, ch := st.Size(); cw > 0 && ch > 0 {
			w, h = cw, ch
		}
	}
	path := filepath.Join(reportDir(st), fmt.Sprintf("sketchpad-rescue-%s.png", stamp()))
	if err := export.PNG(path, strokes, w, h); err != nil {
		return "", err
	}
	return path, nil
}

// safeStrokes reads the drawing, tolerating a second panic from a broken model.
func safeStrokes(st *State) (out []sketch.Stroke) {
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()
	return st.Strokes()
}
