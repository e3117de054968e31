/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package input translates toolkit pointer events and toolbar actions into line model
// operations. It has no GUI dependency so the event mapping can be tested headless.
package input

import (
	"log/slog"
	"sync"

	applog "sketchpad/internal/log"
	"sketchpad/internal/sketch"
)

// Button identifies a pointer button.
type Button int

const (
	Primary Button = iota
	Secondary
	Tertiary
)

func (b Button) String() string {
	switch b {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	case Tertiary:
		return "tertiary"
	}
	return "unknown"
}

// Slider range for the stroke width control.
const (
	MinWidth = 1.0
	MaxWidth = 10.0
)

// Options seeds a new Adapter. Zero values fall back to the package defaults.
type Options struct {
	Width    float64
	Color    *sketch.Color
	MinWidth float64
	MaxWidth float64
	Armed    bool
}

// Adapter owns the line model and the defaults used for new strokes.
// OnChange is called after any operation that changed the visible drawing, outside the
// adapter's lock.
type Adapter struct {
	mu       sync.Mutex
	model    *sketch.Model
	defaults *sketch.Defaults
	minW     float64
	maxW     float64
	dirty    bool
	log      *slog.Logger

	OnChange func()
}

// New returns an adapter around a fresh, empty model.
func New(opts Options) *Adapter {
	a := &Adapter{
		model:    sketch.NewModel(),
		defaults: sketch.NewDefaults(),
		minW:     MinWidth,
		maxW:     MaxWidth,
		log:      applog.WithComponent("input"),
	}
	if opts.MinWidth > 0 {
		a.minW = opts.MinWidth
	}
	if opts.MaxWidth >= a.minW {
		a.maxW = opts.MaxWidth
	}
	a.defaults.SetWidth(a.clamp(a.defaults.Width))
	if opts.Width > 0 {
		a.defaults.SetWidth(a.clamp(opts.Width))
	}
	if opts.Color != nil {
		a.defaults.SetColor(*opts.Color)
	}
	a.model.SetDrawingMode(opts.Armed)
	a.model.OnChange = func() { a.dirty = true }
	return a
}

// do runs fn under the lock and fires OnChange afterwards if the model changed.
func (a *Adapter) do(fn func() bool) bool {
	a.mu.Lock()
	ok := fn()
	dirty := a.dirty
	a.dirty = false
	cb := a.OnChange
	a.mu.Unlock()
	if dirty && cb != nil {
		cb()
	}
	return ok
}

// Press starts a stroke at p when b is the primary button and drawing is armed.
func (a *Adapter) Press(b Button, p sketch.Point) bool {
	if b != Primary {
		return false
	}
	return a.do(func() bool {
		ok := a.model.BeginStrokeWith(p, a.defaults)
		if s, started := a.model.Last(); ok && started {
			a.log.Debug("stroke begin", slog.String("stroke", s.ID), slog.Float64("x", p.X), slog.Float64("y", p.Y),
				slog.Float64("width", a.defaults.Width), slog.String("color", a.defaults.Color.Hex()))
		}
		return ok
	})
}

// Motion extends the active stroke. Motion without a pressed primary button is ignored.
func (a *Adapter) Motion(p sketch.Point) bool {
	return a.do(func() bool { return a.model.ExtendStroke(p) })
}

// Release ends the active stroke on primary button release.
func (a *Adapter) Release(b Button) bool {
	if b != Primary {
		return false
	}
	return a.do(func() bool { return a.model.EndStroke() })
}

// ArmDrawing sets drawing mode. Disarming does not end a stroke already in progress.
func (a *Adapter) ArmDrawing(on bool) {
	a.do(func() bool {
		a.model.SetDrawingMode(on)
		a.log.Debug("drawing mode", slog.Bool("armed", on))
		return true
	})
}

// ToggleDrawing flips drawing mode and returns the new state.
func (a *Adapter) ToggleDrawing() bool {
	var on bool
	a.do(func() bool {
		on = !a.model.DrawingMode()
		a.model.SetDrawingMode(on)
		a.log.Debug("drawing mode", slog.Bool("armed", on))
		return true
	})
	return on
}

// DrawingMode reports whether new strokes may begin.
func (a *Adapter) DrawingMode() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model.DrawingMode()
}

// SetWidth clamps w to the slider range, stores it as the default for new strokes and
// returns the stored value. Existing strokes are unaffected.
func (a *Adapter) SetWidth(w float64) float64 {
	var got float64
	a.do(func() bool {
		a.defaults.SetWidth(a.clamp(w))
		got = a.defaults.Width
		return true
	})
	return got
}

// Width returns the default width for new strokes.
func (a *Adapter) Width() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.defaults.Width
}

// SetColor stores c as the default color for new strokes.
func (a *Adapter) SetColor(c sketch.Color) {
	a.do(func() bool {
		a.defaults.SetColor(c)
		return true
	})
}

// Color returns the default color for new strokes.
func (a *Adapter) Color() sketch.Color {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.defaults.Color
}

// Undo removes the most recent stroke.
func (a *Adapter) Undo() bool {
	return a.do(func() bool {
		last, had := a.model.Last()
		ok := a.model.UndoLast()
		if ok && had {
			a.log.Debug("undo", slog.String("stroke", last.ID), slog.Int("points", len(last.Points)), slog.Int("strokes", a.model.Len()))
		}
		return ok
	})
}

// Clear removes all strokes.
func (a *Adapter) Clear() bool {
	return a.do(func() bool {
		n := a.model.Len()
		ok := a.model.ClearAll()
		a.log.Debug("clear", slog.Int("removed", n))
		return ok
	})
}

// Strokes returns a snapshot of the drawing in insertion order.
func (a *Adapter) Strokes() []sketch.Stroke {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model.Strokes()
}

// Len returns the number of strokes.
func (a *Adapter) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model.Len()
}

func (a *Adapter) clamp(w float64) float64 {
	return min(max(w, a.minW), a.maxW)
}
