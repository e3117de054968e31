/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sketch

import (
	"math"

	"github.com/google/uuid"
)

// DefaultWidth is the stroke width used when no valid width was provided.
const DefaultWidth = 1.0

// Defaults holds the width and color applied to the next stroke. Existing strokes are
// never affected by changes here. The UI layer owns one and passes it to BeginStroke.
type Defaults struct {
	Width float64
	Color Color
}

// NewDefaults returns width 1 and black.
func NewDefaults() *Defaults { return &Defaults{Width: DefaultWidth, Color: Black} }

// SetWidth updates the width for the next stroke. Non-positive or NaN values are ignored.
func (d *Defaults) SetWidth(w float64) {
	if validWidth(w) {
		d.Width = w
	}
}

// SetColor updates the color for the next stroke.
func (d *Defaults) SetColor(c Color) { d.Color = c }

// Model is the ordered stroke collection plus the drawing-mode and active-stroke flags.
// It is not safe for concurrent use; the UI goroutine owns it.
//
// OnChange, when set, is called after every mutation that changes what a render would
// produce. Operations whose preconditions do not hold are silent no-ops and do not call it.
type Model struct {
	strokes []Stroke
	armed   bool
	active  bool

	OnChange func()
}

// NewModel returns an empty model with drawing mode disarmed.
func NewModel() *Model { return &Model{} }

// SetDrawingMode arms or disarms stroke creation.
func (m *Model) SetDrawingMode(enabled bool) { m.armed = enabled }

// DrawingMode reports whether BeginStroke is currently permitted.
func (m *Model) DrawingMode() bool { return m.armed }

// Drawing reports whether a stroke is being extended.
func (m *Model) Drawing() bool { return m.active }

// BeginStroke appends a new stroke seeded with p. It returns false without changing
// anything when drawing mode is disarmed.
func (m *Model) BeginStroke(p Point, width float64, c Color) bool {
	if !m.armed {
		return false
	}
	if !validWidth(width) {
		width = DefaultWidth
	}
	m.strokes = append(m.strokes, Stroke{
		ID:     uuid.NewString(),
		Points: []Point{p},
		Width:  width,
		Color:  c,
	})
	m.active = true
	m.changed()
	return true
}

// BeginStrokeWith starts a stroke using the given defaults.
func (m *Model) BeginStrokeWith(p Point, d *Defaults) bool {
	if d == nil {
		d = NewDefaults()
	}
	return m.BeginStroke(p, d.Width, d.Color)
}

// ExtendStroke appends p to the last stroke while a stroke is active.
func (m *Model) ExtendStroke(p Point) bool {
	if !m.active || len(m.strokes) == 0 {
		return false
	}
	last := &m.strokes[len(m.strokes)-1]
	last.Points = append(last.Points, p)
	m.changed()
	return true
}

// EndStroke freezes the active stroke.
func (m *Model) EndStroke() bool {
	if !m.active {
		return false
	}
	m.active = false
	return true
}

// UndoLast removes the most recent stroke. An active stroke is ended first.
func (m *Model) UndoLast() bool {
	if len(m.strokes) == 0 {
		return false
	}
	m.active = false
	m.strokes[len(m.strokes)-1] = Stroke{}
	m.strokes = m.strokes[:len(m.strokes)-1]
	m.changed()
	return true
}

// ClearAll removes every stroke.
func (m *Model) ClearAll() bool {
	m.active = false
	if len(m.strokes) == 0 {
		return false
	}
	m.strokes = nil
	m.changed()
	return true
}

// Len returns the number of strokes.
func (m *Model) Len() int { return len(m.strokes) }

// Strokes returns a deep copy of the strokes in paint order.
func (m *Model) Strokes() []Stroke {
	out := make([]Stroke, len(m.strokes))
	for i, s := range m.strokes {
		out[i] = s.clone()
	}
	return out
}

// Last returns a copy of the most recent stroke.
func (m *Model) Last() (Stroke, bool) {
	if len(m.strokes) == 0 {
		return Stroke{}, false
	}
	return m.strokes[len(m.strokes)-1].clone(), true
}

func (m *Model) changed() {
	if m.OnChange != nil {
		m.OnChange()
	}
}

func validWidth(w float64) bool { return w > 0 && !math.IsNaN(w) && !math.IsInf(w, 0) }
