/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package sketch holds the in-memory line model of the sketch pad: an ordered list of
// freehand strokes plus the drawing-mode switch. It has no toolkit dependencies.
package sketch

// Point is a position in canvas-surface coordinates.
type Point struct{ X, Y float64 }

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Stroke is one continuous freehand line. Width and Color are captured when the
// stroke begins and never change afterwards.
type Stroke struct {
	ID     string
	Points []Point
	Width  float64
	Color  Color
}

// Drawable reports whether the stroke has enough points to paint a segment.
func (s Stroke) Drawable() bool { return len(s.Points) >= 2 }

func (s Stroke) clone() Stroke {
	c := s
	c.Points = append([]Point(nil), s.Points...)
	return c
}
