/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render paints the line model onto a 2D drawing surface. The on-screen canvas
// and the PNG exporter share the same code path, so what you see is what gets exported.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gg"

	"sketchpad/internal/sketch"
)

// Surface is the subset of a cairo-style immediate mode context the renderer needs.
// *gg.Context satisfies it.
type Surface interface {
	Width() int
	Height() int
	SetRGBA(r, g, b, a float64)
	SetLineWidth(w float64)
	MoveTo(x, y float64)
	LineTo(x, y float64)
	DrawRectangle(x, y, w, h float64)
	Fill() error
	Stroke() error
}

// styler is implemented by surfaces that support line caps and joins.
type styler interface {
	SetLineCap(gg.LineCap)
	SetLineJoin(gg.LineJoin)
}

// ErrEmptySurface is returned when an offscreen surface would have no pixels.
var ErrEmptySurface = errors.New("render: surface has no pixels")

// Background is the canvas color painted under all strokes.
var Background = sketch.White

// Render paints a white background over the whole surface, then every stroke in order.
// Strokes with fewer than two points are skipped. Width and color are set per stroke
// so nothing carries over from one stroke to the next.
func Render(s Surface, strokes []sketch.Stroke) error {
	s.SetRGBA(Background.R, Background.G, Background.B, Background.A)
	s.DrawRectangle(0, 0, float64(s.Width()), float64(s.Height()))
	if err := s.Fill(); err != nil {
		return fmt.Errorf("fill background: %w", err)
	}
	if st, ok := s.(styler); ok {
		st.SetLineCap(gg.LineCapRound)
		st.SetLineJoin(gg.LineJoinRound)
	}
	for i, stroke := range strokes {
		s.SetLineWidth(stroke.Width)
		c := stroke.Color
		s.SetRGBA(c.R, c.G, c.B, c.A)
		if !stroke.Drawable() {
			continue
		}
		first := stroke.Points[0]
		s.MoveTo(first.X, first.Y)
		for _, p := range stroke.Points[1:] {
			s.LineTo(p.X, p.Y)
		}
		if err := s.Stroke(); err != nil {
			return fmt.Errorf("stroke %d: %w", i, err)
		}
	}
	return nil
}

// NewSurface allocates an offscreen software surface of the given pixel size.
// Callers close it when done.
func NewSurface(width, height int) (*gg.Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptySurface, width, height)
	}
	return gg.NewContext(width, height), nil
}

// Image renders strokes into a new width x height image.
func Image(strokes []sketch.Stroke, width, height int) (image.Image, error) {
	dc, err := NewSurface(width, height)
	if err != nil {
		return nil, err
	}
	defer func() { _ = dc.Close() }()
	if err := Render(dc, strokes); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// RenderPNG renders strokes once and returns both the image and its PNG encoding.
func RenderPNG(strokes []sketch.Stroke, width, height int) (image.Image, []byte, error) {
	dc, err := NewSurface(width, height)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = dc.Close() }()
	if err := Render(dc, strokes); err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, nil, fmt.Errorf("encode png: %w", err)
	}
	return dc.Image(), buf.Bytes(), nil
}
