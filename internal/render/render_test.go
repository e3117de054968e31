/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"sketchpad/internal/sketch"
)

// recorder is a Surface that logs every call.
type recorder struct {
	w, h      int
	ops       []string
	strokeErr error
}

func (r *recorder) Width() int  { return r.w }
func (r *recorder) Height() int { return r.h }
func (r *recorder) SetRGBA(cr, cg, cb, ca float64) {
	r.ops = append(r.ops, fmt.Sprintf("rgba %g %g %g %g", cr, cg, cb, ca))
}
func (r *recorder) SetLineWidth(w float64) { r.ops = append(r.ops, fmt.Sprintf("width %g", w)) }
func (r *recorder) MoveTo(x, y float64)    { r.ops = append(r.ops, fmt.Sprintf("move %g %g", x, y)) }
func (r *recorder) LineTo(x, y float64)    { r.ops = append(r.ops, fmt.Sprintf("line %g %g", x, y)) }
func (r *recorder) DrawRectangle(x, y, w, h float64) {
	r.ops = append(r.ops, fmt.Sprintf("rect %g %g %g %g", x, y, w, h))
}
func (r *recorder) Fill() error { r.ops = append(r.ops, "fill"); return nil }
func (r *recorder) Stroke() error {
	r.ops = append(r.ops, "stroke")
	return r.strokeErr
}

func (r *recorder) count(prefix string) int {
	n := 0
	for _, op := range r.ops {
		if strings.HasPrefix(op, prefix) {
			n++
		}
	}
	return n
}

func TestRenderBackgroundCoversSurface(t *testing.T) {
	rec := &recorder{w: 320, h: 200}
	if err := Render(rec, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := []string{"rgba 1 1 1 1", "rect 0 0 320 200", "fill"}
	if strings.Join(rec.ops, "|") != strings.Join(want, "|") {
		t.Fatalf("ops = %v, want %v", rec.ops, want)
	}
}

func TestRenderSkipsSinglePointStroke(t *testing.T) {
	m := sketch.NewModel()
	m.SetDrawingMode(true)
	m.BeginStroke(sketch.Pt(5, 5), 3, sketch.Black)

	rec := &recorder{w: 10, h: 10}
	if err := Render(rec, m.Strokes()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if n := rec.count("stroke"); n != 0 {
		t.Fatalf("single-point stroke was painted %d times", n)
	}
	if n := rec.count("move"); n != 0 {
		t.Fatalf("unexpected path for single-point stroke")
	}
}

func TestRenderPolylineAndPerStrokeState(t *testing.T) {
	strokes := []sketch.Stroke{
		{Points: []sketch.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 1}}, Width: 4, Color: sketch.RGBA(1, 0, 0, 1)},
		{Points: []sketch.Point{{X: 9, Y: 9}}, Width: 7, Color: sketch.RGBA(0, 1, 0, 1)},
		{Points: []sketch.Point{{X: 0, Y: 5}, {X: 5, Y: 0}}, Width: 1, Color: sketch.RGBA(0, 0, 1, 0.5)},
	}
	rec := &recorder{w: 10, h: 10}
	if err := Render(rec, strokes); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := []string{
		"rgba 1 1 1 1", "rect 0 0 10 10", "fill",
		"width 4", "rgba 1 0 0 1", "move 1 1", "line 2 2", "line 3 1", "stroke",
		"width 7", "rgba 0 1 0 1",
		"width 1", "rgba 0 0 1 0.5", "move 0 5", "line 5 0", "stroke",
	}
	if strings.Join(rec.ops, "|") != strings.Join(want, "|") {
		t.Fatalf("ops =\n%v\nwant\n%v", rec.ops, want)
	}
}

func TestRenderPropagatesStrokeError(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{w: 10, h: 10, strokeErr: boom}
	strokes := []sketch.Stroke{{Points: []sketch.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, Width: 1, Color: sketch.Black}}
	if err := Render(rec, strokes); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func sampleStrokes() []sketch.Stroke {
	return []sketch.Stroke{
		{Points: []sketch.Point{{X: 10, Y: 50}, {X: 90, Y: 50}}, Width: 8, Color: sketch.RGBA(1, 0, 0, 1)},
		{Points: []sketch.Point{{X: 50, Y: 10}, {X: 52, Y: 30}, {X: 48, Y: 90}}, Width: 3, Color: sketch.RGBA(0, 0, 1, 0.6)},
	}
}

func TestImagePixels(t *testing.T) {
	img, err := Image(sampleStrokes()[:1], 100, 100)
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("bounds = %v", b)
	}
	bg := color.NRGBAModel.Convert(img.At(5, 5)).(color.NRGBA)
	if bg != (color.NRGBA{255, 255, 255, 255}) {
		t.Fatalf("background pixel = %v, want white", bg)
	}
	c := color.NRGBAModel.Convert(img.At(50, 50)).(color.NRGBA)
	if c.R < 200 || c.G > 60 || c.B > 60 {
		t.Fatalf("line pixel = %v, want red", c)
	}
}

func TestImageIsDeterministic(t *testing.T) {
	a, err := Image(sampleStrokes(), 120, 80)
	if err != nil {
		t.Fatalf("Image a: %v", err)
	}
	b, err := Image(sampleStrokes(), 120, 80)
	if err != nil {
		t.Fatalf("Image b: %v", err)
	}
	if !samePixels(a, b) {
		t.Fatalf("two renders of the same strokes differ")
	}
}

func TestRenderPNG(t *testing.T) {
	img, data, err := RenderPNG(sampleStrokes(), 64, 48)
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 48 {
		t.Fatalf("size = %dx%d", cfg.Width, cfg.Height)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if !samePixels(img, decoded) {
		t.Fatalf("returned image differs from encoded PNG")
	}
	if _, _, err := RenderPNG(nil, 0, 5); !errors.Is(err, ErrEmptySurface) {
		t.Fatalf("err = %v, want ErrEmptySurface", err)
	}
}

func TestEmptySurface(t *testing.T) {
	if _, err := Image(nil, 0, 10); !errors.Is(err, ErrEmptySurface) {
		t.Fatalf("err = %v, want ErrEmptySurface", err)
	}
}

func samePixels(a, b image.Image) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	r := a.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if color.NRGBAModel.Convert(a.At(x, y)) != color.NRGBAModel.Convert(b.At(x, y)) {
				return false
			}
		}
	}
	return true
}
