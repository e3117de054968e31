//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"
	"image/color"
	"image/draw"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"sketchpad/internal/input"
	applog "sketchpad/internal/log"
	"sketchpad/internal/render"
	"sketchpad/internal/sketch"
)

// SketchCanvas shows the drawing and feeds pointer events into an input.Adapter.
// Stroke coordinates are in canvas units, so the on-screen raster and an export at
// PixelSize match.
type SketchCanvas struct {
	widget.BaseWidget

	in     *input.Adapter
	raster *canvas.Raster
	log    *slog.Logger
}

var (
	_ desktop.Mouseable = (*SketchCanvas)(nil)
	_ fyne.Draggable    = (*SketchCanvas)(nil)
)

func NewSketchCanvas(in *input.Adapter) *SketchCanvas {
	c := &SketchCanvas{in: in, log: applog.WithComponent("canvas")}
	c.raster = canvas.NewRaster(c.generate)
	c.ExtendBaseWidget(c)
	return c
}

// generate renders at the widget's logical size; Fyne scales the raster to device pixels.
func (c *SketchCanvas) generate(_, _ int) image.Image {
	w, h := c.PixelSize()
	img, err := render.Image(c.in.Strokes(), w, h)
	if err != nil {
		c.log.Warn("render failed", slog.Any("err", err))
		blank := image.NewNRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
		draw.Draw(blank, blank.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
		return blank
	}
	return img
}

// PixelSize is the export size matching what the user sees.
func (c *SketchCanvas) PixelSize() (int, int) {
	sz := c.Size()
	return max(int(sz.Width), 1), max(int(sz.Height), 1)
}

func (c *SketchCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &sketchRenderer{c: c}
}

func toPoint(p fyne.Position) sketch.Point {
	return sketch.Pt(float64(p.X), float64(p.Y))
}

func toButton(b desktop.MouseButton) input.Button {
	switch {
	case b&desktop.MouseButtonPrimary != 0:
		return input.Primary
	case b&desktop.MouseButtonSecondary != 0:
		return input.Secondary
	}
	return input.Tertiary
}

func (c *SketchCanvas) MouseDown(e *desktop.MouseEvent) {
	c.in.Press(toButton(e.Button), toPoint(e.Position))
}

func (c *SketchCanvas) MouseUp(e *desktop.MouseEvent) {
	c.in.Release(toButton(e.Button))
}

func (c *SketchCanvas) Dragged(e *fyne.DragEvent) {
	c.in.Motion(toPoint(e.Position))
}

func (c *SketchCanvas) DragEnd() {
	c.in.Release(input.Primary)
}

type sketchRenderer struct {
	c *SketchCanvas
}

func (r *sketchRenderer) Destroy()                     {}
func (r *sketchRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.c.raster} }
func (r *sketchRenderer) MinSize() fyne.Size           { return fyne.NewSize(200, 200) }
func (r *sketchRenderer) Refresh()                     { canvas.Refresh(r.c.raster) }

func (r *sketchRenderer) Layout(size fyne.Size) {
	r.c.raster.Move(fyne.NewPos(0, 0))
	r.c.raster.Resize(size)
}
