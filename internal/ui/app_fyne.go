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
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"sketchpad/internal/crash"
	"sketchpad/internal/export"
	"sketchpad/internal/input"
	applog "sketchpad/internal/log"
	"sketchpad/internal/sketch"
)

// Run opens the sketch window and blocks until it is closed.
func Run(opts Options) error {
	cfg := opts.Config
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	col := cfg.Canvas.StrokeColor()
	in := input.New(input.Options{
		Width:    cfg.Canvas.DefaultWidth,
		Color:    &col,
		MinWidth: cfg.Canvas.MinWidth,
		MaxWidth: cfg.Canvas.MaxWidth,
		Armed:    cfg.Canvas.StartArmed,
	})
	sc := NewSketchCanvas(in)
	in.OnChange = sc.Refresh
	defer crash.Recover(&crash.State{Strokes: in.Strokes, Size: sc.PixelSize})

	exp := opts.Exporter
	if exp == nil {
		exp = &export.Exporter{ThumbSize: cfg.Export.ThumbSize}
	}

	fyneApp := app.NewWithID("sketchpad")
	w := fyneApp.NewWindow(cfg.Window.Title)
	w.Resize(fyne.NewSize(float32(cfg.Window.Width), float32(cfg.Window.Height)))

	status := widget.NewLabel("")
	status.Wrapping = fyne.TextWrapWord

	var drawBtn *widget.Button
	syncDrawBtn := func() {
		if in.DrawingMode() {
			drawBtn.Importance = widget.HighImportance
		} else {
			drawBtn.Importance = widget.MediumImportance
		}
		drawBtn.Refresh()
	}
	drawBtn = widget.NewButton("Draw", func() {
		on := in.ToggleDrawing()
		l.Info("draw toggled", slog.Bool("armed", on))
		syncDrawBtn()
	})
	syncDrawBtn()

	undoBtn := widget.NewButton("Remove last line", func() { in.Undo() })
	clearBtn := widget.NewButton("Clear", func() { in.Clear() })

	widthLabel := widget.NewLabel("")
	setWidthLabel := func(v float64) { widthLabel.SetText(fmt.Sprintf("Width: %.0f", v)) }
	slider := widget.NewSlider(cfg.Canvas.MinWidth, cfg.Canvas.MaxWidth)
	slider.Step = 1
	slider.Value = in.Width()
	setWidthLabel(slider.Value)
	slider.OnChanged = func(v float64) { setWidthLabel(in.SetWidth(v)) }

	swatch := canvas.NewRectangle(col.NRGBA())
	swatch.SetMinSize(fyne.NewSize(24, 24))
	swatch.StrokeColor = color.Gray{Y: 120}
	swatch.StrokeWidth = 1
	colorBtn := widget.NewButton("Color…", func() {
		picker := dialog.NewColorPicker("Stroke color", "Color for new lines", func(c color.Color) {
			picked := sketch.FromColor(c)
			in.SetColor(picked)
			swatch.FillColor = picked.NRGBA()
			swatch.Refresh()
			l.Debug("color picked", slog.String("color", picked.Hex()))
		}, w)
		picker.Advanced = true
		picker.SetColor(in.Color().NRGBA())
		picker.Show()
	})

	saveBtn := widget.NewButton("Save Image", func() {
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			chosen := uc.URI().Path()
			_ = uc.Close()
			pw, ph := sc.PixelSize()
			path, err := exp.Export(context.Background(), export.Request{
				Name:    chosen,
				Filter:  export.PNGFilterName,
				Strokes: in.Strokes(),
				Width:   pw,
				Height:  ph,
			})
			if path != chosen {
				discardPlaceholder(chosen)
			}
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Saved " + filepath.Base(path))
		}, w)
		save.SetFileName(cfg.Export.DefaultName)
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{".png"}))
		if cfg.Export.Dir != "" {
			if lister, err := fstorage.ListerForURI(fstorage.NewFileURI(cfg.Export.Dir)); err == nil {
				save.SetLocation(lister)
			}
		}
		save.Show()
	})

	quitBtn := widget.NewButton("Quit", func() { fyneApp.Quit() })

	toolbar := container.NewVBox(
		drawBtn,
		undoBtn,
		clearBtn,
		saveBtn,
		widget.NewSeparator(),
		widthLabel,
		slider,
		container.NewHBox(swatch, colorBtn),
		widget.NewSeparator(),
		quitBtn,
		status,
	)

	w.SetContent(container.NewBorder(nil, nil, nil, container.NewPadded(toolbar), sc))
	w.ShowAndRun()
	l.Info("UI closed", slog.Int("strokes", in.Len()))
	if opts.OnClose != nil {
		opts.OnClose(in.Width(), in.Color())
	}
	return nil
}

// discardPlaceholder removes the empty file the save dialog creates when the image was
// written elsewhere or rejected.
func discardPlaceholder(path string) {
	if fi, err := os.Stat(path); err == nil && fi.Size() == 0 {
		_ = os.Remove(path)
	}
}
