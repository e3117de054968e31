//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests exercise the Fyne canvas widget. They are gated behind the "fyne" build tag
// so headless CI does not need Fyne or a display. To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"

	"sketchpad/internal/input"
)

func mouse(x, y float32, b desktop.MouseButton) *desktop.MouseEvent {
	return &desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}, Button: b}
}

func drag(x, y float32) *fyne.DragEvent {
	return &fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}}
}

func TestSketchCanvas_DragDrawsStroke(t *testing.T) {
	test.NewApp()
	in := input.New(input.Options{Armed: true})
	sc := NewSketchCanvas(in)
	sc.Resize(fyne.NewSize(100, 80))

	sc.MouseDown(mouse(10, 10, desktop.MouseButtonPrimary))
	sc.Dragged(drag(20, 15))
	sc.Dragged(drag(30, 20))
	sc.DragEnd()
	sc.Dragged(drag(90, 90))

	s := in.Strokes()
	if len(s) != 1 || len(s[0].Points) != 3 {
		t.Fatalf("strokes = %+v", s)
	}
	if s[0].Points[2].X != 30 || s[0].Points[2].Y != 20 {
		t.Fatalf("last point = %+v", s[0].Points[2])
	}
}

func TestSketchCanvas_SecondaryButtonIgnored(t *testing.T) {
	test.NewApp()
	in := input.New(input.Options{Armed: true})
	sc := NewSketchCanvas(in)
	sc.MouseDown(mouse(10, 10, desktop.MouseButtonSecondary))
	sc.Dragged(drag(20, 20))
	if in.Len() != 0 {
		t.Fatalf("secondary drag drew %d strokes", in.Len())
	}
}

func TestSketchCanvas_GenerateMatchesSize(t *testing.T) {
	test.NewApp()
	in := input.New(input.Options{Armed: true})
	sc := NewSketchCanvas(in)
	sc.Resize(fyne.NewSize(64, 48))
	img := sc.generate(128, 96)
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Fatalf("bounds = %v", b)
	}
	r, g, b, _ := img.At(5, 5).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Fatalf("expected white background, got %v", color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 255})
	}
	if w, h := sc.PixelSize(); w != 64 || h != 48 {
		t.Fatalf("PixelSize = %dx%d", w, h)
	}
}

func TestDiscardPlaceholder(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "drawing")
	full := filepath.Join(dir, "keep.jpg")
	_ = os.WriteFile(empty, nil, 0o644)
	_ = os.WriteFile(full, []byte("data"), 0o644)
	discardPlaceholder(empty)
	discardPlaceholder(full)
	if _, err := os.Stat(empty); !os.IsNotExist(err) {
		t.Fatalf("empty placeholder kept: %v", err)
	}
	if _, err := os.Stat(full); err != nil {
		t.Fatalf("non-empty file removed: %v", err)
	}
}
