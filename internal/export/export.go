/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes drawings to PNG files and records them in the export journal.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	applog "sketchpad/internal/log"
	"sketchpad/internal/render"
	"sketchpad/internal/sketch"
	"sketchpad/internal/storage"
)

const (
	// PNGFilterName is the save-dialog filter label that implies a .png extension.
	PNGFilterName = "PNG images"
	// DefaultFileName is suggested by the save dialog.
	DefaultFileName = "untitled.png"
	// DefaultThumbSize bounds the journal thumbnail's longer edge.
	DefaultThumbSize = 128
)

// ErrUnsupportedFormat is returned when the resolved file extension is not png.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ResolvePath infers the output file name. A name without extension gets ".png" when the
// selected filter is PNGFilterName. Any resolved extension other than png (case-insensitive)
// yields ErrUnsupportedFormat.
func ResolvePath(name, filter string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty file name", ErrUnsupportedFormat)
	}
	ext := filepath.Ext(name)
	if ext == "" || ext == "." {
		if filter != PNGFilterName {
			return "", fmt.Errorf("%w: no extension", ErrUnsupportedFormat)
		}
		return strings.TrimSuffix(name, ".") + ".png", nil
	}
	if !strings.EqualFold(ext, ".png") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, strings.TrimPrefix(ext, "."))
	}
	return name, nil
}

// PNG renders strokes onto a fresh width x height surface and writes it to path.
func PNG(path string, strokes []sketch.Stroke, width, height int) error {
	_, err := WritePNG(path, strokes, width, height)
	return err
}

// WritePNG renders strokes, writes the PNG to path and returns the rendered image.
// The image is encoded before path is touched and then moved into place, so a failed
// export leaves an existing file at path intact.
func WritePNG(path string, strokes []sketch.Stroke, width, height int) (image.Image, error) {
	img, data, err := render.RenderPNG(strokes, width, height)
	if err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create png: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("write png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("close png: %w", err)
	}
	// CreateTemp uses 0600; exported images are ordinary user files.
	_ = os.Chmod(tmp.Name(), 0o644)
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("replace png: %w", err)
	}
	return img, nil
}

// Writer writes one image file and returns what it rendered. A nil image is allowed;
// the journal thumbnail is then rendered separately.
type Writer func(path string, strokes []sketch.Stroke, width, height int) (image.Image, error)

// Journal receives an entry for every successful export.
type Journal interface {
	Record(ctx context.Context, e storage.Entry) (storage.Entry, error)
}

// Request describes one export.
type Request struct {
	Name    string // as typed in the save dialog, may lack an extension
	Filter  string
	Strokes []sketch.Stroke
	Width   int
	Height  int
}

// Exporter resolves, writes and journals exports.
//   - Write defaults to PNG.
//   - Journal may be nil to disable journaling.
//   - Dir, when set, is prepended to relative names.
type Exporter struct {
	Write     Writer
	Journal   Journal
	Dir       string
	ThumbSize int
}

// Export writes req and returns the final path. Journal failures are logged, not returned,
// since the image is already on disk by then.
func (x *Exporter) Export(ctx context.Context, req Request) (string, error) {
	l := applog.WithOperation(applog.WithComponent("export"), "png").With(slog.String("name", req.Name))
	path, err := ResolvePath(req.Name, req.Filter)
	if err != nil {
		l.Warn("export rejected", slog.Any("err", err))
		return "", err
	}
	if x.Dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(x.Dir, path)
	}
	write := x.Write
	if write == nil {
		write = WritePNG
	}
	img, err := write(path, req.Strokes, req.Width, req.Height)
	if err != nil {
		l.Error("export failed", slog.String("path", path), slog.Any("err", err))
		return "", err
	}
	l.Info("exported", slog.String("path", path), slog.Int("strokes", len(req.Strokes)),
		slog.Int("w", req.Width), slog.Int("h", req.Height))

	if x.Journal == nil {
		return path, nil
	}
	entry := storage.Entry{Path: path, Width: req.Width, Height: req.Height, Strokes: len(req.Strokes)}
	if thumb, err := x.thumbnail(img, req); err != nil {
		l.Warn("thumbnail failed", slog.Any("err", err))
	} else {
		entry.Thumb = thumb
	}
	if _, err := x.Journal.Record(ctx, entry); err != nil {
		l.Warn("journal record failed", slog.Any("err", err))
	}
	return path, nil
}

func (x *Exporter) thumbnail(img image.Image, req Request) ([]byte, error) {
	size := x.ThumbSize
	if size <= 0 {
		size = DefaultThumbSize
	}
	if img == nil {
		var err error
		if img, err = render.Image(req.Strokes, req.Width, req.Height); err != nil {
			return nil, err
		}
	}
	return Thumbnail(img, size)
}
