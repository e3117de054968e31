/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/gogpu/gg"
	"gopkg.in/yaml.v3"

	"sketchpad/internal/config"
	"sketchpad/internal/export"
	applog "sketchpad/internal/log"
	"sketchpad/internal/sketch"
	"sketchpad/internal/storage"
	"sketchpad/internal/ui"
	"sketchpad/internal/version"
)

func usage(out io.Writer) {
	_, _ = fmt.Fprintln(out, "Sketchpad")
	_, _ = fmt.Fprintf(out, "Version: %s\n", version.String())
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Usage:")
	_, _ = fmt.Fprintln(out, "  sketchpad version|-v|--version     Show version")
	_, _ = fmt.Fprintln(out, "  sketchpad ui                       Launch desktop UI (build with -tags fyne)")
	_, _ = fmt.Fprintln(out, "  sketchpad exports [n]              List the n most recent exports (default 10)")
	_, _ = fmt.Fprintln(out, "  sketchpad exports show <id>        Show one export from the journal")
	_, _ = fmt.Fprintln(out, "  sketchpad config                   Print the effective configuration")
	_, _ = fmt.Fprintln(out, "  sketchpad render <out.png> [w h]   Write an empty canvas as PNG")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Flags:")
	_, _ = fmt.Fprintln(out, "  --debug                            Log at debug level")
}

// run executes one CLI command and returns the process exit code.
func run(args []string, out io.Writer) int {
	debug := false
	if len(args) > 0 && args[0] == "--debug" {
		debug = true
		args = args[1:]
	}
	if len(args) > 0 {
		switch args[0] {
		case "version", "--version", "-v":
			_, _ = fmt.Fprintln(out, "Sketchpad")
			_, _ = fmt.Fprintln(out, version.String())
			return 0
		case "help", "-h", "--help":
			usage(out)
			return 0
		}
	}

	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	defer func() { _ = applog.Close() }()
	if debug {
		applog.SetLevel("debug")
	}
	gg.SetLogger(applog.WithComponent("gg"))
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config file ignored", slog.Any("err", cfgErr))
	}
	l.Debug("start", slog.Int("args", len(args)))

	if len(args) == 0 {
		usage(out)
		return 2
	}
	ctx := context.Background()

	switch args[0] {
	case "ui":
		return cmdUI(ctx, cfg, out, l)
	case "exports":
		if len(args) > 1 && args[1] == "show" {
			if len(args) < 3 {
				_, _ = fmt.Fprintln(out, "exports show requires <id>")
				return 2
			}
			return cmdExportShow(ctx, cfg, args[2], out, l)
		}
		n := 10
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil || v < 0 {
				_, _ = fmt.Fprintln(out, "exports expects a non-negative count")
				return 2
			}
			n = v
		}
		return cmdExports(ctx, cfg, n, out, l)
	case "config":
		return cmdConfig(cfg, out)
	case "render":
		if len(args) < 2 {
			_, _ = fmt.Fprintln(out, "render requires <out.png>")
			usage(out)
			return 2
		}
		w, h := cfg.Window.Width, cfg.Window.Height
		if len(args) >= 4 {
			pw, err1 := strconv.Atoi(args[2])
			ph, err2 := strconv.Atoi(args[3])
			if err1 != nil || err2 != nil || pw <= 0 || ph <= 0 {
				_, _ = fmt.Fprintln(out, "render expects positive integer width and height")
				return 2
			}
			w, h = pw, ph
		}
		return cmdRender(ctx, cfg, args[1], w, h, out, l)
	}
	usage(out)
	return 2
}

// openJournal returns nil without error when journaling is disabled.
func openJournal(ctx context.Context, cfg config.AppConfig) (*storage.Journal, error) {
	if !cfg.Export.Journal {
		return nil, nil
	}
	path, err := cfg.Export.JournalFile()
	if err != nil {
		return nil, err
	}
	return storage.Open(ctx, path)
}

func newExporter(cfg config.AppConfig, j *storage.Journal) *export.Exporter {
	x := &export.Exporter{Dir: cfg.Export.Dir, ThumbSize: cfg.Export.ThumbSize}
	if j != nil {
		x.Journal = j
	}
	return x
}

func cmdUI(ctx context.Context, cfg config.AppConfig, out io.Writer, l *slog.Logger) int {
	j, err := openJournal(ctx, cfg)
	if err != nil {
		l.Warn("export journal unavailable", slog.Any("err", err))
	}
	if j != nil {
		defer func() {
			if cfg.Export.JournalKeep > 0 {
				if n, err := j.Prune(ctx, cfg.Export.JournalKeep); err != nil {
					l.Warn("journal prune failed", slog.Any("err", err))
				} else if n > 0 {
					l.Info("journal pruned", slog.Int64("removed", n))
				}
			}
			_ = j.Close()
		}()
	}
	opts := ui.Options{
		Config:   cfg,
		Exporter: newExporter(cfg, j),
		OnClose: func(width float64, c sketch.Color) {
			if err := rememberCanvas(cfg, width, c); err != nil {
				l.Warn("saving canvas settings failed", slog.Any("err", err))
			}
		},
	}
	if err := ui.Run(opts); err != nil {
		_, _ = fmt.Fprintln(out, "Error:", err)
		return 1
	}
	return 0
}

func cmdExports(ctx context.Context, cfg config.AppConfig, n int, out io.Writer, l *slog.Logger) int {
	if !cfg.Export.Journal {
		_, _ = fmt.Fprintln(out, "Export journal is disabled.")
		return 0
	}
	j, err := openJournal(ctx, cfg)
	if err != nil {
		l.Error("open journal failed", slog.Any("err", err))
		_, _ = fmt.Fprintln(out, "Error:", err)
		return 1
	}
	defer func() { _ = j.Close() }()
	entries, err := j.Recent(ctx, n)
	if err != nil {
		_, _ = fmt.Fprintln(out, "Error:", err)
		return 1
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "No exports yet.")
		return 0
	}
	for _, e := range entries {
		_, _ = fmt.Fprintf(out, "%s  %s  %4dx%-4d  %3d strokes  %s\n",
			e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Width, e.Height, e.Strokes, e.Path)
	}
	return 0
}

func cmdExportShow(ctx context.Context, cfg config.AppConfig, id string, out io.Writer, l *slog.Logger) int {
	if !cfg.Export.Journal {
		_, _ = fmt.Fprintln(out, "Export journal is disabled.")
		return 0
	}
	j, err := openJournal(ctx, cfg)
	if err != nil {
		l.Error("open journal failed", slog.Any("err", err))
		_, _ = fmt.Fprintln(out, "Error:", err)
		return 1
	}
	defer func() { _ = j.Close() }()
	e, ok, err := j.Get(ctx, id)
	if err != nil {
		_, _ = fmt.Fprintln(out, "Error:", err)
		return 1
	}
	if !ok {
		_, _ = fmt.Fprintf(out, "No export with id %s.\n", id)
		return 1
	}
	_, _ = fmt.Fprintf(out, "ID:        %s\n", e.ID)
	_, _ = fmt.Fprintf(out, "Path:      %s\n", e.Path)
	_, _ = fmt.Fprintf(out, "Size:      %dx%d\n", e.Width, e.Height)
	_, _ = fmt.Fprintf(out, "Strokes:   %d\n", e.Strokes)
	_, _ = fmt.Fprintf(out, "Created:   %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(out, "Thumbnail: %d bytes\n", len(e.Thumb))
	return 0
}

// rememberCanvas stores the last width and color as defaults for the next session.
// Nothing is written when they match the effective configuration.
func rememberCanvas(cfg config.AppConfig, width float64, c sketch.Color) error {
	hex := c.Hex()
	if width == cfg.Canvas.DefaultWidth && hex == cfg.Canvas.StrokeColor().Hex() {
		return nil
	}
	return config.Update(func(fc *config.AppConfig) {
		fc.Canvas.DefaultWidth = width
		fc.Canvas.DefaultColor = hex
	})
}

func cmdConfig(cfg config.AppConfig, out io.Writer) int {
	if p, err := config.Path(); err == nil {
		_, _ = fmt.Fprintf(out, "# %s\n", p)
	}
	for _, key := range []string{"canvas.default_width", "canvas.default_color", "export.dir", "export.journal", "logging.level"} {
		if env, ok := config.EnvOverrideFor(key); ok {
			_, _ = fmt.Fprintf(out, "# %s overridden by %s\n", key, env)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		_, _ = fmt.Fprintln(out, "Error:", err)
		return 1
	}
	_, _ = out.Write(data)
	return 0
}

func cmdRender(ctx context.Context, cfg config.AppConfig, name string, w, h int, out io.Writer, l *slog.Logger) int {
	j, err := openJournal(ctx, cfg)
	if err != nil {
		l.Warn("export journal unavailable", slog.Any("err", err))
	}
	if j != nil {
		defer func() { _ = j.Close() }()
	}
	path, err := newExporter(cfg, j).Export(ctx, export.Request{
		Name:   name,
		Filter: export.PNGFilterName,
		Width:  w,
		Height: h,
	})
	if err != nil {
		if errors.Is(err, export.ErrUnsupportedFormat) {
			_, _ = fmt.Fprintln(out, "Only PNG export is supported:", err)
			return 2
		}
		_, _ = fmt.Fprintln(out, "Error:", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, "Wrote", path)
	return 0
}
