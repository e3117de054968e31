/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sketchpad/internal/sketch"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)
	for _, k := range []string{EnvDefaultWidth, EnvDefaultColor, EnvExportDir, EnvJournal, EnvJournalPath, EnvLogLevel, EnvLogFormat, EnvLogSource, EnvLogFile} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Canvas.DefaultWidth != 1 || cfg.Canvas.DefaultColor != "#000000" {
		t.Fatalf("canvas defaults: %+v", cfg.Canvas)
	}
	if cfg.Canvas.MinWidth != 1 || cfg.Canvas.MaxWidth != 10 {
		t.Fatalf("width range: %+v", cfg.Canvas)
	}
	if cfg.Window.Width != 600 || cfg.Window.Height != 600 {
		t.Fatalf("window: %+v", cfg.Window)
	}
	if cfg.Export.DefaultName != "untitled.png" || !cfg.Export.Journal || cfg.Export.ThumbSize != 128 {
		t.Fatalf("export: %+v", cfg.Export)
	}
	if cfg.Canvas.StrokeColor() != sketch.Black {
		t.Fatalf("stroke color: %+v", cfg.Canvas.StrokeColor())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	isolate(t)
	cfg := Defaults()
	cfg.Canvas.DefaultWidth = 4
	cfg.Canvas.DefaultColor = "#ff0000"
	cfg.Export.Journal = false
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Canvas.DefaultWidth != 4 || got.Canvas.DefaultColor != "#ff0000" || got.Export.Journal {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("canvas:\n  default_width: 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Canvas.DefaultWidth != 3 {
		t.Fatalf("width = %v", cfg.Canvas.DefaultWidth)
	}
	if cfg.Canvas.MaxWidth != 10 || cfg.Export.DefaultName != "untitled.png" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestInvalidFileIgnored(t *testing.T) {
	dir := isolate(t)
	bad := "canvas:\n  default_color: not-a-color\n  default_width: 5\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(bad), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if cfg.Canvas.DefaultWidth != 1 || cfg.Canvas.DefaultColor != "#000000" {
		t.Fatalf("invalid file should not be applied: %+v", cfg.Canvas)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		ok   bool
	}{
		{"empty", "", true},
		{"good", "logging:\n  level: debug\nexport:\n  thumb_size: 64\n", true},
		{"bad level", "logging:\n  level: loud\n", false},
		{"zero width", "canvas:\n  default_width: 0\n", false},
		{"tiny window", "window:\n  width: 10\n", false},
		{"broken yaml", "canvas: [\n", false},
	}
	for _, tc := range cases {
		err := Validate([]byte(tc.doc))
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", tc.name, err)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvDefaultWidth, "7")
	t.Setenv(EnvDefaultColor, "#00ff00")
	t.Setenv(EnvJournal, "off")
	t.Setenv(EnvLogLevel, "DEBUG")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Canvas.DefaultWidth != 7 || cfg.Canvas.DefaultColor != "#00ff00" {
		t.Fatalf("canvas overrides: %+v", cfg.Canvas)
	}
	if cfg.Export.Journal {
		t.Fatalf("journal should be disabled")
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
	if env, ok := EnvOverrideFor("canvas.default_width"); !ok || env != EnvDefaultWidth {
		t.Fatalf("EnvOverrideFor = %q %v", env, ok)
	}
	if _, ok := EnvOverrideFor("window.width"); ok {
		t.Fatalf("window.width has no override")
	}
}

func TestDefaultWidthClampedToRange(t *testing.T) {
	isolate(t)
	t.Setenv(EnvDefaultWidth, "42")
	cfg, _ := Load()
	if cfg.Canvas.DefaultWidth != 10 {
		t.Fatalf("width = %v, want 10", cfg.Canvas.DefaultWidth)
	}
}

func TestJournalFile(t *testing.T) {
	dir := isolate(t)
	p, err := Defaults().Export.JournalFile()
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join(dir, "exports.sqlite") {
		t.Fatalf("journal path = %q", p)
	}
	e := ExportConfig{JournalPath: "/tmp/x.sqlite"}
	if p, _ := e.JournalFile(); p != "/tmp/x.sqlite" {
		t.Fatalf("explicit path = %q", p)
	}
}

func TestUpdateKeepsFileValuesAndSkipsEnv(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("window:\n  width: 800\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvLogLevel, "debug")
	if err := Update(func(c *AppConfig) { c.Canvas.DefaultWidth = 6 }); err != nil {
		t.Fatalf("Update: %v", err)
	}
	t.Setenv(EnvLogLevel, "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Canvas.DefaultWidth != 6 || cfg.Window.Width != 800 {
		t.Fatalf("update lost values: %+v", cfg)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("env override was persisted: level=%q", cfg.Logging.Level)
	}
}

func TestUpdateRefusesInvalidFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	bad := []byte("logging:\n  level: loud\n")
	if err := os.WriteFile(path, bad, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := Update(func(c *AppConfig) { c.Canvas.DefaultWidth = 2 }); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != string(bad) {
		t.Fatalf("invalid file was overwritten: %q", got)
	}
}
