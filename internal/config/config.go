/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration from a YAML file in the per-user config
// directory. The file is checked against an embedded JSON schema before it is applied;
// environment variables override file values at runtime.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"sketchpad/internal/sketch"
)

//go:embed schema.json
var schemaJSON []byte

type CanvasConfig struct {
	DefaultWidth float64 `yaml:"default_width"`
	DefaultColor string  `yaml:"default_color"` // #rrggbb or #rrggbbaa
	MinWidth     float64 `yaml:"min_width"`
	MaxWidth     float64 `yaml:"max_width"`
	StartArmed   bool    `yaml:"start_armed"`
}

type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type ExportConfig struct {
	DefaultName string `yaml:"default_name"`
	Dir         string `yaml:"dir"`
	Journal     bool   `yaml:"journal"`
	JournalPath string `yaml:"journal_path"` // empty: <config dir>/exports.sqlite
	JournalKeep int    `yaml:"journal_keep"`
	ThumbSize   int    `yaml:"thumb_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// AppConfig is the user-editable configuration.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Window        WindowConfig  `yaml:"window"`
	Export        ExportConfig  `yaml:"export"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Canvas:        CanvasConfig{DefaultWidth: 1, DefaultColor: "#000000", MinWidth: 1, MaxWidth: 10},
		Window:        WindowConfig{Title: "Sketchpad", Width: 600, Height: 600},
		Export:        ExportConfig{DefaultName: "untitled.png", Journal: true, JournalKeep: 200, ThumbSize: 128},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigDir    = "SKP_CONFIG_DIR"
	EnvDefaultWidth = "SKP_DEFAULT_WIDTH"
	EnvDefaultColor = "SKP_DEFAULT_COLOR"
	EnvExportDir    = "SKP_EXPORT_DIR"
	EnvJournal      = "SKP_JOURNAL"
	EnvJournalPath  = "SKP_JOURNAL_PATH"
	EnvLogLevel     = "SKP_LOG_LEVEL"
	EnvLogFormat    = "SKP_LOG_FORMAT"
	EnvLogSource    = "SKP_LOG_SOURCE"
	EnvLogFile      = "SKP_LOG_FILE"
)

// ErrInvalid wraps schema violations found in a config file.
var ErrInvalid = errors.New("invalid config")

// Dir returns the per-user configuration directory.
func Dir() (string, error) {
	if d := strings.TrimSpace(os.Getenv(EnvConfigDir)); d != "" {
		return d, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "sketchpad"), nil
}

// Path returns the config file location.
func Path() (string, error) {
	d, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

// Load reads the config file if present, validates it, and applies env overrides.
// A missing file is not an error. An invalid file is reported with ErrInvalid while the
// returned config still carries defaults plus env overrides, so callers can keep going.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := Path()
	if err != nil {
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	var fileErr error
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if fileErr = Validate(data); fileErr == nil {
			fileCfg := Defaults()
			if err := yaml.Unmarshal(data, &fileCfg); err != nil {
				fileErr = fmt.Errorf("%w: %v", ErrInvalid, err)
			} else {
				cfg = fileCfg
			}
		}
	case !errors.Is(err, os.ErrNotExist):
		fileErr = fmt.Errorf("read config: %w", err)
	}
	applyEnvOverrides(&cfg)
	cfg.normalize()
	return cfg, fileErr
}

// Save writes cfg as YAML to Path().
func Save(cfg AppConfig) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Update applies fn to the configuration stored on disk and saves it. Env overrides are
// not baked into the file. An invalid file is left untouched and reported with ErrInvalid.
func Update(fn func(*AppConfig)) error {
	path, err := Path()
	if err != nil {
		return err
	}
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := Validate(data); err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("read config: %w", err)
	}
	fn(&cfg)
	return Save(cfg)
}

// Validate checks a YAML document against the embedded JSON schema.
func Validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if doc == nil {
		return nil
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(js))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}
	return nil
}

// StrokeColor parses the default color, falling back to black.
func (c CanvasConfig) StrokeColor() sketch.Color {
	col, err := sketch.ParseHex(c.DefaultColor)
	if err != nil {
		return sketch.Black
	}
	return col
}

// JournalFile resolves the export journal database path.
func (e ExportConfig) JournalFile() (string, error) {
	if p := strings.TrimSpace(e.JournalPath); p != "" {
		return p, nil
	}
	d, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "exports.sqlite"), nil
}

// normalize keeps the width range sane and the default width inside it.
func (cfg *AppConfig) normalize() {
	c := &cfg.Canvas
	if c.MinWidth <= 0 {
		c.MinWidth = 1
	}
	if c.MaxWidth < c.MinWidth {
		c.MaxWidth = c.MinWidth
	}
	c.DefaultWidth = min(max(c.DefaultWidth, c.MinWidth), c.MaxWidth)
	if strings.TrimSpace(cfg.Export.DefaultName) == "" {
		cfg.Export.DefaultName = Defaults().Export.DefaultName
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDefaultWidth)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Canvas.DefaultWidth = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvDefaultColor)); v != "" {
		if _, err := sketch.ParseHex(v); err == nil {
			cfg.Canvas.DefaultColor = v
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportDir)); v != "" {
		cfg.Export.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournal)); v != "" {
		cfg.Export.Journal = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournalPath)); v != "" {
		cfg.Export.JournalPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor reports the env var currently overriding a dotted config key.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"canvas.default_width": EnvDefaultWidth,
		"canvas.default_color": EnvDefaultColor,
		"export.dir":           EnvExportDir,
		"export.journal":       EnvJournal,
		"export.journal_path":  EnvJournalPath,
		"logging.level":        EnvLogLevel,
		"logging.format":       EnvLogFormat,
		"logging.source":       EnvLogSource,
		"logging.file":         EnvLogFile,
	}
	if env, ok := names[key]; ok && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
