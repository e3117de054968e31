/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ui hosts the desktop shell. The Fyne implementation is only compiled with
// -tags fyne (and cgo); other builds get a stub Run that explains how to enable it.
package ui

import (
	"sketchpad/internal/config"
	"sketchpad/internal/export"
	"sketchpad/internal/sketch"
)

// Options configures Run.
type Options struct {
	Config   config.AppConfig
	Exporter *export.Exporter // nil uses a plain PNG exporter without journal

	// OnClose receives the width and color in use when the window closes.
	OnClose func(width float64, c sketch.Color)
}
