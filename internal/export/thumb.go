/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// Thumbnail scales img to fit inside size x size, keeping its aspect ratio, and returns
// PNG bytes. Images already small enough are encoded unscaled.
func Thumbnail(img image.Image, size int) ([]byte, error) {
	if img == nil {
		return nil, errors.New("thumbnail: nil image")
	}
	b := img.Bounds()
	if b.Empty() || size <= 0 {
		return nil, errors.New("thumbnail: empty bounds")
	}
	w, h := fitWithin(b.Dx(), b.Dy(), size)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		xdraw.Copy(dst, image.Point{}, img, b, xdraw.Src, nil)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func fitWithin(w, h, size int) (int, int) {
	if w <= size && h <= size {
		return w, h
	}
	if w >= h {
		return size, max(1, h*size/w)
	}
	return max(1, w*size/h), size
}
