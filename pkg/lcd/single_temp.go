// SPDX-License-Identifier: BSD-3-Clause

package lcd

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
)

// SingleTempRenderer renders one channel's single-temp LCD screen,
// reusing its background template across ticks and redrawing only the
// numeric overlay each tick.
type SingleTempRenderer struct {
	from, to   color.RGBA
	background *image.RGBA
	lastTemp   float64
	haveLast   bool
}

// NewSingleTempRenderer constructs a renderer with the given ring gradient
// colors. The background is rendered once, lazily, on first Render.
func NewSingleTempRenderer(from, to color.RGBA) *SingleTempRenderer {
	return &SingleTempRenderer{from: from, to: to}
}

// Render produces the PNG bytes for temp/label, or (nil, false, nil) if
// temp rounds to the same 0.1 degree value as the last render.
func (r *SingleTempRenderer) Render(temp float64, label string) ([]byte, bool, error) {
	rounded := math.Round(temp*10) / 10
	if r.haveLast && rounded == r.lastTemp {
		return nil, false, nil
	}

	if r.background == nil {
		r.background = RenderBackground(r.from, r.to)
	}
	framed := DrawText(r.background, FormatTemp(rounded), FormatLabel(label))

	var buf bytes.Buffer
	if err := png.Encode(&buf, framed); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	r.lastTemp = rounded
	r.haveLast = true
	return buf.Bytes(), true, nil
}
