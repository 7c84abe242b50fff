// SPDX-License-Identifier: BSD-3-Clause

package lcd

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// maxLabelLen is the label truncation bound.
const maxLabelLen = 8

// specialLabelPrefixes are emitted verbatim instead of being truncated.
var specialLabelPrefixes = []string{"CPU", "GPU", "Δ"}

// FormatLabel truncates label to maxLabelLen characters, unless it starts
// with one of the special prefixes CPU/GPU/Δ, which are kept whole.
func FormatLabel(label string) string {
	for _, prefix := range specialLabelPrefixes {
		if strings.HasPrefix(label, prefix) {
			return label
		}
	}
	runes := []rune(label)
	if len(runes) > maxLabelLen {
		return string(runes[:maxLabelLen])
	}
	return label
}

// FormatTemp renders a temperature to its whole/dot/decimal/degree-sign
// display form, e.g. 62.3 -> "62.3°".
func FormatTemp(temp float64) string {
	whole := int(temp)
	decimal := int(temp*10) - whole*10
	if decimal < 0 {
		decimal = -decimal
	}
	return fmt.Sprintf("%d.%d°", whole, decimal)
}

// DrawText overlays temp (large, centered) and label (small, below) onto a
// copy of background using a fixed-width bitmap font, matching the
// teacher's monospace-console aesthetic elsewhere in the daemon's CLI
// output.
func DrawText(background *image.RGBA, temp string, label string) *image.RGBA {
	img := image.NewRGBA(background.Bounds())
	draw.Draw(img, img.Bounds(), background, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	drawCenteredString(img, face, temp, ScreenSize/2, ScreenSize/2, white, 3)
	if label != "" {
		drawCenteredString(img, face, label, ScreenSize/2, ScreenSize/2+40, white, 1)
	}
	return img
}

// drawCenteredString draws s horizontally centered at x, with baseline y,
// scaled by an integer factor (basicfont has no native scaling; scale is
// achieved by drawing the glyph mask at an enlarged size).
func drawCenteredString(img *image.RGBA, face font.Face, s string, x, y int, col color.Color, scale int) {
	width := font.MeasureString(face, s).Ceil() * scale
	startX := x - width/2

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(startX, y),
	}
	if scale <= 1 {
		d.DrawString(s)
		return
	}

	// Render at native size into a scratch buffer, then nearest-neighbor
	// upscale into img, since basicfont has no native scaled variant.
	nativeWidth := font.MeasureString(face, s).Ceil()
	scratch := image.NewRGBA(image.Rect(0, 0, nativeWidth+2, 20))
	sd := &font.Drawer{
		Dst:  scratch,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(0, 13),
	}
	sd.DrawString(s)

	for sy := 0; sy < scratch.Bounds().Dy(); sy++ {
		for sx := 0; sx < scratch.Bounds().Dx(); sx++ {
			_, _, _, a := scratch.At(sx, sy).RGBA()
			if a == 0 {
				continue
			}
			for oy := 0; oy < scale; oy++ {
				for ox := 0; ox < scale; ox++ {
					px := startX + sx*scale + ox
					py := y - 13*scale + sy*scale + oy
					if (image.Point{px, py}).In(img.Bounds()) {
						img.SetRGBA(px, py, col.(color.RGBA))
					}
				}
			}
		}
	}
}
