// SPDX-License-Identifier: BSD-3-Clause

package lcd

import (
	"image"
	"image/color"
	"math"
)

// Screen geometry constants. These are part of the rendering contract:
// changing them changes what ships to the panel.
const (
	ScreenSize      = 320
	BorderThickness = 30.0
	// CutoutStartDeg and CutoutEndDeg size the gap in the ring. Angles are
	// measured in degrees clockwise from the top (12 o'clock). The gap is
	// centered at the bottom (180) and reaches CutoutEndDeg-CutoutStartDeg
	// (90) degrees to either side, so it spans 90..270 and the visible arc
	// is the upper half-ring from 270 through 0 to 90.
	CutoutStartDeg = 45.0
	CutoutEndDeg   = 135.0
)

var (
	center      = float64(ScreenSize) / 2
	outerRadius = center - 10
	innerRadius = outerRadius - BorderThickness
)

// RenderBackground draws the gradient half-ring border with rounded end
// caps against a transparent background. The result is cached per channel
// and reused across ticks; only RenderFrame's text overlay changes.
func RenderBackground(from, to color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, ScreenSize, ScreenSize))

	for y := 0; y < ScreenSize; y++ {
		for x := 0; x < ScreenSize; x++ {
			dx := float64(x) - center
			dy := float64(y) - center
			dist := math.Hypot(dx, dy)
			if dist < innerRadius || dist > outerRadius {
				continue
			}
			angle := clockAngle(dx, dy)
			if withinCutout(angle) {
				continue
			}
			img.SetRGBA(x, y, gradientAt(angle, from, to))
		}
	}
	drawRoundedCap(img, 180-(CutoutEndDeg-CutoutStartDeg), from, to)
	drawRoundedCap(img, 180+(CutoutEndDeg-CutoutStartDeg), from, to)
	return img
}

// clockAngle returns the angle of (dx, dy) in degrees, 0 at the top,
// increasing clockwise, in [0, 360).
func clockAngle(dx, dy float64) float64 {
	// math.Atan2 is 0 at +x axis, increasing counter-clockwise with +y up;
	// image space has +y down, so this mapping already rotates to "0 at
	// top, clockwise" once we swap the arguments.
	deg := math.Atan2(dx, -dy) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// withinCutout reports whether angle lies in the bottom gap: within
// CutoutEndDeg-CutoutStartDeg degrees either side of 180, ends included.
func withinCutout(angle float64) bool {
	lo := 180 - (CutoutEndDeg - CutoutStartDeg) // = 90
	hi := 180 + (CutoutEndDeg - CutoutStartDeg) // = 270
	return angle >= lo && angle <= hi
}

// gradientAt linearly interpolates from `from` at the start of the visible
// arc to `to` at its end.
func gradientAt(angle float64, from, to color.RGBA) color.RGBA {
	gapSpan := CutoutEndDeg - CutoutStartDeg
	hi := 180 + gapSpan
	var frac float64
	if angle >= hi {
		frac = (angle - hi) / (360 - gapSpan*2)
	} else {
		frac = (angle + (360 - hi)) / (360 - gapSpan*2)
	}
	return lerpColor(from, to, frac)
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return color.RGBA{
		R: lerpByte(a.R, b.R, t),
		G: lerpByte(a.G, b.G, t),
		B: lerpByte(a.B, b.B, t),
		A: 255,
	}
}

func lerpByte(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

// drawRoundedCap paints a filled disc of radius BorderThickness/2 at the
// ring's midline at the given angle, rounding off the cut-out's open ends.
func drawRoundedCap(img *image.RGBA, angleDeg float64, from, to color.RGBA) {
	mid := (innerRadius + outerRadius) / 2
	rad := angleDeg * math.Pi / 180
	cx := center + mid*math.Sin(rad)
	cy := center - mid*math.Cos(rad)
	capRadius := BorderThickness / 2

	col := gradientAt(angleDeg, from, to)

	minX := int(cx - capRadius)
	maxX := int(cx + capRadius)
	minY := int(cy - capRadius)
	maxY := int(cy + capRadius)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			if math.Hypot(dx, dy) <= capRadius {
				img.SetRGBA(x, y, col)
			}
		}
	}
}
