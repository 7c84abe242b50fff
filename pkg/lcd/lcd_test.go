// SPDX-License-Identifier: BSD-3-Clause

package lcd

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatLabelTruncates(t *testing.T) {
	require.Equal(t, "Radiator", FormatLabel("Radiator Top Fan"))
	require.Equal(t, "CPU Package Core", FormatLabel("CPU Package Core"))
	require.Equal(t, "GPU", FormatLabel("GPU"))
}

func TestFormatTemp(t *testing.T) {
	require.Equal(t, "62.3°", FormatTemp(62.3))
	require.Equal(t, "5.0°", FormatTemp(5.0))
}

func TestRenderBackgroundProducesOpaqueRingPixels(t *testing.T) {
	img := RenderBackground(color.RGBA{R: 0, G: 0, B: 255, A: 255}, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	// a point on the ring directly above center (outside the bottom
	// cutout) should be opaque
	_, _, _, a := img.At(ScreenSize/2, 10).RGBA()
	require.NotZero(t, a)
	// dead center should remain transparent
	_, _, _, a = img.At(ScreenSize/2, ScreenSize/2).RGBA()
	require.Zero(t, a)
}

func TestSingleTempRendererSkipsUnchangedTemp(t *testing.T) {
	r := NewSingleTempRenderer(color.RGBA{B: 255, A: 255}, color.RGBA{R: 255, A: 255})

	png1, changed, err := r.Render(45.03, "temp1")
	require.NoError(t, err)
	require.True(t, changed)
	require.NotEmpty(t, png1)

	_, changed, err = r.Render(45.04, "temp1") // rounds to the same 0.1 degree
	require.NoError(t, err)
	require.False(t, changed)

	_, changed, err = r.Render(46.5, "temp1")
	require.NoError(t, err)
	require.True(t, changed)
}

func TestDiscoverImagesFiltersByExtensionAndSize(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("fake"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("fake"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.gif"), []byte{}, 0o644)) // empty: excluded

	images, err := DiscoverImages(dir)
	require.NoError(t, err)
	require.Len(t, images, 1)
	require.Contains(t, images[0], "a.png")
}

func TestPrepareIsContentAddressedAndIdempotent(t *testing.T) {
	srcDir := t.TempDir()
	cacheDir := t.TempDir()

	img := solidPNG(t, 64, 64, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	srcPath := filepath.Join(srcDir, "fixture.png")
	require.NoError(t, os.WriteFile(srcPath, img, 0o644))

	first, err := Prepare(srcPath, cacheDir, 320, 320)
	require.NoError(t, err)
	require.FileExists(t, first.CachePath)

	second, err := Prepare(srcPath, cacheDir, 320, 320)
	require.NoError(t, err)
	require.Equal(t, first.SHA256, second.SHA256)
	require.Equal(t, first.CachePath, second.CachePath)
}

func solidPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
