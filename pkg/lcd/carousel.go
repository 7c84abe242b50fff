// SPDX-License-Identifier: BSD-3-Clause

package lcd

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	_ "image/jpeg" // register the JPEG format with image.Decode
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"  // register the BMP format with image.Decode
	_ "golang.org/x/image/tiff" // register the TIFF format with image.Decode
)

// MaxCarouselImages bounds how many eligible source images are considered
// per channel.
const MaxCarouselImages = 50

// MaxImageSize is the per-file size cap for carousel source images.
const MaxImageSize = 50 * 1024 * 1024

var supportedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".tiff": true, ".bmp": true,
}

// CarouselEntry is one pre-processed, cached carousel image.
type CarouselEntry struct {
	// CachePath is the content-addressed path under <config>/carousel/.
	CachePath string
	// SHA256 is the hex digest of the processed (resized) image bytes,
	// used as the cache filename stem.
	SHA256 string
}

// DiscoverImages lists up to MaxCarouselImages eligible source images in
// dir: supported extension, non-empty, at most MaxImageSize bytes. Entries
// are returned sorted by name for deterministic carousel ordering.
func DiscoverImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read carousel directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !supportedExtensions[ext] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.Size() == 0 || info.Size() > MaxImageSize {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
		if len(paths) >= MaxCarouselImages {
			break
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Prepare decodes a source image, resizes/crops it to the LCD's
// width/height, encodes it (GIF source stays GIF, everything else becomes
// PNG) and writes it to cacheDir under a sha256-of-processed-bytes name,
// idempotently: a cache hit skips the write. It returns the resulting
// CarouselEntry.
func Prepare(sourcePath, cacheDir string, width, height int) (CarouselEntry, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return CarouselEntry{}, fmt.Errorf("read carousel source: %w", err)
	}
	if len(data) == 0 {
		return CarouselEntry{}, ErrEmptyImage
	}
	if len(data) > MaxImageSize {
		return CarouselEntry{}, ErrImageTooLarge
	}

	ext := strings.ToLower(filepath.Ext(sourcePath))
	isGIF := ext == ".gif"

	var processed []byte
	if isGIF {
		processed, err = resizeGIF(data, width, height)
	} else {
		processed, err = resizeStatic(data, width, height)
	}
	if err != nil {
		return CarouselEntry{}, err
	}

	sum := sha256.Sum256(processed)
	digest := hex.EncodeToString(sum[:])
	suffix := "png"
	if isGIF {
		suffix = "gif"
	}
	cachePath := filepath.Join(cacheDir, digest+"."+suffix)

	if _, err := os.Stat(cachePath); err == nil {
		return CarouselEntry{CachePath: cachePath, SHA256: digest}, nil
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return CarouselEntry{}, fmt.Errorf("create carousel cache dir: %w", err)
	}
	if err := os.WriteFile(cachePath, processed, 0o644); err != nil {
		return CarouselEntry{}, fmt.Errorf("write carousel cache entry: %w", err)
	}
	return CarouselEntry{CachePath: cachePath, SHA256: digest}, nil
}

func resizeStatic(data []byte, width, height int) ([]byte, error) {
	img, _, err := image.Decode(newReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	resized := cropResize(img, width, height)

	var buf strings.Builder
	w := newWriter(&buf)
	if err := png.Encode(w, resized); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return []byte(buf.String()), nil
}

func resizeGIF(data []byte, width, height int) ([]byte, error) {
	g, err := gif.DecodeAll(newReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	for i, frame := range g.Image {
		resized := cropResize(frame, width, height)
		paletted := image.NewPaletted(resized.Bounds(), frame.Palette)
		draw.Draw(paletted, paletted.Bounds(), resized, image.Point{}, draw.Src)
		g.Image[i] = paletted
	}
	var buf strings.Builder
	w := newWriter(&buf)
	if err := gif.EncodeAll(w, g); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return []byte(buf.String()), nil
}

// cropResize center-crops img to the target aspect ratio then nearest-
// neighbor scales to width x height. Simple and dependency-free; quality
// is secondary to determinism and content-addressing stability here.
func cropResize(img image.Image, width, height int) *image.RGBA {
	src := img.Bounds()
	srcW, srcH := src.Dx(), src.Dy()

	targetAspect := float64(width) / float64(height)
	srcAspect := float64(srcW) / float64(srcH)

	cropW, cropH := srcW, srcH
	if srcAspect > targetAspect {
		cropW = int(float64(srcH) * targetAspect)
	} else {
		cropH = int(float64(srcW) / targetAspect)
	}
	offX := (srcW - cropW) / 2
	offY := (srcH - cropH) / 2

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		sy := src.Min.Y + offY + y*cropH/height
		for x := 0; x < width; x++ {
			sx := src.Min.X + offX + x*cropW/width
			dst.Set(x, y, img.At(sx, sy))
		}
	}
	return dst
}

func newReader(data []byte) io.Reader { return &bytesReader{data: data} }

type bytesReader struct{ data []byte }

func (b *bytesReader) Read(p []byte) (int, error) {
	if len(b.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p, b.data)
	b.data = b.data[n:]
	return n, nil
}

func newWriter(b *strings.Builder) io.Writer { return b }
