// SPDX-License-Identifier: BSD-3-Clause

package lcd

import "errors"

var (
	// ErrUnsupportedFormat indicates a carousel source image's extension is
	// not one of the supported formats.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrImageTooLarge indicates a carousel source image exceeds the 50 MB
	// size cap.
	ErrImageTooLarge = errors.New("image exceeds maximum size")
	// ErrEmptyImage indicates a carousel source image file is empty.
	ErrEmptyImage = errors.New("image file is empty")
	// ErrDecode indicates an image file could not be decoded.
	ErrDecode = errors.New("failed to decode image")
	// ErrEncode indicates a rendered image could not be encoded.
	ErrEncode = errors.New("failed to encode image")
	// ErrTooManyImages indicates a carousel directory has more than the
	// maximum 50 eligible images.
	ErrTooManyImages = errors.New("too many carousel images")
)
