// Package imaging normalizes uploaded photos before face detection.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxSide is the longest edge kept after normalization.
const DefaultMaxSide = 2048

const jpegQuality = 90

// ErrInvalidImage is returned for payloads no registered decoder accepts.
var ErrInvalidImage = errors.New("invalid image")

// Normalize decodes data in any registered format, flattens it onto a white
// RGB canvas, downscales it so neither side exceeds maxSide (0 disables the
// limit) and re-encodes it as JPEG.
func Normalize(data []byte, maxSide int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	b := src.Bounds()
	w, h := fit(b.Dx(), b.Dy(), maxSide)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: empty bounds", ErrInvalidImage)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}

// fit scales (w, h) down to fit within maxSide, keeping the aspect ratio.
func fit(w, h, maxSide int) (int, int) {
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return w, h
	}
	if w >= h {
		return maxSide, max(1, h*maxSide/w)
	}
	return max(1, w*maxSide/h), maxSide
}
