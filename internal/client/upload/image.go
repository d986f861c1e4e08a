package upload

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNotAnImage is returned by LoadImage for files no registered decoder accepts.
var ErrNotAnImage = errors.New("file is not a supported image")

// Image is a single binary image payload with its declared media type.
type Image struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Empty reports whether the payload carries no bytes.
func (img Image) Empty() bool {
	return len(img.Data) == 0
}

// LoadImage reads path and detects its media type. Empty files are returned
// as-is so that SelectImage reports ErrNoImage for them.
func LoadImage(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	img := Image{Data: data, Filename: filepath.Base(path)}
	if len(data) == 0 {
		return img, nil
	}
	contentType, err := DetectMediaType(data)
	if err != nil {
		return Image{}, fmt.Errorf("%s: %w", img.Filename, err)
	}
	img.ContentType = contentType
	return img, nil
}

// DetectMediaType returns the image/* media type of data using the
// registered image decoders.
func DetectMediaType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", ErrNotAnImage
	}
	return "image/" + format, nil
}
