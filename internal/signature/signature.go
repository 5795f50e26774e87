// Package signature decodes the PNG data URLs produced by the signature pad.
package signature

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"
)

const (
	prefix = "data:image/png;base64,"

	// MaxBytes bounds the decoded image size.
	MaxBytes = 512 << 10
	// MaxSide bounds either image dimension in pixels.
	MaxSide = 4000
)

var (
	ErrMalformed = errors.New("signature: malformed data url")
	ErrTooLarge  = errors.New("signature: image too large")
	ErrEmpty     = errors.New("signature: empty image")
)

// Image is a decoded signature.
type Image struct {
	Width  int
	Height int
	PNG    []byte
}

// Parse validates a PNG data URL and returns the decoded image.
func Parse(dataURL string) (Image, error) {
	dataURL = strings.TrimSpace(dataURL)
	if !strings.HasPrefix(dataURL, prefix) {
		return Image{}, ErrMalformed
	}
	encoded := dataURL[len(prefix):]
	if base64.StdEncoding.DecodedLen(len(encoded)) > MaxBytes {
		return Image{}, ErrTooLarge
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw) == 0 {
		return Image{}, ErrEmpty
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return Image{}, ErrEmpty
	}
	if cfg.Width > MaxSide || cfg.Height > MaxSide {
		return Image{}, ErrTooLarge
	}
	return Image{Width: cfg.Width, Height: cfg.Height, PNG: raw}, nil
}

// Encode renders PNG bytes as a data URL.
func Encode(pngBytes []byte) string {
	return prefix + base64.StdEncoding.EncodeToString(pngBytes)
}
