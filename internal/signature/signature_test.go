package signature

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestParseRoundTrip(t *testing.T) {
	raw := samplePNG(t, 40, 20)
	img, err := Parse(Encode(raw))
	require.NoError(t, err)
	require.Equal(t, 40, img.Width)
	require.Equal(t, 20, img.Height)
	require.Equal(t, raw, img.PNG)
}

func TestParseRejects(t *testing.T) {
	_, err := Parse("data:image/jpeg;base64,AAAA")
	require.ErrorIs(t, err, ErrMalformed)

	_, err = Parse(prefix + "not base64!")
	require.ErrorIs(t, err, ErrMalformed)

	_, err = Parse(prefix + "aGVsbG8=")
	require.ErrorIs(t, err, ErrMalformed)

	_, err = Parse(prefix)
	require.ErrorIs(t, err, ErrEmpty)

	_, err = Parse(prefix + strings.Repeat("A", MaxBytes*2))
	require.ErrorIs(t, err, ErrTooLarge)
}
