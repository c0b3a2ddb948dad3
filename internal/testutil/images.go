package testutil

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

// PNG encodes a solid width x height PNG, padded with trailing bytes up to
// padTo when the encoded image is smaller. Decoders stop at the IEND chunk,
// so padding only changes the file size.
func PNG(t testing.TB, width, height int, padTo int) []byte {
	t.Helper()
	return encode(t, width, height, imaging.PNG, padTo)
}

// JPEG encodes a solid width x height JPEG.
func JPEG(t testing.TB, width, height int) []byte {
	t.Helper()
	return encode(t, width, height, imaging.JPEG, 0)
}

func encode(t testing.TB, width, height int, format imaging.Format, padTo int) []byte {
	t.Helper()

	img := imaging.New(width, height, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, image.Image(img), format); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if padTo > buf.Len() {
		buf.Write(make([]byte, padTo-buf.Len()))
	}
	return buf.Bytes()
}
