package imagerender

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/local/blanksplit/internal/segment"
)

// ToRaster packs an image into a row-major RGB buffer, dropping alpha.
func ToRaster(img image.Image) segment.Raster {
	rgba, ok := img.(*image.RGBA)
	if !ok {
		b := img.Bounds()
		rgba = image.NewRGBA(b)
		draw.Draw(rgba, b, img, b.Min, draw.Src)
	}
	b := rgba.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		for x := 0; x < w*4; x += 4 {
			out = append(out, row[x], row[x+1], row[x+2])
		}
	}
	return segment.Raster{Width: w, Height: h, Samples: out}
}

// ToImage expands an RGB raster back into an opaque image.
func ToImage(r segment.Raster) (*image.RGBA, error) {
	if r.Width < 0 || r.Height < 0 || len(r.Samples) != r.Width*r.Height*3 {
		return nil, fmt.Errorf("raster %dx%d has %d bytes, want %d", r.Width, r.Height, len(r.Samples), r.Width*r.Height*3)
	}
	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for i, j := 0, 0; i < len(r.Samples); i, j = i+3, j+4 {
		img.Pix[j] = r.Samples[i]
		img.Pix[j+1] = r.Samples[i+1]
		img.Pix[j+2] = r.Samples[i+2]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}

// EncodePNG renders a raster as PNG bytes, the format handed to the OCR engine.
func EncodePNG(r segment.Raster) ([]byte, error) {
	img, err := ToImage(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
