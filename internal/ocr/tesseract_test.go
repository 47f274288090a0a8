package ocr

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/local/blanksplit/internal/imagerender"
)

func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if !Available() {
		t.Skip("tesseract not installed in PATH")
	}
}

func TestTesseractEngineDetect(t *testing.T) {
	ensureTesseractAvailable(t)

	img := image.NewRGBA(image.Rect(0, 0, 240, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: img, Src: image.Black, Face: basicfont.Face7x13, Dot: fixed.P(10, 50)}
	d.DrawString("Hello PDF")

	dets, err := NewTesseractEngine("eng").Detect(context.Background(), imagerender.ToRaster(img))
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	var parts []string
	for _, det := range dets {
		parts = append(parts, det.Text)
	}
	got := strings.ToLower(strings.Join(parts, " "))
	if !strings.Contains(got, "hello") {
		t.Fatalf("unexpected OCR output: %q", got)
	}
}

func TestTesseractEngineWhitePage(t *testing.T) {
	ensureTesseractAvailable(t)

	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	dets, err := NewTesseractEngine().Detect(context.Background(), imagerender.ToRaster(img))
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	var parts []string
	for _, det := range dets {
		parts = append(parts, det.Text)
	}
	if got := strings.TrimSpace(strings.Join(parts, "")); got != "" {
		t.Fatalf("expected no text on a white page, got %q", got)
	}
}
