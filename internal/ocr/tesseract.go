package ocr

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/otiai10/gosseract/v2"

	"github.com/local/blanksplit/internal/imagerender"
	"github.com/local/blanksplit/internal/segment"
)

// TesseractEngine runs Tesseract through gosseract, one client per call so
// that pages can be recognized concurrently.
type TesseractEngine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs an engine for the given languages (default "eng").
func NewTesseractEngine(languages ...string) *TesseractEngine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractEngine{languages: languages, clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Detect returns one detection per recognized text line, top to bottom.
func (e *TesseractEngine) Detect(ctx context.Context, r segment.Raster) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	imgData, err := imagerender.EncodePNG(r)
	if err != nil {
		return nil, err
	}
	c := e.clientFactory()
	defer c.Close()
	if err := c.SetLanguage(e.languages...); err != nil {
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetImageFromBytes(imgData); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	dets := make([]Detection, 0, len(boxes))
	for _, b := range boxes {
		dets = append(dets, Detection{
			Text:       b.Word,
			X:          b.Box.Min.X,
			Y:          b.Box.Min.Y,
			Width:      b.Box.Dx(),
			Height:     b.Box.Dy(),
			Confidence: b.Confidence / 100.0,
		})
	}
	return dets, nil
}

// Available reports whether the tesseract binary is on PATH.
func Available() bool {
	_, err := exec.LookPath("tesseract")
	return err == nil
}

// Version returns the linked Tesseract library version.
func Version() string {
	c := gosseract.NewClient()
	defer c.Close()
	return c.Version()
}
