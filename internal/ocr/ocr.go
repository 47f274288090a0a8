package ocr

import (
	"context"

	"github.com/local/blanksplit/internal/segment"
)

// Detection is one text region reported by an OCR engine.
type Detection struct {
	Text       string
	X, Y       int
	Width      int
	Height     int
	Confidence float64
}

// Engine detects text regions in a page raster.
type Engine interface {
	Name() string
	Detect(ctx context.Context, r segment.Raster) ([]Detection, error)
}

// Detector adapts an Engine to the classifier, keeping only the text of each region.
type Detector struct {
	Engine Engine
}

// DetectText returns the detected fragments in engine order.
func (d Detector) DetectText(ctx context.Context, r segment.Raster) ([]string, error) {
	dets, err := d.Engine.Detect(ctx, r)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(dets))
	for _, det := range dets {
		out = append(out, det.Text)
	}
	return out, nil
}
