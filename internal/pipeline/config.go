package pipeline

import (
	"github.com/local/blanksplit/internal/config"
	"github.com/local/blanksplit/internal/ocr"
	"github.com/local/blanksplit/internal/segment"
)

// NewFromConfig builds a Splitter backed by Tesseract with the configured rule.
func NewFromConfig(cfg config.SplitConfig) *Splitter {
	engine := ocr.NewTesseractEngine(cfg.OCRLanguages...)
	return New(Options{
		Rule:                segment.Rule{LuminanceThreshold: cfg.LuminanceThreshold},
		RasterDPI:           cfg.RasterDPI,
		ClassifyConcurrency: cfg.ClassifyConcurrency,
	}, ocr.Detector{Engine: engine})
}
