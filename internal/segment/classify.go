package segment

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultLuminanceThreshold is the average byte value a raster must exceed
// (strictly) for a text-free page to count as blank.
const DefaultLuminanceThreshold = 245.0

// Raster is an RGB pixel buffer, row-major, three bytes per pixel.
type Raster struct {
	Width   int
	Height  int
	Samples []byte
}

// Source is an open multi-page document.
type Source interface {
	NumPage() int
	// Text returns the embedded text layer of a zero-based page.
	Text(page int) (string, error)
	// Raster renders a zero-based page to RGB.
	Raster(page int) (Raster, error)
}

// TextDetector returns the text fragments an OCR engine finds in a raster.
type TextDetector interface {
	DetectText(ctx context.Context, r Raster) ([]string, error)
}

// Rule is the blank-page decision rule.
type Rule struct {
	LuminanceThreshold float64
}

// DefaultRule returns the rule with the documented threshold.
func DefaultRule() Rule { return Rule{LuminanceThreshold: DefaultLuminanceThreshold} }

// IsBlank reports whether a page with the given combined text and average
// luminance is a separator. Both conditions must hold.
func (r Rule) IsBlank(combinedText string, luminance float64) bool {
	return len(combinedText) == 0 && luminance > r.LuminanceThreshold
}

// AverageLuminance is the arithmetic mean over every byte of the buffer,
// channels included. Empty buffers yield 0.
func AverageLuminance(samples []byte) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum uint64
	for _, b := range samples {
		sum += uint64(b)
	}
	return float64(sum) / float64(len(samples))
}

// JoinFragments joins OCR fragments with single spaces and trims the result.
func JoinFragments(fragments []string) string {
	return strings.TrimSpace(strings.Join(fragments, " "))
}

// Classification is the outcome for one page.
type Classification struct {
	Page      int     `json:"page"`
	Blank     bool    `json:"blank"`
	TextChars int     `json:"text_chars"`
	OCRChars  int     `json:"ocr_chars"`
	Luminance float64 `json:"luminance"`
}

// PageClassifier classifies a single page by index.
type PageClassifier interface {
	Classify(ctx context.Context, page int) (Classification, error)
}

// Classifier combines the embedded text layer, OCR text and raster luminance
// of a page into one blank/non-blank decision.
type Classifier struct {
	src  Source
	ocr  TextDetector
	rule Rule
}

// NewClassifier builds a Classifier over src. A zero rule threshold falls back to the default.
func NewClassifier(src Source, ocr TextDetector, rule Rule) *Classifier {
	if rule.LuminanceThreshold == 0 {
		rule = DefaultRule()
	}
	return &Classifier{src: src, ocr: ocr, rule: rule}
}

// Classify runs text extraction, rasterization and OCR for one page and applies the rule.
func (c *Classifier) Classify(ctx context.Context, page int) (Classification, error) {
	if err := ctx.Err(); err != nil {
		return Classification{}, err
	}
	raw, err := c.src.Text(page)
	if err != nil {
		return Classification{}, pageErr(page, "text", ErrSourceUnreadable, err)
	}
	text := strings.TrimSpace(raw)

	raster, err := c.src.Raster(page)
	if err != nil {
		return Classification{}, pageErr(page, "raster", ErrRasterization, err)
	}

	if err := ctx.Err(); err != nil {
		return Classification{}, err
	}
	fragments, err := c.ocr.DetectText(ctx, raster)
	if err != nil {
		return Classification{}, pageErr(page, "ocr", ErrOCR, err)
	}
	ocrText := JoinFragments(fragments)

	combined := text + ocrText
	lum := AverageLuminance(raster.Samples)
	blank := c.rule.IsBlank(combined, lum)

	log.Debug().
		Int("page", page).
		Int("text_chars", len(text)).
		Int("ocr_chars", len(ocrText)).
		Float64("luminance", lum).
		Bool("blank", blank).
		Msg("page classified")

	return Classification{
		Page:      page,
		Blank:     blank,
		TextChars: len(text),
		OCRChars:  len(ocrText),
		Luminance: lum,
	}, nil
}
