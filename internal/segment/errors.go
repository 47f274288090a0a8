package segment

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnreadable is returned when the input document cannot be opened or parsed.
	ErrSourceUnreadable = errors.New("source document unreadable")
	// ErrRasterization is returned when a page cannot be rendered.
	ErrRasterization = errors.New("page rasterization failed")
	// ErrOCR is returned when the OCR engine fails on a page.
	ErrOCR = errors.New("ocr engine failure")
)

// PageError ties a classification failure to the zero-based page it happened on.
type PageError struct {
	Page  int
	Stage string // "text"|"raster"|"ocr"
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %s: %v", e.Page, e.Stage, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

func pageErr(page int, stage string, kind, err error) error {
	return &PageError{Page: page, Stage: stage, Err: fmt.Errorf("%w: %v", kind, err)}
}
