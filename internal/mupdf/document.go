package mupdf

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"

	"github.com/local/blanksplit/internal/imagerender"
	"github.com/local/blanksplit/internal/segment"
)

// DefaultDPI matches MuPDF's default pixmap resolution (identity matrix).
const DefaultDPI = 72.0

// Document is a go-fitz backed page source. go-fitz serializes access to the
// underlying MuPDF context, so a Document may be shared between goroutines.
type Document struct {
	doc *fitz.Document
	dpi float64
}

// OpenBytes opens a PDF held in memory.
func OpenBytes(data []byte, dpi float64) (*Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open PDF: %v", segment.ErrSourceUnreadable, err)
	}
	return wrap(doc, dpi), nil
}

func wrap(doc *fitz.Document, dpi float64) *Document {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Document{doc: doc, dpi: dpi}
}

// NumPage returns the number of pages.
func (d *Document) NumPage() int { return d.doc.NumPage() }

// Text returns the raw embedded text of a zero-based page.
func (d *Document) Text(page int) (string, error) {
	if err := d.checkRange(page); err != nil {
		return "", err
	}
	text, err := d.doc.Text(page)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d: %w", page, err)
	}
	return text, nil
}

// Image renders a zero-based page at the document DPI.
func (d *Document) Image(page int) (*image.RGBA, error) {
	if err := d.checkRange(page); err != nil {
		return nil, err
	}
	img, err := d.doc.ImageDPI(page, d.dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page, err)
	}
	return img, nil
}

// Raster renders a zero-based page to a packed RGB buffer.
func (d *Document) Raster(page int) (segment.Raster, error) {
	img, err := d.Image(page)
	if err != nil {
		return segment.Raster{}, err
	}
	r := imagerender.ToRaster(img)
	log.Debug().
		Int("page", page).
		Int("width", r.Width).
		Int("height", r.Height).
		Float64("dpi", d.dpi).
		Msg("rendered page raster")
	return r, nil
}

// Close releases the MuPDF document.
func (d *Document) Close() error { return d.doc.Close() }

func (d *Document) checkRange(page int) error {
	if page < 0 || page >= d.doc.NumPage() {
		return fmt.Errorf("page %d out of range (document has %d pages)", page, d.doc.NumPage())
	}
	return nil
}
