package mupdf

import (
	"fmt"

	"github.com/local/blanksplit/internal/pdftest"
)

// Probe renders a one-page document end to end to confirm the linked MuPDF works.
func Probe() error {
	d, err := OpenBytes(pdftest.Build(pdftest.Blank), DefaultDPI)
	if err != nil {
		return err
	}
	defer d.Close()
	if n := d.NumPage(); n != 1 {
		return fmt.Errorf("probe document has %d pages", n)
	}
	if _, err := d.Raster(0); err != nil {
		return err
	}
	return nil
}
