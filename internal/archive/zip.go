package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/local/blanksplit/internal/pdfsplit"
)

// WriteZip bundles outputs into a ZIP stream, one entry per document, in order.
func WriteZip(w io.Writer, outputs []pdfsplit.Output) error {
	zw := zip.NewWriter(w)
	now := time.Now()
	for _, out := range outputs {
		hdr := &zip.FileHeader{Name: out.Name, Method: zip.Deflate, Modified: now}
		f, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("zip entry %s: %w", out.Name, err)
		}
		if _, err := f.Write(out.Data); err != nil {
			return fmt.Errorf("zip write %s: %w", out.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("zip close: %w", err)
	}
	return nil
}

// Zip returns the ZIP bytes for outputs.
func Zip(outputs []pdfsplit.Output) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteZip(&buf, outputs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
