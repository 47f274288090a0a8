package filetype

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"

	"github.com/local/blanksplit/internal/segment"
)

const pdfMIME = "application/pdf"

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	Supported   bool
	Description string
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect sniffs in-memory content using magic bytes, not the upload's filename.
func (d *Detector) Detect(data []byte) *FileTypeInfo {
	mtype := mimetype.Detect(data)
	info := &FileTypeInfo{MIMEType: mtype.String(), Extension: mtype.Extension()}
	d.classify(info)
	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Int("bytes", len(data)).Msg("detected file type")
	return info
}

// classify decides whether the content can enter the split pipeline
func (d *Detector) classify(info *FileTypeInfo) {
	switch {
	case mimetype.EqualsAny(info.MIMEType, pdfMIME):
		info.Supported = true
		info.Description = "PDF document"
	default:
		info.Supported = false
		info.Description = fmt.Sprintf("Unsupported file type: %s", info.MIMEType)
	}
}

// RequirePDF returns segment.ErrSourceUnreadable unless data is a PDF.
func (d *Detector) RequirePDF(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty input", segment.ErrSourceUnreadable)
	}
	info := d.Detect(data)
	if !info.Supported {
		return fmt.Errorf("%w: %s", segment.ErrSourceUnreadable, info.Description)
	}
	return nil
}
