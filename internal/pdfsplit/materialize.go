package pdfsplit

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"

	"github.com/local/blanksplit/internal/segment"
)

// Output is one materialized sub-document.
type Output struct {
	// Index is the 1-based position in segment order.
	Index   int             `json:"index"`
	Name    string          `json:"name"`
	Segment segment.Segment `json:"segment"`
	Data    []byte          `json:"-"`
}

// Name returns the archive/file name for the n-th (1-based) output.
func Name(n int) string { return fmt.Sprintf("document_%d.pdf", n) }

// Materializer copies page ranges of a source PDF into new documents with pdfcpu.
type Materializer struct {
	validation int
}

// New returns a Materializer using pdfcpu's default configuration with relaxed validation.
func New() *Materializer {
	return &Materializer{validation: model.ValidationRelaxed}
}

// config returns a fresh configuration; pdfcpu records the running command in it.
func (m *Materializer) config() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = m.validation
	return conf
}

// PageCount returns the number of pages pdfcpu sees in src.
func (m *Materializer) PageCount(src []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(src), m.config())
	if err != nil {
		return 0, fmt.Errorf("%w: pdf page count failed: %v", segment.ErrSourceUnreadable, err)
	}
	return n, nil
}

// Materialize produces one document per segment, in segment order. Each output
// owns its bytes; nothing is shared with src or with sibling outputs.
func (m *Materializer) Materialize(src []byte, segs []segment.Segment) ([]Output, error) {
	outs := make([]Output, 0, len(segs))
	for i, s := range segs {
		if s.Start < 0 || s.End < s.Start {
			return nil, fmt.Errorf("invalid segment %v", s)
		}
		var buf bytes.Buffer
		// pdfcpu page selections are 1-based and inclusive.
		sel := []string{fmt.Sprintf("%d-%d", s.Start+1, s.End+1)}
		if err := api.Trim(bytes.NewReader(src), &buf, sel, m.config()); err != nil {
			return nil, fmt.Errorf("copy pages %v: %w", s, err)
		}
		out := Output{Index: i + 1, Name: Name(i + 1), Segment: s, Data: buf.Bytes()}
		log.Debug().
			Int("document", out.Index).
			Int("start_page", s.Start).
			Int("end_page", s.End).
			Int("bytes", len(out.Data)).
			Msg("materialized sub-document")
		outs = append(outs, out)
	}
	return outs, nil
}
