package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/blanksplit/internal/filetype"
	"github.com/local/blanksplit/internal/metrics"
	"github.com/local/blanksplit/internal/mupdf"
	"github.com/local/blanksplit/internal/pdfsplit"
	"github.com/local/blanksplit/internal/segment"
)

// Options configures a Splitter.
type Options struct {
	Rule                segment.Rule
	RasterDPI           float64
	ClassifyConcurrency int
}

// Result is the outcome of one split run.
type Result struct {
	Pages           int                      `json:"pages"`
	Classifications []segment.Classification `json:"classifications"`
	Segments        []segment.Segment        `json:"segments"`
	Documents       []pdfsplit.Output        `json:"documents"`
	Duration        time.Duration            `json:"duration"`
}

// Materializer copies segments out of the source PDF.
type Materializer interface {
	PageCount(src []byte) (int, error)
	Materialize(src []byte, segs []segment.Segment) ([]pdfsplit.Output, error)
}

// Splitter runs the full split: sniff, open, classify, segment, materialize.
type Splitter struct {
	opts     Options
	ocr      segment.TextDetector
	detector *filetype.Detector
	mat      Materializer
}

// New builds a Splitter that uses ocr for the OCR signal.
func New(opts Options, ocr segment.TextDetector) *Splitter {
	if opts.RasterDPI <= 0 {
		opts.RasterDPI = mupdf.DefaultDPI
	}
	if opts.Rule.LuminanceThreshold == 0 {
		opts.Rule = segment.DefaultRule()
	}
	return &Splitter{opts: opts, ocr: ocr, detector: filetype.New(), mat: pdfsplit.New()}
}

// Split partitions data at blank separator pages. A document without pages
// yields an empty Result and no error.
func (s *Splitter) Split(ctx context.Context, data []byte) (Result, error) {
	start := time.Now()
	res, err := s.split(ctx, data)
	res.Duration = time.Since(start)
	if err != nil {
		metrics.ObserveSplit("failed", res.Duration)
		return Result{}, err
	}
	metrics.ObserveSplit("success", res.Duration)
	metrics.AddDocuments(len(res.Documents))
	log.Info().
		Int("pages", res.Pages).
		Int("segments", len(res.Segments)).
		Dur("duration", res.Duration).
		Msg("split finished")
	return res, nil
}

func (s *Splitter) split(ctx context.Context, data []byte) (Result, error) {
	if err := s.detector.RequirePDF(data); err != nil {
		return Result{}, err
	}
	doc, err := mupdf.OpenBytes(data, s.opts.RasterDPI)
	if err != nil {
		return Result{}, err
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return Result{}, nil
	}
	// Page ranges come from MuPDF but pages are copied by pdfcpu; both must
	// see the same page tree.
	copyable, err := s.mat.PageCount(data)
	if err != nil {
		return Result{}, err
	}
	if copyable != n {
		return Result{}, fmt.Errorf("%w: page count mismatch (render %d, copy %d)", segment.ErrSourceUnreadable, n, copyable)
	}

	classifier := &observed{next: segment.NewClassifier(doc, s.ocr, s.opts.Rule)}
	cls, segs, err := segment.Run(ctx, n, classifier, s.opts.ClassifyConcurrency)
	if err != nil {
		var pe *segment.PageError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Int("page", pe.Page).Str("stage", pe.Stage).Msg("page classification failed")
		}
		return Result{}, fmt.Errorf("classify pages: %w", err)
	}

	docs, err := s.mat.Materialize(data, segs)
	if err != nil {
		return Result{}, fmt.Errorf("materialize: %w", err)
	}
	return Result{Pages: n, Classifications: cls, Segments: segs, Documents: docs}, nil
}

// observed records per-page metrics around a classifier.
type observed struct {
	next segment.PageClassifier
}

func (o *observed) Classify(ctx context.Context, page int) (segment.Classification, error) {
	c, err := o.next.Classify(ctx, page)
	if err != nil {
		metrics.IncPageError()
		return c, err
	}
	metrics.ObservePage(c.Blank)
	return c, nil
}
