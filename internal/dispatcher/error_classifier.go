package dispatcher

import (
	"context"
	"errors"

	"github.com/local/blanksplit/internal/segment"
)

// failure summarizes a job error for status metadata, metrics and the DLQ.
type failure struct {
	Stage  string
	Reason string
	Page   int // -1 when not tied to a page
	Result string
}

// classifyFailure inspects err for the job step, the page involved and the
// metrics result label. Nothing is retried, so this only labels the failure.
func classifyFailure(err error) failure {
	f := failure{Stage: "unknown", Reason: "internal", Page: -1, Result: "failed"}
	if err == nil {
		return f
	}

	var jobErr *JobError
	if errors.As(err, &jobErr) {
		f.Stage = jobErr.Stage
	}

	var pageErr *segment.PageError
	if errors.As(err, &pageErr) {
		f.Page = pageErr.Page
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		f.Reason = "timeout"
		f.Result = "timeout"
	case errors.Is(err, context.Canceled):
		f.Reason = "cancelled"
		f.Result = "cancelled"
	case errors.Is(err, segment.ErrSourceUnreadable):
		f.Reason = "source_unreadable"
	case errors.Is(err, segment.ErrRasterization):
		f.Reason = "rasterization"
	case errors.Is(err, segment.ErrOCR):
		f.Reason = "ocr"
	case f.Stage == "fetch":
		f.Reason = "fetch"
	case f.Stage == "deliver":
		f.Reason = "delivery"
	case f.Stage == "decode":
		f.Reason = "bad_payload"
	}
	return f
}
