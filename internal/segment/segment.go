package segment

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Segment is an inclusive, zero-based range of consecutive non-blank pages.
type Segment struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of pages in the segment.
func (s Segment) Len() int { return s.End - s.Start + 1 }

func (s Segment) String() string { return fmt.Sprintf("[%d-%d]", s.Start, s.End) }

type scanState int

const (
	stateClosed scanState = iota
	stateOpen
)

// Scanner turns a left-to-right stream of blank/non-blank decisions into segments.
type Scanner struct {
	state scanState
	cur   Segment
	out   []Segment
}

// Feed consumes the decision for the next page. Pages must arrive in increasing order.
func (s *Scanner) Feed(page int, blank bool) {
	if blank {
		if s.state == stateOpen {
			s.out = append(s.out, s.cur)
			s.state = stateClosed
		}
		return
	}
	if s.state == stateClosed {
		s.cur = Segment{Start: page}
		s.state = stateOpen
	}
	s.cur.End = page
}

// Open reports whether a segment is currently being extended.
func (s *Scanner) Open() bool { return s.state == stateOpen }

// Finish closes any open segment and returns everything emitted so far.
func (s *Scanner) Finish() []Segment {
	if s.state == stateOpen {
		s.out = append(s.out, s.cur)
		s.state = stateClosed
	}
	return s.out
}

// FromDecisions segments a complete decision sequence indexed by page.
func FromDecisions(blank []bool) []Segment {
	var s Scanner
	for i, b := range blank {
		s.Feed(i, b)
	}
	return s.Finish()
}

// Run classifies pages [0, numPages) and segments them. With concurrency <= 1
// it is a single forward pass; otherwise pages are classified in parallel and
// scanned in order afterwards. Any classification error aborts the run.
func Run(ctx context.Context, numPages int, pc PageClassifier, concurrency int) ([]Classification, []Segment, error) {
	if numPages <= 0 {
		return nil, nil, nil
	}
	if concurrency > 1 {
		cls, err := ClassifyAll(ctx, numPages, pc, concurrency)
		if err != nil {
			return nil, nil, err
		}
		var s Scanner
		for i, c := range cls {
			s.Feed(i, c.Blank)
		}
		return cls, s.Finish(), nil
	}

	cls := make([]Classification, 0, numPages)
	var s Scanner
	for i := 0; i < numPages; i++ {
		c, err := pc.Classify(ctx, i)
		if err != nil {
			return nil, nil, err
		}
		cls = append(cls, c)
		s.Feed(i, c.Blank)
	}
	return cls, s.Finish(), nil
}

// ClassifyAll classifies every page with at most concurrency pages in flight.
// Results are indexed by page.
func ClassifyAll(ctx context.Context, numPages int, pc PageClassifier, concurrency int) ([]Classification, error) {
	out := make([]Classification, numPages)
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i := 0; i < numPages; i++ {
		i := i
		g.Go(func() error {
			c, err := pc.Classify(gctx, i)
			if err != nil {
				return err
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
