package segment

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"
)

// decisions classifies pages from a fixed blank/non-blank sequence.
type decisions struct {
	blank []bool
	fail  map[int]error
	calls atomic.Int32
}

func (d *decisions) Classify(_ context.Context, page int) (Classification, error) {
	d.calls.Add(1)
	if err := d.fail[page]; err != nil {
		return Classification{}, err
	}
	return Classification{Page: page, Blank: d.blank[page]}, nil
}

func TestFromDecisions(t *testing.T) {
	const B, P = true, false
	cases := []struct {
		name  string
		blank []bool
		want  []Segment
	}{
		{"empty", nil, nil},
		{"all blank", []bool{B, B, B, B, B}, nil},
		{"single content page", []bool{P}, []Segment{{0, 0}}},
		{"separators around runs", []bool{B, P, P, B, B, P, B}, []Segment{{1, 2}, {5, 5}}},
		{"no separators", []bool{P, P, P}, []Segment{{0, 2}}},
		{"trailing run", []bool{P, B, P, P}, []Segment{{0, 0}, {2, 3}}},
		{"alternating", []bool{P, B, P, B, P}, []Segment{{0, 0}, {2, 2}, {4, 4}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromDecisions(tc.blank)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestScannerState(t *testing.T) {
	var s Scanner
	if s.Open() {
		t.Fatalf("new scanner should be closed")
	}
	s.Feed(0, true)
	if s.Open() {
		t.Fatalf("blank page must not open a segment")
	}
	s.Feed(1, false)
	if !s.Open() {
		t.Fatalf("content page should open a segment")
	}
	s.Feed(2, true)
	s.Feed(3, true)
	if s.Open() {
		t.Fatalf("blank page should close the segment")
	}
	got := s.Finish()
	if !reflect.DeepEqual(got, []Segment{{1, 1}}) {
		t.Fatalf("got %v", got)
	}
}

// checkInvariants verifies coverage, ordering, maximality and non-emptiness.
func checkInvariants(t *testing.T, blank []bool, segs []Segment) {
	t.Helper()
	owner := make([]int, len(blank))
	for i := range owner {
		owner[i] = -1
	}
	prevEnd := -1
	for si, s := range segs {
		if s.Len() <= 0 {
			t.Fatalf("segment %d is empty: %v", si, s)
		}
		if s.Start <= prevEnd {
			t.Fatalf("segment %d overlaps or is out of order: %v", si, segs)
		}
		if si > 0 {
			gapHasBlank := false
			for p := prevEnd + 1; p < s.Start; p++ {
				gapHasBlank = gapHasBlank || blank[p]
			}
			if !gapHasBlank {
				t.Fatalf("segments %d and %d are not separated by a blank page: %v", si-1, si, segs)
			}
		}
		for p := s.Start; p <= s.End; p++ {
			if blank[p] {
				t.Fatalf("blank page %d inside segment %v", p, s)
			}
			owner[p] = si
		}
		prevEnd = s.End
	}
	for p, b := range blank {
		if !b && owner[p] < 0 {
			t.Fatalf("content page %d not covered by %v", p, segs)
		}
	}
}

func TestFromDecisionsInvariantsExhaustive(t *testing.T) {
	for n := 0; n <= 10; n++ {
		for mask := 0; mask < 1<<n; mask++ {
			blank := make([]bool, n)
			for i := range blank {
				blank[i] = mask&(1<<i) != 0
			}
			checkInvariants(t, blank, FromDecisions(blank))
		}
	}
}

func TestRunSequential(t *testing.T) {
	d := &decisions{blank: []bool{true, false, false, true, true, false, true}}
	cls, segs, err := Run(context.Background(), len(d.blank), d, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []Segment{{1, 2}, {5, 5}}; !reflect.DeepEqual(segs, want) {
		t.Fatalf("segments = %v, want %v", segs, want)
	}
	if len(cls) != 7 || int(d.calls.Load()) != 7 {
		t.Fatalf("expected one classification per page, got %d (%d calls)", len(cls), d.calls.Load())
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	blank := []bool{false, true, false, false, true, true, false, false, false, true, false}
	for _, conc := range []int{1, 2, 4, 16} {
		t.Run(fmt.Sprintf("concurrency=%d", conc), func(t *testing.T) {
			_, segs, err := Run(context.Background(), len(blank), &decisions{blank: blank}, conc)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want := FromDecisions(blank); !reflect.DeepEqual(segs, want) {
				t.Fatalf("got %v, want %v", segs, want)
			}
		})
	}
}

func TestRunDeterministic(t *testing.T) {
	blank := []bool{true, false, true, false, false}
	_, first, _ := Run(context.Background(), len(blank), &decisions{blank: blank}, 1)
	_, second, _ := Run(context.Background(), len(blank), &decisions{blank: blank}, 1)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("runs differ: %v vs %v", first, second)
	}
}

func TestRunEmptyInput(t *testing.T) {
	cls, segs, err := Run(context.Background(), 0, &decisions{}, 1)
	if err != nil || cls != nil || segs != nil {
		t.Fatalf("expected empty result, got %v %v %v", cls, segs, err)
	}
}

func TestRunFailsWholeRun(t *testing.T) {
	boom := &PageError{Page: 2, Stage: "ocr", Err: ErrOCR}
	blank := []bool{false, false, false, false}
	for _, conc := range []int{1, 3} {
		d := &decisions{blank: blank, fail: map[int]error{2: boom}}
		cls, segs, err := Run(context.Background(), len(blank), d, conc)
		if !errors.Is(err, ErrOCR) {
			t.Fatalf("concurrency %d: expected ErrOCR, got %v", conc, err)
		}
		if cls != nil || segs != nil {
			t.Fatalf("concurrency %d: partial results leaked: %v %v", conc, cls, segs)
		}
	}
}

func TestRunSequentialStopsAtFirstFailure(t *testing.T) {
	d := &decisions{blank: []bool{false, false, false}, fail: map[int]error{0: errors.New("x")}}
	if _, _, err := Run(context.Background(), 3, d, 1); err == nil {
		t.Fatalf("expected error")
	}
	if got := d.calls.Load(); got != 1 {
		t.Fatalf("sequential run kept classifying after failure: %d calls", got)
	}
}
