package pdfsplit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/local/blanksplit/internal/mupdf"
	"github.com/local/blanksplit/internal/pdftest"
	"github.com/local/blanksplit/internal/segment"
)

func pageTexts(t *testing.T, data []byte) []string {
	t.Helper()
	doc, err := mupdf.OpenBytes(data, 0)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer doc.Close()
	var out []string
	for i := 0; i < doc.NumPage(); i++ {
		s, err := doc.Text(i)
		if err != nil {
			t.Fatalf("text page %d: %v", i, err)
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

func TestMaterializeRanges(t *testing.T) {
	src := pdftest.Build(
		pdftest.Blank,
		pdftest.Text("A"),
		pdftest.Text("B"),
		pdftest.Blank,
		pdftest.Blank,
		pdftest.Text("C"),
		pdftest.Blank,
	)
	m := New()
	outs, err := m.Materialize(src, []segment.Segment{{Start: 1, End: 2}, {Start: 5, End: 5}})
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if len(outs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(outs))
	}

	wantNames := []string{"document_1.pdf", "document_2.pdf"}
	wantTexts := [][]string{{"A", "B"}, {"C"}}
	for i, out := range outs {
		if out.Index != i+1 || out.Name != wantNames[i] {
			t.Errorf("output %d: index=%d name=%q", i, out.Index, out.Name)
		}
		n, err := api.PageCount(bytes.NewReader(out.Data), nil)
		if err != nil {
			t.Fatalf("output %d page count: %v", i, err)
		}
		if n != len(wantTexts[i]) {
			t.Fatalf("output %d: %d pages, want %d", i, n, len(wantTexts[i]))
		}
		got := pageTexts(t, out.Data)
		for p := range wantTexts[i] {
			if got[p] != wantTexts[i][p] {
				t.Errorf("output %d page %d: text %q, want %q", i, p, got[p], wantTexts[i][p])
			}
		}
	}
}

func TestMaterializeSinglePageKeepsContent(t *testing.T) {
	src := pdftest.Build(pdftest.Text("Only page"))
	outs, err := New().Materialize(src, []segment.Segment{{Start: 0, End: 0}})
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if len(outs) != 1 {
		t.Fatalf("expected 1 output, got %d", len(outs))
	}
	if got, want := pageTexts(t, outs[0].Data), pageTexts(t, src); len(got) != 1 || got[0] != want[0] {
		t.Fatalf("content changed: %v vs %v", got, want)
	}
}

func TestMaterializeOutputsAreIndependent(t *testing.T) {
	src := pdftest.Build(pdftest.Text("A"), pdftest.Blank, pdftest.Text("B"))
	orig := append([]byte(nil), src...)
	outs, err := New().Materialize(src, []segment.Segment{{Start: 0, End: 0}, {Start: 2, End: 2}})
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if !bytes.Equal(src, orig) {
		t.Fatalf("source bytes were modified")
	}
	for i := range outs[0].Data {
		outs[0].Data[i] = 0
	}
	if got := pageTexts(t, outs[1].Data); got[0] != "B" {
		t.Fatalf("sibling output affected: %v", got)
	}
}

func TestMaterializeNoSegments(t *testing.T) {
	outs, err := New().Materialize(pdftest.Build(pdftest.Blank), nil)
	if err != nil || len(outs) != 0 {
		t.Fatalf("expected no outputs, got %d (%v)", len(outs), err)
	}
}

func TestMaterializeRejectsInvalidSegment(t *testing.T) {
	if _, err := New().Materialize(pdftest.Build(pdftest.Blank), []segment.Segment{{Start: 2, End: 1}}); err == nil {
		t.Fatalf("expected error for inverted segment")
	}
}

func TestPageCount(t *testing.T) {
	n, err := New().PageCount(pdftest.Build(pdftest.Blank, pdftest.Blank, pdftest.Text("x")))
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("PageCount() = %d", n)
	}
}

func TestConfigIsFreshAndRelaxed(t *testing.T) {
	m := New()
	a, b := m.config(), m.config()
	if a == b {
		t.Fatalf("config() must return a new configuration per call")
	}
	if a.ValidationMode != model.ValidationRelaxed {
		t.Fatalf("ValidationMode = %d, want relaxed", a.ValidationMode)
	}
}
