package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/local/blanksplit/internal/pdfsplit"
	"github.com/local/blanksplit/internal/pipeline"
	"github.com/local/blanksplit/internal/segment"
)

type stubSplitter struct{ res pipeline.Result }

func (s stubSplitter) Split(context.Context, []byte) (pipeline.Result, error) { return s.res, nil }

func stubResult() pipeline.Result {
	seg := segment.Segment{Start: 1, End: 2}
	return pipeline.Result{
		Pages:     4,
		Segments:  []segment.Segment{seg},
		Documents: []pdfsplit.Output{{Index: 1, Name: pdfsplit.Name(1), Segment: seg, Data: []byte("%PDF-x")}},
	}
}

func TestParseFlagsDefaultsOutDir(t *testing.T) {
	opts, err := parseFlags([]string{"-in", "/data/bundle.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.outDir != "/data/bundle_split" {
		t.Fatalf("outDir = %q", opts.outDir)
	}

	opts, err = parseFlags([]string{"-zip", "scan.pdf"})
	if err != nil || opts.inPath != "scan.pdf" || !opts.zip {
		t.Fatalf("positional input: %+v (%v)", opts, err)
	}
}

func TestParseFlagsRequiresInput(t *testing.T) {
	if _, err := parseFlags(nil); err == nil {
		t.Fatalf("expected error without input")
	}
}

func TestRunWritesDocumentsAndZip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bundle.pdf")
	if err := os.WriteFile(in, []byte("%PDF-in"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")
	var stdout bytes.Buffer
	err := run(context.Background(), options{inPath: in, outDir: out, zip: true}, stubSplitter{res: stubResult()}, &stdout)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(out, "document_1.pdf"))
	if err != nil || string(data) != "%PDF-x" {
		t.Fatalf("document_1.pdf = %q (%v)", data, err)
	}
	zr, err := zip.OpenReader(out + ".zip")
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()
	if len(zr.File) != 1 || zr.File[0].Name != "document_1.pdf" {
		t.Fatalf("zip entries %v", zr.File)
	}
	if !strings.Contains(stdout.String(), "1 documents") {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestRunReport(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bundle.pdf")
	if err := os.WriteFile(in, []byte("%PDF-in"), 0o644); err != nil {
		t.Fatal(err)
	}
	var stdout bytes.Buffer
	if err := run(context.Background(), options{inPath: in, outDir: filepath.Join(dir, "o"), report: true}, stubSplitter{res: stubResult()}, &stdout); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("report is not json: %v", err)
	}
	if got["pages"] != float64(4) {
		t.Fatalf("report = %v", got)
	}
}
