package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/local/blanksplit/internal/pdfsplit"
)

func TestZipKeepsOrderAndNames(t *testing.T) {
	outs := []pdfsplit.Output{
		{Index: 1, Name: pdfsplit.Name(1), Data: []byte("first")},
		{Index: 2, Name: pdfsplit.Name(2), Data: []byte("second")},
	}
	data, err := Zip(outs)
	if err != nil {
		t.Fatalf("Zip() error = %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read zip: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(zr.File))
	}
	for i, f := range zr.File {
		if f.Name != outs[i].Name {
			t.Errorf("entry %d name %q, want %q", i, f.Name, outs[i].Name)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry: %v", err)
		}
		body, _ := io.ReadAll(rc)
		rc.Close()
		if !bytes.Equal(body, outs[i].Data) {
			t.Errorf("entry %d content %q", i, body)
		}
	}
}

func TestZipEmpty(t *testing.T) {
	data, err := Zip(nil)
	if err != nil {
		t.Fatalf("Zip() error = %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read zip: %v", err)
	}
	if len(zr.File) != 0 {
		t.Fatalf("expected empty archive")
	}
}
