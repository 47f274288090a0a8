package ocr

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/local/blanksplit/internal/segment"
)

type stubEngine struct {
	dets []Detection
	err  error
}

func (s stubEngine) Name() string { return "stub" }

func (s stubEngine) Detect(context.Context, segment.Raster) ([]Detection, error) {
	return s.dets, s.err
}

func TestDetectorKeepsTextOnly(t *testing.T) {
	d := Detector{Engine: stubEngine{dets: []Detection{
		{Text: "Dear", X: 10, Confidence: 0.9},
		{Text: "Customer,", X: 40, Confidence: 0.4},
	}}}
	got, err := d.DetectText(context.Background(), segment.Raster{})
	if err != nil {
		t.Fatalf("DetectText() error = %v", err)
	}
	if want := []string{"Dear", "Customer,"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if joined := segment.JoinFragments(got); joined != "Dear Customer," {
		t.Fatalf("joined = %q", joined)
	}
}

func TestDetectorPropagatesErrors(t *testing.T) {
	boom := errors.New("engine down")
	d := Detector{Engine: stubEngine{err: boom}}
	if _, err := d.DetectText(context.Background(), segment.Raster{}); !errors.Is(err, boom) {
		t.Fatalf("expected engine error, got %v", err)
	}
}

func TestTesseractRejectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTesseractEngine().Detect(ctx, segment.Raster{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
