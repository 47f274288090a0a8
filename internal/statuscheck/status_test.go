package statuscheck

import (
    "context"
    "errors"
    "strings"
    "testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type headFunc func(ctx context.Context) error

func (f headFunc) HeadBucket(ctx context.Context) error { return f(ctx) }

func TestSummaryAllHealthy(t *testing.T) {
    c := New(Options{
        Redis:     pingFunc(func(context.Context) error { return nil }),
        S3:        headFunc(func(context.Context) error { return nil }),
        Tesseract: func() (bool, string) { return true, "5.3.0" },
        MuPDF:     func() error { return nil },
    })
    s := c.Summary(context.Background())
    if !s.Redis.OK || !s.S3.OK || !s.Tesseract.OK || !s.MuPDF.OK {
        t.Fatalf("expected all OK, got %+v", s)
    }
    if !strings.Contains(s.Tesseract.Message, "5.3.0") {
        t.Fatalf("tesseract message %q lacks version", s.Tesseract.Message)
    }
    if !s.Healthy() {
        t.Fatalf("Healthy() = false")
    }
}

func TestSummaryFailures(t *testing.T) {
    c := New(Options{
        Redis:     pingFunc(func(context.Context) error { return errors.New("connection refused") }),
        S3:        headFunc(func(context.Context) error { return context.DeadlineExceeded }),
        Tesseract: func() (bool, string) { return false, "" },
        MuPDF:     func() error { return errors.New(strings.Repeat("x", 300)) },
    })
    s := c.Summary(context.Background())
    if s.Redis.OK || s.Redis.Message != "connection refused" {
        t.Fatalf("redis = %+v", s.Redis)
    }
    if s.S3.OK || s.S3.Message != "timeout" {
        t.Fatalf("s3 = %+v", s.S3)
    }
    if s.Tesseract.OK {
        t.Fatalf("tesseract should be down")
    }
    if s.MuPDF.OK || len(s.MuPDF.Message) != 120 {
        t.Fatalf("mupdf = %+v", s.MuPDF)
    }
    if s.Healthy() {
        t.Fatalf("Healthy() = true")
    }
}

func TestSummaryUnconfigured(t *testing.T) {
    s := New(Options{}).Summary(context.Background())
    if s.Redis.OK || s.S3.OK || s.Tesseract.OK || s.MuPDF.OK {
        t.Fatalf("unconfigured checks must not report OK: %+v", s)
    }
}
