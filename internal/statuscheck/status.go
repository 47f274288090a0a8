package statuscheck

import (
    "context"
    "errors"
    "time"
)

// Pinger models the minimal capability a remote dependency needs for status checks.
type Pinger interface {
    Ping(ctx context.Context) error
}

// BucketHeader is satisfied by the S3 storage client.
type BucketHeader interface {
    HeadBucket(ctx context.Context) error
}

// Checker aggregates health checks for the split service dependencies.
type Checker struct {
    redis     Pinger
    s3        BucketHeader
    tesseract func() (bool, string)
    mupdf     func() error
}

// Options configures the Checker.
type Options struct {
    Redis Pinger
    S3    BucketHeader
    // Tesseract reports availability and version of the OCR engine.
    Tesseract func() (bool, string)
    // MuPDF renders a probe document.
    MuPDF func() error
}

// Status represents the readiness of a subsystem.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
    Redis     Status `json:"redis"`
    S3        Status `json:"s3"`
    Tesseract Status `json:"tesseract"`
    MuPDF     Status `json:"mupdf"`
}

// Healthy reports whether the split path itself can run. Redis and S3 only
// serve the async API.
func (s Summary) Healthy() bool { return s.Tesseract.OK && s.MuPDF.OK }

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
    return &Checker{redis: opts.Redis, s3: opts.S3, tesseract: opts.Tesseract, mupdf: opts.MuPDF}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
    return Summary{
        Redis:     c.checkRedis(ctx),
        S3:        c.checkS3(ctx),
        Tesseract: c.checkTesseract(),
        MuPDF:     c.checkMuPDF(),
    }
}

func (c *Checker) checkRedis(ctx context.Context) Status {
    if c.redis == nil {
        return Status{OK: false, Message: "client unavailable"}
    }
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := c.redis.Ping(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
    if c.s3 == nil {
        return Status{OK: false, Message: "Bucket not configured"}
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if err := c.s3.HeadBucket(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkTesseract() Status {
    if c.tesseract == nil {
        return Status{OK: false, Message: "not configured"}
    }
    ok, version := c.tesseract()
    if !ok {
        return Status{OK: false, Message: "Binary not found"}
    }
    return Status{OK: true, Message: "Available " + version}
}

func (c *Checker) checkMuPDF() Status {
    if c.mupdf == nil {
        return Status{OK: false, Message: "not configured"}
    }
    if err := c.mupdf(); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Available"}
}

func trimError(err error) string {
    if err == nil {
        return ""
    }
    if errors.Is(err, context.DeadlineExceeded) {
        return "timeout"
    }
    var netErr interface{ Timeout() bool }
    if errors.As(err, &netErr) && netErr.Timeout() {
        return "timeout"
    }
    msg := err.Error()
    if len(msg) > 120 {
        return msg[:120]
    }
    return msg
}
