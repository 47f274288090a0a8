package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Fetcher resolves a document reference to its bytes. Supported refs:
// s3://bucket/key, http(s)://..., file://path and plain filesystem paths.
type Fetcher struct {
	HTTP     *http.Client
	S3       *S3Client
	MaxBytes int64
}

// Fetch reads the referenced document. A trailing #fragment is ignored.
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if i := strings.Index(ref, "#"); i >= 0 {
		ref = ref[:i]
	}
	switch {
	case strings.HasPrefix(ref, "s3://"):
		if f.S3 == nil {
			return nil, fmt.Errorf("s3 not configured for %s", ref)
		}
		bucket, key, err := ParseS3URL(ref)
		if err != nil {
			return nil, err
		}
		return f.S3.DownloadFile(ctx, bucket, key)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return f.fetchHTTP(ctx, ref)
	case strings.HasPrefix(ref, "file://"):
		return os.ReadFile(strings.TrimPrefix(ref, "file://"))
	default:
		return os.ReadFile(ref)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	client := f.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	var r io.Reader = resp.Body
	if f.MaxBytes > 0 {
		r = io.LimitReader(resp.Body, f.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if f.MaxBytes > 0 && int64(len(data)) > f.MaxBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", f.MaxBytes)
	}
	return data, nil
}
