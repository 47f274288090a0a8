package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/local/blanksplit/internal/archive"
	"github.com/local/blanksplit/internal/pdfsplit"
)

// LocalResult describes a job's outputs written to disk.
type LocalResult struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
	Zip   string   `json:"zip"`
}

// SaveOutputsToLocal writes document_<n>.pdf files under dir/<jobID>/ plus a
// <jobID>.zip bundle next to them.
func SaveOutputsToLocal(dir, jobID string, outputs []pdfsplit.Output) (LocalResult, error) {
	jobDir := filepath.Join(dir, jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return LocalResult{}, err
	}
	res := LocalResult{Dir: jobDir}
	for _, out := range outputs {
		p := filepath.Join(jobDir, out.Name)
		if err := os.WriteFile(p, out.Data, 0o644); err != nil {
			return LocalResult{}, fmt.Errorf("write %s: %w", out.Name, err)
		}
		res.Files = append(res.Files, p)
	}
	zipData, err := archive.Zip(outputs)
	if err != nil {
		return LocalResult{}, err
	}
	res.Zip = filepath.Join(dir, jobID+".zip")
	if err := os.WriteFile(res.Zip, zipData, 0o644); err != nil {
		return LocalResult{}, fmt.Errorf("write zip: %w", err)
	}
	return res, nil
}

// UploadPrefix marks stored uploads so stale ones can be swept.
const UploadPrefix = "upload-"

// SaveUpload persists an uploaded file as <dir>/upload-<jobID>_<name> and returns its path.
func SaveUpload(dir, jobID, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name = filepath.Base(name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "upload.pdf"
	}
	p := filepath.Join(dir, fmt.Sprintf("%s%s_%s", UploadPrefix, jobID, name))
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", err
	}
	return p, nil
}

// CleanupStale removes files and job directories directly under dir that are
// older than maxAge. Names must start with one of prefixes when any are given.
func CleanupStale(dir string, maxAge time.Duration, prefixes ...string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	now := time.Now()
	removed := 0
	for _, e := range entries {
		if len(prefixes) > 0 && !hasAnyPrefix(e.Name(), prefixes) {
			continue
		}
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if os.RemoveAll(filepath.Join(dir, e.Name())) == nil {
			removed++
		}
	}
	return removed
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
