package orchestrator

import (
    "fmt"
    "io"
    "net/http"
    "strconv"

    "github.com/rs/zerolog/log"

    "github.com/local/blanksplit/internal/archive"
    "github.com/local/blanksplit/internal/pipeline"
)

type splitSummary struct {
    Pages     int           `json:"pages"`
    Segments  []segmentView `json:"segments"`
    Documents []string      `json:"documents"`
    Blank     []int         `json:"blank_pages"`
    Millis    int64         `json:"duration_ms"`
}

type segmentView struct {
    Start int `json:"start"`
    End   int `json:"end"`
}

func summarize(res pipeline.Result) splitSummary {
    s := splitSummary{Pages: res.Pages, Millis: res.Duration.Milliseconds(), Segments: []segmentView{}, Documents: []string{}, Blank: []int{}}
    for _, seg := range res.Segments { s.Segments = append(s.Segments, segmentView{Start: seg.Start, End: seg.End}) }
    for _, d := range res.Documents { s.Documents = append(s.Documents, d.Name) }
    for _, c := range res.Classifications {
        if c.Blank { s.Blank = append(s.Blank, c.Page) }
    }
    return s
}

// readUpload pulls the "file" part of a multipart request, bounded by the upload limit.
func (o *Orchestrator) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
    r.Body = http.MaxBytesReader(w, r.Body, o.deps.MaxUploadBytes)
    if err := r.ParseMultipartForm(32 << 20); err != nil {
        return nil, "", fmt.Errorf("invalid multipart form: %w", err)
    }
    file, hdr, err := r.FormFile("file")
    if err != nil { return nil, "", fmt.Errorf("missing file") }
    defer file.Close()
    data, err := io.ReadAll(file)
    if err != nil { return nil, "", fmt.Errorf("read upload: %w", err) }
    return data, hdr.Filename, nil
}

// handleSplit runs the split inline and answers with a ZIP of the documents,
// or with a JSON summary when format=json.
func (o *Orchestrator) handleSplit(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    if o.deps.Splitter == nil { http.Error(w, "splitter unavailable", http.StatusServiceUnavailable); return }
    data, name, err := o.readUpload(w, r)
    if err != nil { http.Error(w, err.Error(), http.StatusBadRequest); return }

    res, err := o.deps.Splitter.Split(r.Context(), data)
    if err != nil {
        log.Error().Err(err).Str("file", name).Msg("split failed")
        http.Error(w, err.Error(), splitErrorStatus(err))
        return
    }
    log.Info().Str("file", name).Int("pages", res.Pages).Int("segments", len(res.Segments)).Msg("split served")

    if r.URL.Query().Get("format") == "json" {
        writeJSON(w, http.StatusOK, summarize(res))
        return
    }
    w.Header().Set("Content-Type", "application/zip")
    w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", zipName(name)))
    w.Header().Set("X-Pages", strconv.Itoa(res.Pages))
    w.Header().Set("X-Segments", strconv.Itoa(len(res.Segments)))
    if err := archive.WriteZip(w, res.Documents); err != nil {
        log.Error().Err(err).Str("file", name).Msg("write zip response failed")
    }
}
