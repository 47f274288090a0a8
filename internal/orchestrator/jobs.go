package orchestrator

import (
    "encoding/json"
    "fmt"
    "net/http"
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"

    "github.com/local/blanksplit/internal/queue"
    "github.com/local/blanksplit/internal/storage"
    "github.com/local/blanksplit/internal/store"
)

type jobReq struct {
    FilePath string `json:"file_path"`
    FileURL  string `json:"file_url"`
    UserName string `json:"user_name"`
    UserID   string `json:"user_id"`
    Source   string `json:"source"`
}

type jobResp struct {
    Status   string         `json:"status"`
    JobID    string         `json:"job_id"`
    Message  string         `json:"message"`
    Metadata map[string]any `json:"metadata,omitempty"`
}

func (o *Orchestrator) asyncReady(w http.ResponseWriter) bool {
    if o.deps.Queue == nil || o.deps.Status == nil {
        http.Error(w, "job queue unavailable", http.StatusServiceUnavailable)
        return false
    }
    return true
}

// checkRef accepts remote refs as is and confines local paths to the upload dir.
func (o *Orchestrator) checkRef(ref string) (string, error) {
    switch {
    case strings.HasPrefix(ref, "s3://"):
        if _, _, err := storage.ParseS3URL(ref); err != nil { return "", err }
        return ref, nil
    case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
        return ref, nil
    }
    path := strings.TrimPrefix(ref, "file://")
    root, err := filepath.Abs(o.deps.UploadDir)
    if err != nil { return "", err }
    abs, err := filepath.Abs(path)
    if err != nil { return "", err }
    if abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator)) {
        return "", fmt.Errorf("local paths must be under %s", o.deps.UploadDir)
    }
    return "file://" + abs, nil
}

// enqueue records the queued status and pushes the job.
func (o *Orchestrator) enqueue(r *http.Request, job queue.Job, meta map[string]any) error {
    payload, err := job.Encode()
    if err != nil { return err }
    start := time.Now()
    meta["ref"] = job.Ref
    meta["user"] = job.User
    meta["source"] = job.Source
    if err := o.deps.Status.Set(r.Context(), job.JobID, store.Status{Status: store.StateQueued, Message: "queued", Start: &start, Metadata: meta}); err != nil {
        return fmt.Errorf("record status: %w", err)
    }
    if err := o.deps.Queue.Enqueue(r.Context(), payload); err != nil {
        return fmt.Errorf("enqueue: %w", err)
    }
    log.Info().Str("job_id", job.JobID).Str("ref", job.Ref).Str("user", job.User).Str("source", job.Source).Msg("job created")
    return nil
}

func (o *Orchestrator) handleCreateJob(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    if !o.asyncReady(w) { return }
    defer r.Body.Close()
    var req jobReq
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil { http.Error(w, "invalid json", http.StatusBadRequest); return }

    ref := req.FileURL
    if ref == "" { ref = req.FilePath }
    user := req.UserName
    if user == "" { user = req.UserID }
    if ref == "" || user == "" {
        http.Error(w, "missing file_path/file_url or user_name/user_id", http.StatusBadRequest); return
    }
    ref, err := o.checkRef(ref)
    if err != nil { http.Error(w, err.Error(), http.StatusBadRequest); return }
    source := req.Source
    if source == "" { source = "api" }

    job := queue.Job{JobID: uuid.NewString(), Ref: ref, User: user, Source: source}
    if err := o.enqueue(r, job, map[string]any{}); err != nil {
        log.Error().Err(err).Str("job_id", job.JobID).Msg("create job failed")
        http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
        return
    }
    writeJSON(w, http.StatusCreated, jobResp{Status: "ok", JobID: job.JobID, Message: "Split job created",
        Metadata: map[string]any{"timestamp": time.Now().Format(time.RFC3339)}})
}

// handleUploadJob stores a multipart upload under the upload dir and enqueues it.
func (o *Orchestrator) handleUploadJob(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    if !o.asyncReady(w) { return }
    data, name, err := o.readUpload(w, r)
    if err != nil { http.Error(w, err.Error(), http.StatusBadRequest); return }
    user := r.FormValue("user_name")
    if user == "" { http.Error(w, "missing user_name", http.StatusBadRequest); return }

    jobID := uuid.NewString()
    localPath, err := storage.SaveUpload(o.deps.UploadDir, jobID, name, data)
    if err != nil {
        log.Error().Err(err).Str("job_id", jobID).Msg("save upload failed")
        http.Error(w, "cannot save upload", http.StatusInternalServerError); return
    }
    job := queue.Job{JobID: jobID, Ref: "file://" + localPath, User: user, Source: "upload"}
    if err := o.enqueue(r, job, map[string]any{"file_local": localPath, "file_name": name}); err != nil {
        _ = os.Remove(localPath)
        log.Error().Err(err).Str("job_id", jobID).Msg("create upload job failed")
        http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
        return
    }
    writeJSON(w, http.StatusCreated, jobResp{Status: "ok", JobID: jobID, Message: "Upload job created"})
}

func (o *Orchestrator) handleProgress(w http.ResponseWriter, r *http.Request) {
    if o.deps.Status == nil { http.Error(w, "status store unavailable", http.StatusServiceUnavailable); return }
    id := strings.TrimPrefix(r.URL.Path, "/progress/")
    st, ok, err := o.deps.Status.Get(r.Context(), id)
    if err != nil { http.Error(w, "error", http.StatusInternalServerError); return }
    if !ok { http.Error(w, "not found", http.StatusNotFound); return }
    writeJSON(w, http.StatusOK, map[string]any{
        "success":    st.Status == store.StateSuccess,
        "job_id":     id,
        "status":     st.Status,
        "progress":   st.Progress,
        "message":    st.Message,
        "start_time": st.Start,
        "end_time":   st.End,
        "metadata":   st.Metadata,
    })
}

// handleDownload serves the ZIP of a job whose results were kept locally.
func (o *Orchestrator) handleDownload(w http.ResponseWriter, r *http.Request) {
    if o.deps.Status == nil { http.Error(w, "status store unavailable", http.StatusServiceUnavailable); return }
    id := strings.TrimPrefix(r.URL.Path, "/download/")
    st, ok, err := o.deps.Status.Get(r.Context(), id)
    if err != nil || !ok { http.Error(w, "not found", http.StatusNotFound); return }
    if st.Status != store.StateSuccess { http.Error(w, "not ready", http.StatusAccepted); return }
    p, _ := st.Metadata["result_zip"].(string)
    if p == "" {
        if urls, ok := st.Metadata["result_s3_urls"]; ok {
            writeJSON(w, http.StatusConflict, map[string]any{"job_id": id, "message": "results delivered to S3", "result_s3_urls": urls})
            return
        }
        http.Error(w, "result not available", http.StatusNotFound); return
    }
    f, err := os.Open(p)
    if err != nil { http.Error(w, "failed to read", http.StatusInternalServerError); return }
    defer f.Close()
    info, err := f.Stat()
    if err != nil { http.Error(w, "failed to read", http.StatusInternalServerError); return }
    name := id + ".zip"
    if orig, _ := st.Metadata["file_name"].(string); orig != "" { name = zipName(orig) }
    w.Header().Set("Content-Type", "application/zip")
    w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
    http.ServeContent(w, r, name, info.ModTime(), f)
}

type cancelReq struct {
    JobID  string `json:"job_id"`
    Reason string `json:"reason,omitempty"`
}

func (o *Orchestrator) handleCancelJob(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    if !o.asyncReady(w) { return }
    var req cancelReq
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil { http.Error(w, "invalid json", http.StatusBadRequest); return }
    if req.JobID == "" { http.Error(w, "missing job_id", http.StatusBadRequest); return }
    st, ok, err := o.deps.Status.Get(r.Context(), req.JobID)
    if err != nil { http.Error(w, "error", http.StatusInternalServerError); return }
    if ok && st.Terminal() {
        writeJSON(w, http.StatusConflict, map[string]any{"success": false, "job_id": req.JobID, "status": st.Status})
        return
    }
    if err := o.deps.Queue.CancelJob(r.Context(), req.JobID); err != nil {
        http.Error(w, "cancel failed", http.StatusInternalServerError); return
    }
    if !ok { st = store.Status{} }
    st.Status = store.StateCancelled
    st.Progress = 0
    if req.Reason != "" { st.Message = fmt.Sprintf("Cancelled: %s", req.Reason) } else { st.Message = "Cancelled" }
    now := time.Now()
    st.End = &now
    _ = o.deps.Status.Set(r.Context(), req.JobID, st)
    log.Info().Str("job_id", req.JobID).Str("reason", req.Reason).Msg("job cancelled")
    writeJSON(w, http.StatusOK, map[string]any{"success": true, "job_id": req.JobID, "status": store.StateCancelled})
}
