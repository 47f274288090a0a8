package dispatcher

import (
    "context"
    "fmt"
    "os"
    "path"
    "strings"
    "sync"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/local/blanksplit/internal/logger"
    "github.com/local/blanksplit/internal/metrics"
    "github.com/local/blanksplit/internal/pipeline"
    "github.com/local/blanksplit/internal/queue"
    "github.com/local/blanksplit/internal/storage"
    "github.com/local/blanksplit/internal/store"
)

type Queue interface {
    Dequeue(ctx context.Context, consumer string, timeout time.Duration) (string, []byte, error)
    Ack(ctx context.Context, msgID string) error
    IsCancelled(ctx context.Context, jobID string) (bool, error)
    AddDLQ(ctx context.Context, payload []byte, reason string) error
}

// DepthReporter is implemented by queues that can report backlog sizes.
type DepthReporter interface {
    Depths(ctx context.Context) (int64, int64, error)
}

type StatusStore interface {
    Set(ctx context.Context, jobID string, st store.Status) error
    Get(ctx context.Context, jobID string) (store.Status, bool, error)
}

type Fetcher interface {
    Fetch(ctx context.Context, ref string) ([]byte, error)
}

type Splitter interface {
    Split(ctx context.Context, data []byte) (pipeline.Result, error)
}

type Uploader interface {
    UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string, meta map[string]string) (string, error)
}

type Config struct {
    Concurrency    int
    JobTimeout     time.Duration
    PollTimeout    time.Duration
    DepthInterval  time.Duration
    ResultDir      string
    ResultS3Prefix string
    UploadDir      string
    TempMaxAge     time.Duration
}

type Dependencies struct {
    Queue    Queue
    Status   StatusStore
    Fetcher  Fetcher
    Splitter Splitter
    // Uploader is optional; without it every job is delivered locally.
    Uploader Uploader
}

type Worker struct {
    cfg    Config
    deps   Dependencies
    ctx    context.Context
    cancel context.CancelFunc
    wg     sync.WaitGroup
}

func New(cfg Config, deps Dependencies) *Worker {
    if cfg.Concurrency <= 0 { cfg.Concurrency = 2 }
    if cfg.JobTimeout <= 0 { cfg.JobTimeout = 10 * time.Minute }
    if cfg.PollTimeout <= 0 { cfg.PollTimeout = 2 * time.Second }
    if cfg.ResultDir == "" { cfg.ResultDir = "uploads/results" }
    if cfg.ResultS3Prefix == "" { cfg.ResultS3Prefix = "split" }
    ctx, cancel := context.WithCancel(context.Background())
    return &Worker{cfg: cfg, deps: deps, ctx: ctx, cancel: cancel}
}

func (w *Worker) Start() {
    for i := 0; i < w.cfg.Concurrency; i++ {
        w.wg.Add(1)
        go w.loop(i)
    }
    if dr, ok := w.deps.Queue.(DepthReporter); ok && w.cfg.DepthInterval > 0 {
        w.wg.Add(1)
        go w.reportDepths(dr)
    }
}

// Stop signals the loops and waits for in-flight jobs, bounded by ctx.
func (w *Worker) Stop(ctx context.Context) error {
    w.cancel()
    done := make(chan struct{})
    go func() { w.wg.Wait(); close(done) }()
    select {
    case <-done:
        return nil
    case <-ctx.Done():
        return ctx.Err()
    }
}

func (w *Worker) loop(id int) {
    defer w.wg.Done()
    consumer := fmt.Sprintf("%s-%d", hostname(), id)
    log.Info().Int("worker", id).Str("consumer", consumer).Msg("split worker started")
    for {
        select {
        case <-w.ctx.Done():
            log.Info().Int("worker", id).Msg("split worker stopped")
            return
        default:
        }

        msgID, data, err := w.deps.Queue.Dequeue(w.ctx, consumer, w.cfg.PollTimeout)
        if err != nil {
            if w.ctx.Err() != nil { continue }
            log.Error().Err(err).Int("worker", id).Msg("queue dequeue error")
            time.Sleep(500 * time.Millisecond)
            continue
        }
        if msgID == "" { continue }

        w.Process(context.Background(), data)
        if err := w.deps.Queue.Ack(context.Background(), msgID); err != nil {
            log.Warn().Err(err).Str("msg_id", msgID).Msg("ack failed")
        }
    }
}

// Process runs one job payload to completion. Failures are recorded in the
// job status and the DLQ; nothing is retried.
func (w *Worker) Process(ctx context.Context, payload []byte) {
    job, err := queue.DecodeJob(payload)
    if err != nil {
        log.Error().Err(err).Msg("dropping undecodable job")
        w.deadLetter(ctx, payload, stageErr("decode", err))
        metrics.IncJob("failed")
        return
    }
    jl := logger.ForJob(job.JobID)

    if w.isCancelled(ctx, job.JobID) {
        jl.Warn().Msg("job cancelled before processing; skipping")
        metrics.IncJob("cancelled")
        w.removeUpload(job)
        return
    }

    st := w.currentStatus(ctx, job)
    w.update(ctx, job.JobID, &st, store.StateProcessing, 10, "fetching input")

    jobCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
    defer cancel()

    res, err := w.run(jobCtx, job, &st)
    if err == nil {
        if w.isCancelled(ctx, job.JobID) {
            jl.Warn().Msg("job cancelled during processing; discarding results")
            end := time.Now()
            st.End = &end
            w.update(ctx, job.JobID, &st, store.StateCancelled, st.Progress, "Cancelled")
            metrics.IncJob("cancelled")
            w.removeUpload(job)
            return
        }
        err = w.deliver(jobCtx, job, res, &st)
    }
    w.removeUpload(job)
    if err != nil {
        w.fail(ctx, job, payload, &st, err)
        return
    }

    end := time.Now()
    st.End = &end
    st.Metadata["pages"] = res.Pages
    st.Metadata["segments"] = segmentPairs(res)
    st.Metadata["documents"] = len(res.Documents)
    st.Metadata["blank_pages"] = blankPages(res)
    st.Metadata["duration_ms"] = res.Duration.Milliseconds()
    w.update(ctx, job.JobID, &st, store.StateSuccess, 100, fmt.Sprintf("split into %d documents", len(res.Documents)))
    metrics.IncJob("success")
    jl.Info().Int("pages", res.Pages).Int("segments", len(res.Segments)).Dur("duration", res.Duration).Msg("job completed")
}

func (w *Worker) run(ctx context.Context, job queue.Job, st *store.Status) (pipeline.Result, error) {
    data, err := w.deps.Fetcher.Fetch(ctx, job.Ref)
    if err != nil { return pipeline.Result{}, stageErr("fetch", err) }
    w.update(ctx, job.JobID, st, store.StateProcessing, 30, "classifying pages")
    res, err := w.deps.Splitter.Split(ctx, data)
    if err != nil { return pipeline.Result{}, stageErr("split", err) }
    w.update(ctx, job.JobID, st, store.StateProcessing, 80, "writing documents")
    return res, nil
}

// deliver writes outputs next to an S3 input when an uploader is configured,
// and to the local result dir otherwise.
func (w *Worker) deliver(ctx context.Context, job queue.Job, res pipeline.Result, st *store.Status) error {
    if strings.HasPrefix(job.Ref, "s3://") && w.deps.Uploader != nil {
        bucket, _, err := storage.ParseS3URL(job.Ref)
        if err != nil { return stageErr("deliver", err) }
        urls := make([]string, 0, len(res.Documents))
        for _, doc := range res.Documents {
            key := path.Join(w.cfg.ResultS3Prefix, job.JobID, doc.Name)
            meta := map[string]string{"job-id": job.JobID, "start-page": fmt.Sprint(doc.Segment.Start), "end-page": fmt.Sprint(doc.Segment.End)}
            u, err := w.deps.Uploader.UploadFile(ctx, bucket, key, doc.Data, "application/pdf", meta)
            if err != nil { return stageErr("deliver", err) }
            urls = append(urls, u)
        }
        st.Metadata["result_s3_urls"] = urls
        return nil
    }
    out, err := storage.SaveOutputsToLocal(w.cfg.ResultDir, job.JobID, res.Documents)
    if err != nil { return stageErr("deliver", err) }
    st.Metadata["result_dir"] = out.Dir
    st.Metadata["result_files"] = out.Files
    st.Metadata["result_zip"] = out.Zip
    return nil
}

func (w *Worker) fail(ctx context.Context, job queue.Job, payload []byte, st *store.Status, err error) {
    f := classifyFailure(err)
    jl := logger.ForJob(job.JobID)
    jl.Error().Err(err).Str("stage", f.Stage).Str("reason", f.Reason).Int("page", f.Page).Msg("job failed")
    st.Metadata["error_stage"] = f.Stage
    st.Metadata["error_reason"] = f.Reason
    if f.Page >= 0 { st.Metadata["failed_page"] = f.Page }
    end := time.Now()
    st.End = &end
    w.update(ctx, job.JobID, st, store.StateFailed, st.Progress, err.Error())
    w.deadLetter(ctx, payload, err)
    metrics.IncJob(f.Result)
}

func (w *Worker) deadLetter(ctx context.Context, payload []byte, err error) {
    if dlqErr := w.deps.Queue.AddDLQ(ctx, payload, err.Error()); dlqErr != nil {
        log.Error().Err(dlqErr).Msg("dlq push failed")
    }
}

// currentStatus keeps what the API recorded at enqueue time.
func (w *Worker) currentStatus(ctx context.Context, job queue.Job) store.Status {
    st, ok, err := w.deps.Status.Get(ctx, job.JobID)
    if err != nil || !ok {
        now := time.Now()
        st = store.Status{Start: &now}
    }
    if st.Metadata == nil {
        st.Metadata = map[string]any{"ref": job.Ref, "user": job.User, "source": job.Source}
    }
    return st
}

// isCancelled treats a failed lookup as not cancelled.
func (w *Worker) isCancelled(ctx context.Context, jobID string) bool {
    cancelled, err := w.deps.Queue.IsCancelled(ctx, jobID)
    if err != nil {
        jl := logger.ForJob(jobID)
        jl.Warn().Err(err).Msg("cancel check failed")
        return false
    }
    return cancelled
}

// update never overwrites a cancellation recorded by the API.
func (w *Worker) update(ctx context.Context, jobID string, st *store.Status, state string, progress int, msg string) {
    if state != store.StateCancelled {
        if cur, ok, err := w.deps.Status.Get(ctx, jobID); err == nil && ok && cur.Status == store.StateCancelled {
            log.Debug().Str("job_id", jobID).Str("state", state).Msg("job cancelled; status update skipped")
            return
        }
    }
    st.Status = state
    st.Progress = progress
    st.Message = msg
    if err := w.deps.Status.Set(ctx, jobID, *st); err != nil {
        log.Warn().Err(err).Str("job_id", jobID).Msg("status update failed")
    }
}

// removeUpload deletes the stored upload of an upload-origin job and sweeps
// orphans older than TempMaxAge.
func (w *Worker) removeUpload(job queue.Job) {
    if job.Source != "upload" { return }
    p := strings.TrimPrefix(job.Ref, "file://")
    if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
        log.Warn().Err(err).Str("job_id", job.JobID).Str("file", p).Msg("remove upload failed")
    }
    if w.cfg.UploadDir != "" && w.cfg.TempMaxAge > 0 {
        if n := storage.CleanupStale(w.cfg.UploadDir, w.cfg.TempMaxAge, storage.UploadPrefix); n > 0 {
            log.Info().Int("removed", n).Msg("cleaned stale uploads")
        }
    }
}

func (w *Worker) reportDepths(dr DepthReporter) {
    defer w.wg.Done()
    ticker := time.NewTicker(w.cfg.DepthInterval)
    defer ticker.Stop()
    for {
        select {
        case <-w.ctx.Done():
            return
        case <-ticker.C:
            ctx, cancel := context.WithTimeout(w.ctx, 2*time.Second)
            stream, dlq, err := dr.Depths(ctx)
            cancel()
            if err != nil { continue }
            metrics.SetQueueDepth("stream", stream)
            metrics.SetQueueDepth("dlq", dlq)
        }
    }
}

func segmentPairs(res pipeline.Result) [][2]int {
    out := make([][2]int, 0, len(res.Segments))
    for _, s := range res.Segments { out = append(out, [2]int{s.Start, s.End}) }
    return out
}

func blankPages(res pipeline.Result) []int {
    out := []int{}
    for _, c := range res.Classifications {
        if c.Blank { out = append(out, c.Page) }
    }
    return out
}

func hostname() string {
    h, err := os.Hostname()
    if err != nil || h == "" { return "worker" }
    return h
}
