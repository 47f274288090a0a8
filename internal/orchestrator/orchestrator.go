package orchestrator

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "path/filepath"
    "strings"

    "github.com/rs/zerolog/log"

    "github.com/local/blanksplit/internal/limiter"
    "github.com/local/blanksplit/internal/metrics"
    "github.com/local/blanksplit/internal/pipeline"
    "github.com/local/blanksplit/internal/segment"
    "github.com/local/blanksplit/internal/statuscheck"
    "github.com/local/blanksplit/internal/store"
)

type Splitter interface {
    Split(ctx context.Context, data []byte) (pipeline.Result, error)
}

type Queue interface {
    Enqueue(ctx context.Context, payload []byte) error
    CancelJob(ctx context.Context, jobID string) error
}

type StatusStore interface {
    Set(ctx context.Context, jobID string, st store.Status) error
    Get(ctx context.Context, jobID string) (store.Status, bool, error)
}

type StatusReporter interface {
    Summary(ctx context.Context) statuscheck.Summary
}

// Dependencies wires the API. Queue and Status may be nil, in which case only
// the synchronous routes are served.
type Dependencies struct {
    Splitter       Splitter
    Queue          Queue
    Status         StatusStore
    Checker        StatusReporter
    Limiter        *limiter.PerClient
    Auth           Credentials
    UploadDir      string
    MaxUploadBytes int64
}

type Orchestrator struct {
    deps Dependencies
}

func New(deps Dependencies) *Orchestrator {
    if deps.UploadDir == "" { deps.UploadDir = "uploads" }
    if deps.MaxUploadBytes <= 0 { deps.MaxUploadBytes = 64 << 20 }
    return &Orchestrator{deps: deps}
}

func (o *Orchestrator) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); _, _ = w.Write([]byte("ok")) })
    mux.Handle("/metrics", metrics.Handler())
    mux.HandleFunc("/status", o.handleStatus)
    mux.HandleFunc("/split", o.handleSplit)
    mux.HandleFunc("/jobs", o.handleCreateJob)
    mux.HandleFunc("/jobs/upload", o.handleUploadJob)
    mux.HandleFunc("/progress/", o.handleProgress)
    mux.HandleFunc("/download/", o.handleDownload)
    mux.HandleFunc("/webhook/cancel_job", o.handleCancelJob)
}

// Handler returns the routes behind rate limiting and optional basic auth.
// Liveness and metrics stay open.
func (o *Orchestrator) Handler() http.Handler {
    mux := http.NewServeMux()
    o.RegisterRoutes(mux)
    guarded := o.requireAuth(mux)
    if o.deps.Limiter != nil { guarded = o.deps.Limiter.Middleware(guarded) }
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
            mux.ServeHTTP(w, r)
            return
        }
        guarded.ServeHTTP(w, r)
    })
}

func (o *Orchestrator) handleStatus(w http.ResponseWriter, r *http.Request) {
    if o.deps.Checker == nil { http.Error(w, "status checks not configured", http.StatusServiceUnavailable); return }
    sum := o.deps.Checker.Summary(r.Context())
    code := http.StatusOK
    if !sum.Healthy() { code = http.StatusServiceUnavailable }
    writeJSON(w, code, sum)
}

// splitErrorStatus maps pipeline failures onto HTTP codes.
func splitErrorStatus(err error) int {
    switch {
    case errors.Is(err, segment.ErrSourceUnreadable):
        return http.StatusUnprocessableEntity
    case errors.Is(err, context.DeadlineExceeded):
        return http.StatusGatewayTimeout
    default:
        return http.StatusInternalServerError
    }
}

func writeJSON(w http.ResponseWriter, code int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(code)
    if err := json.NewEncoder(w).Encode(v); err != nil {
        log.Warn().Err(err).Msg("write json response failed")
    }
}

// zipName derives the download name from an uploaded file name.
func zipName(upload string) string {
    base := filepath.Base(upload)
    base = strings.TrimSuffix(base, filepath.Ext(base))
    if base == "" || base == "." || base == string(filepath.Separator) { base = "documents" }
    return base + ".zip"
}
