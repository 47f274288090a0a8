package main

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/rs/zerolog/log"

    cfgpkg "github.com/local/blanksplit/internal/config"
    "github.com/local/blanksplit/internal/dispatcher"
    "github.com/local/blanksplit/internal/limiter"
    logpkg "github.com/local/blanksplit/internal/logger"
    "github.com/local/blanksplit/internal/metrics"
    "github.com/local/blanksplit/internal/mupdf"
    "github.com/local/blanksplit/internal/ocr"
    "github.com/local/blanksplit/internal/orchestrator"
    "github.com/local/blanksplit/internal/pipeline"
    "github.com/local/blanksplit/internal/queue"
    "github.com/local/blanksplit/internal/statuscheck"
    "github.com/local/blanksplit/internal/storage"
    "github.com/local/blanksplit/internal/store"
)

func main() {
    cfg := cfgpkg.Load()

    // Init logging
    if err := logpkg.Init(logpkg.FromConfig(cfg)); err != nil {
        fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
    }
    defer logpkg.Close()
    metrics.Init()

    splitter := pipeline.NewFromConfig(cfg.Split)
    if !ocr.Available() {
        log.Warn().Msg("tesseract binary not found; OCR may fail")
    }

    // Optional S3 for s3:// inputs and result delivery
    var s3c *storage.S3Client
    if cfg.Storage.S3Bucket != "" || cfg.Storage.AWSRegion != "" {
        c, err := storage.NewS3Client(context.Background(), storage.S3Options{
            Bucket:    cfg.Storage.S3Bucket,
            Region:    cfg.Storage.AWSRegion,
            AccessKey: cfg.Storage.AWSAccessKey,
            SecretKey: cfg.Storage.AWSSecretKey,
        })
        if err != nil {
            log.Warn().Err(err).Msg("S3 disabled")
        } else {
            s3c = c
        }
    }

    // Queue and status store; without Redis only the synchronous API runs
    deps := orchestrator.Dependencies{
        Splitter:       splitter,
        Limiter:        limiter.New(limiter.Options{PerSecond: cfg.HTTP.RateLimit, Burst: cfg.HTTP.RateBurst}),
        Auth:           orchestrator.Credentials{Username: cfg.HTTP.Username, PasswordHash: cfg.HTTP.PasswordBcrypt},
        UploadDir:      cfg.Storage.UploadDir,
        MaxUploadBytes: int64(cfg.HTTP.MaxUploadMB) << 20,
    }
    checkOpts := statuscheck.Options{
        Tesseract: func() (bool, string) {
            if !ocr.Available() { return false, "" }
            return true, ocr.Version()
        },
        MuPDF: mupdf.Probe,
    }
    if s3c != nil && s3c.Bucket() != "" { checkOpts.S3 = s3c }

    var worker *dispatcher.Worker
    rq, err := queue.NewRedisQueue(cfg.Queue.RedisURL, cfg.Queue.Stream, cfg.Queue.Group)
    if err != nil {
        log.Warn().Err(err).Msg("redis unavailable; async jobs disabled")
    } else {
        defer rq.Close()
        rs, err := store.NewRedisStatus(cfg.Queue.RedisURL, cfg.Queue.StatusTTL)
        if err != nil {
            log.Fatal().Err(err).Msg("failed to init redis status store")
        }
        defer rs.Close()
        deps.Queue = rq
        deps.Status = rs
        checkOpts.Redis = rq

        if cfg.Worker.Enabled {
            wdeps := dispatcher.Dependencies{
                Queue:    rq,
                Status:   rs,
                Fetcher:  &storage.Fetcher{HTTP: &http.Client{Timeout: 2 * time.Minute}, S3: s3c, MaxBytes: int64(cfg.HTTP.MaxUploadMB) << 20},
                Splitter: splitter,
            }
            if s3c != nil { wdeps.Uploader = s3c }
            worker = dispatcher.New(dispatcher.Config{
                Concurrency:    cfg.Worker.Concurrency,
                JobTimeout:     cfg.Worker.JobTimeout,
                PollTimeout:    cfg.Queue.PollInterval,
                DepthInterval:  15 * time.Second,
                ResultDir:      cfg.Storage.ResultDir,
                ResultS3Prefix: cfg.Storage.ResultS3Prefix,
                UploadDir:      cfg.Storage.UploadDir,
                TempMaxAge:     cfg.Worker.TempMaxAge,
            }, wdeps)
            worker.Start()
        }
    }
    deps.Checker = statuscheck.New(checkOpts)

    orch := orchestrator.New(deps)
    srv := &http.Server{Addr: ":" + cfg.HTTP.Port, Handler: orch.Handler(), ReadHeaderTimeout: 10 * time.Second}

    go func() {
        log.Info().Str("port", cfg.HTTP.Port).Bool("async", deps.Queue != nil).Msg("HTTP server listening")
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop
    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()
    _ = srv.Shutdown(ctx)
    if worker != nil {
        if err := worker.Stop(ctx); err != nil {
            log.Warn().Err(err).Msg("workers did not drain before shutdown deadline")
        }
    }
    log.Info().Msg("shutdown complete")
}
