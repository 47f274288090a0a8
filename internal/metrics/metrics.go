package metrics

import (
    "net/http"
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    pagesClassified = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "blanksplit",
            Name:      "pages_classified_total",
            Help:      "Pages classified by result (blank, content, error)",
        },
        []string{"result"},
    )

    documentsProduced = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "blanksplit",
            Name:      "documents_produced_total",
            Help:      "Total sub-documents materialized",
        },
    )

    splitLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "blanksplit",
            Name:      "split_duration_seconds",
            Help:      "Duration of split runs by result",
            Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
        },
        []string{"result"},
    )

    jobsTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "blanksplit",
            Name:      "jobs_total",
            Help:      "Async jobs by result (success, failed, timeout, cancelled)",
        },
        []string{"result"},
    )

    queueDepth = prometheus.NewGaugeVec(
        prometheus.GaugeOpts{
            Namespace: "blanksplit",
            Name:      "queue_depth",
            Help:      "Queue depth gauges for stream and dlq",
        },
        []string{"type"},
    )

    registerOnce sync.Once
)

// Init registers collectors. Safe to call more than once.
func Init() {
    registerOnce.Do(func() {
        prometheus.MustRegister(pagesClassified, documentsProduced, splitLatency, jobsTotal, queueDepth)
    })
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObservePage(blank bool) {
    if blank {
        pagesClassified.WithLabelValues("blank").Inc()
        return
    }
    pagesClassified.WithLabelValues("content").Inc()
}

func IncPageError() { pagesClassified.WithLabelValues("error").Inc() }

func AddDocuments(n int) { documentsProduced.Add(float64(n)) }

func ObserveSplit(result string, dur time.Duration) {
    splitLatency.WithLabelValues(result).Observe(dur.Seconds())
}

func IncJob(result string) { jobsTotal.WithLabelValues(result).Inc() }

func SetQueueDepth(kind string, v int64) { queueDepth.WithLabelValues(kind).Set(float64(v)) }
