package config

import (
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level        string
    Pretty       bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// SplitConfig tunes page classification. The defaults reproduce the fixed
// blank-page rule; they are not meant to be tuned per run.
type SplitConfig struct {
    LuminanceThreshold  float64
    RasterDPI           float64
    OCRLanguages        []string
    ClassifyConcurrency int
}

// WorkerConfig defines async worker behavior and limits.
type WorkerConfig struct {
    Enabled     bool
    Concurrency int
    JobTimeout  time.Duration
    TempMaxAge  time.Duration
}

// QueueConfig defines queue connectivity and names.
type QueueConfig struct {
    RedisURL     string
    Stream       string
    Group        string
    PollInterval time.Duration
    StatusTTL    time.Duration
}

// StorageConfig defines where inputs are kept and results are delivered.
type StorageConfig struct {
    UploadDir      string
    ResultDir      string
    S3Bucket       string
    ResultS3Prefix string
    AWSRegion      string
    AWSAccessKey   string
    AWSSecretKey   string
}

// HTTPConfig defines the API surface.
type HTTPConfig struct {
    Port           string
    MaxUploadMB    int
    RateLimit      float64
    RateBurst      int
    Username       string
    PasswordBcrypt string
}

// Config is the top-level configuration.
type Config struct {
    Logging LoggingConfig
    Axiom   AxiomConfig
    Split   SplitConfig
    Worker  WorkerConfig
    Queue   QueueConfig
    Storage StorageConfig
    HTTP    HTTPConfig
}

// Load reads an optional .env file (existing variables win) and then the environment.
func Load(files ...string) Config {
    if len(files) == 0 {
        files = []string{".env"}
    }
    for _, f := range files {
        if _, err := os.Stat(f); err == nil {
            _ = godotenv.Load(f)
        }
    }
    return FromEnv()
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    // Logging defaults
    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/blanksplit.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    // Axiom defaults
    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_blanksplit",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    // Split defaults
    cfg.Split = SplitConfig{
        LuminanceThreshold:  parseFloat(getEnv("SPLIT_LUMINANCE_THRESHOLD", "245"), 245),
        RasterDPI:           parseFloat(getEnv("SPLIT_RASTER_DPI", "72"), 72),
        OCRLanguages:        parseList(getEnv("SPLIT_OCR_LANGUAGES", "eng")),
        ClassifyConcurrency: parseInt(getEnv("SPLIT_CLASSIFY_CONCURRENCY", "1"), 1),
    }
    if cfg.Split.ClassifyConcurrency < 1 { cfg.Split.ClassifyConcurrency = 1 }

    // Worker defaults
    cfg.Worker = WorkerConfig{
        Enabled:     parseBool(getEnv("RUN_DISPATCHER", "true")),
        Concurrency: parseInt(getEnv("WORKER_CONCURRENCY", "2"), 2),
        JobTimeout:  parseDuration(getEnv("JOB_TIMEOUT", "10m"), 10*time.Minute),
        TempMaxAge:  parseDuration(getEnv("TEMP_MAX_AGE", "1h"), time.Hour),
    }

    // Queue defaults
    cfg.Queue = QueueConfig{
        RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
        Stream:       getEnv("QUEUE_STREAM", "jobs:split"),
        Group:        getEnv("QUEUE_GROUP", "workers:split"),
        PollInterval: parseDuration(getEnv("QUEUE_POLL_INTERVAL", "2s"), 2*time.Second),
        StatusTTL:    parseDuration(getEnv("JOB_STATUS_TTL", "168h"), 7*24*time.Hour),
    }

    // Storage defaults
    uploadDir := getEnv("UPLOAD_DIR", "uploads")
    cfg.Storage = StorageConfig{
        UploadDir:      uploadDir,
        ResultDir:      getEnv("RESULT_DIR", uploadDir+"/results"),
        S3Bucket:       getEnv("AWS_S3_BUCKET", ""),
        ResultS3Prefix: strings.Trim(getEnv("RESULT_S3_PREFIX", "split"), "/"),
        AWSRegion:      getEnv("AWS_REGION", ""),
        AWSAccessKey:   getEnv("AWS_ACCESS_KEY_ID", ""),
        AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
    }

    // HTTP defaults
    cfg.HTTP = HTTPConfig{
        Port:           getEnv("PORT", "8080"),
        MaxUploadMB:    parseInt(getEnv("MAX_UPLOAD_MB", "64"), 64),
        RateLimit:      parseFloat(getEnv("HTTP_RATE_LIMIT", "5"), 5),
        RateBurst:      parseInt(getEnv("HTTP_RATE_BURST", "10"), 10),
        Username:       getEnv("API_USERNAME", ""),
        PasswordBcrypt: getEnv("API_PASSWORD_BCRYPT", ""),
    }

    return cfg
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseFloat(s string, def float64) float64 {
    if s == "" { return def }
    if f, err := strconv.ParseFloat(s, 64); err == nil { return f }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func parseList(s string) []string {
    var out []string
    for _, p := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '+' || r == ' ' }) {
        out = append(out, p)
    }
    return out
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
