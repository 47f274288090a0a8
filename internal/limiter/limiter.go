package limiter

import (
    "net"
    "net/http"
    "strings"
    "sync"
    "time"

    "golang.org/x/time/rate"
)

// PerClient hands out one token bucket per client address.
type PerClient struct {
    limit   rate.Limit
    burst   int
    idleTTL time.Duration

    mu      sync.Mutex
    clients map[string]*client
}

type client struct {
    lim  *rate.Limiter
    seen time.Time
}

type Options struct {
    PerSecond float64
    Burst     int
    IdleTTL   time.Duration
}

func New(opts Options) *PerClient {
    if opts.Burst <= 0 { opts.Burst = 1 }
    if opts.IdleTTL <= 0 { opts.IdleTTL = 10 * time.Minute }
    lim := rate.Limit(opts.PerSecond)
    if opts.PerSecond <= 0 { lim = rate.Inf }
    return &PerClient{limit: lim, burst: opts.Burst, idleTTL: opts.IdleTTL, clients: map[string]*client{}}
}

// Allow consumes one token for key.
func (p *PerClient) Allow(key string) bool {
    now := time.Now()
    p.mu.Lock()
    defer p.mu.Unlock()
    c, ok := p.clients[key]
    if !ok {
        c = &client{lim: rate.NewLimiter(p.limit, p.burst)}
        p.clients[key] = c
    }
    c.seen = now
    p.evict(now)
    return c.lim.AllowN(now, 1)
}

// evict drops buckets idle for longer than idleTTL. Caller holds mu.
func (p *PerClient) evict(now time.Time) {
    for k, c := range p.clients {
        if now.Sub(c.seen) > p.idleTTL { delete(p.clients, k) }
    }
}

// Middleware rejects requests over the limit with 429.
func (p *PerClient) Middleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if !p.Allow(ClientKey(r)) {
            w.Header().Set("Retry-After", "1")
            http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
            return
        }
        next.ServeHTTP(w, r)
    })
}

// ClientKey identifies the caller, preferring the first X-Forwarded-For hop.
func ClientKey(r *http.Request) string {
    if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
        return strings.TrimSpace(strings.Split(fwd, ",")[0])
    }
    host, _, err := net.SplitHostPort(r.RemoteAddr)
    if err != nil { return r.RemoteAddr }
    return host
}
