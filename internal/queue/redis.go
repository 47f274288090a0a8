package queue

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    redis "github.com/redis/go-redis/v9"
)

// RedisQueue carries split jobs over a Redis stream read by a consumer group.
// Failed jobs go to a sibling DLQ stream; cancellations live in a set.
type RedisQueue struct {
    client    *redis.Client
    Stream    string
    Group     string
    CancelKey string
    DLQStream string
}

// NewRedisQueue connects to Redis and ensures the stream and its group exist.
func NewRedisQueue(redisURL, stream, group string) (*RedisQueue, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil {
        return nil, fmt.Errorf("parse redis url: %w", err)
    }
    c := redis.NewClient(opt)
    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()
    if err := c.Ping(ctx).Err(); err != nil {
        _ = c.Close()
        return nil, fmt.Errorf("redis ping: %w", err)
    }
    q := NewWithClient(c, stream, group)
    if err := q.ensureGroup(ctx); err != nil {
        _ = c.Close()
        return nil, err
    }
    return q, nil
}

// NewWithClient wraps an existing client without touching the server.
func NewWithClient(c *redis.Client, stream, group string) *RedisQueue {
    return &RedisQueue{
        client:    c,
        Stream:    stream,
        Group:     group,
        CancelKey: stream + ":cancelled",
        DLQStream: stream + ":dlq",
    }
}

func (q *RedisQueue) ensureGroup(ctx context.Context) error {
    // MKSTREAM creates the stream when missing
    if err := q.client.XGroupCreateMkStream(ctx, q.Stream, q.Group, "$").Err(); err != nil && !isBusyGroupErr(err) {
        return fmt.Errorf("xgroup create: %w", err)
    }
    return nil
}

func isBusyGroupErr(err error) bool {
    if err == nil { return false }
    return strings.Contains(strings.ToUpper(err.Error()), "BUSYGROUP")
}

func (q *RedisQueue) Close() error { return q.client.Close() }

// Client exposes the connection for callers sharing it.
func (q *RedisQueue) Client() *redis.Client { return q.client }

// Ping checks redis connectivity.
func (q *RedisQueue) Ping(ctx context.Context) error { return q.client.Ping(ctx).Err() }

// Enqueue adds a job to the stream as a single-field entry {data: <json>}.
func (q *RedisQueue) Enqueue(ctx context.Context, payload []byte) error {
    return q.client.XAdd(ctx, &redis.XAddArgs{
        Stream: q.Stream,
        Values: map[string]any{"data": string(payload)},
    }).Err()
}

// Dequeue blocks up to timeout for one message. An empty id means nothing arrived.
func (q *RedisQueue) Dequeue(ctx context.Context, consumer string, timeout time.Duration) (string, []byte, error) {
    res, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
        Group:    q.Group,
        Consumer: consumer,
        Streams:  []string{q.Stream, ">"},
        Count:    1,
        Block:    timeout,
    }).Result()
    if err != nil {
        if errors.Is(err, redis.Nil) { return "", nil, nil }
        return "", nil, err
    }
    if len(res) == 0 || len(res[0].Messages) == 0 { return "", nil, nil }
    msg := res[0].Messages[0]
    switch t := msg.Values["data"].(type) {
    case string:
        return msg.ID, []byte(t), nil
    case []byte:
        return msg.ID, t, nil
    }
    return msg.ID, nil, nil
}

// Ack marks a message as processed.
func (q *RedisQueue) Ack(ctx context.Context, msgID string) error {
    if msgID == "" { return nil }
    return q.client.XAck(ctx, q.Stream, q.Group, msgID).Err()
}

// CancelJob marks a job as cancelled. Workers check this before processing.
func (q *RedisQueue) CancelJob(ctx context.Context, jobID string) error {
    return q.client.SAdd(ctx, q.CancelKey, jobID).Err()
}

// IsCancelled reports whether jobID was cancelled.
func (q *RedisQueue) IsCancelled(ctx context.Context, jobID string) (bool, error) {
    return q.client.SIsMember(ctx, q.CancelKey, jobID).Result()
}

// AddDLQ pushes a failed job to the DLQ stream with a reason.
func (q *RedisQueue) AddDLQ(ctx context.Context, payload []byte, reason string) error {
    return q.client.XAdd(ctx, &redis.XAddArgs{Stream: q.DLQStream, Values: map[string]any{"data": string(payload), "reason": reason}}).Err()
}

// Depths returns stream and DLQ lengths for metrics.
func (q *RedisQueue) Depths(ctx context.Context) (int64, int64, error) {
    pipe := q.client.Pipeline()
    xlen := pipe.XLen(ctx, q.Stream)
    dlen := pipe.XLen(ctx, q.DLQStream)
    if _, err := pipe.Exec(ctx); err != nil { return 0, 0, err }
    return xlen.Val(), dlen.Val(), nil
}
