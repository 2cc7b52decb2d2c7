package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"saaspulse-sim/internal/config"
	"saaspulse-sim/internal/metrics"
)

// RedisWriter mirrors the live dashboard state into Redis: the latest
// snapshot as a hash, capped lists for both history windows and the
// activity feed, and a pub/sub channel carrying every snapshot.
type RedisWriter struct {
	client      *redis.Client
	prefix      string
	channel     string
	historyLen  int64
	activityLen int64
	timeout     time.Duration
}

// NewRedisWriter connects to Redis and verifies the connection.
func NewRedisWriter(ctx context.Context, cfg config.Redis, historyLen, activityLen int) (*RedisWriter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		MaxRetries: 3,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "saaspulse"
	}
	return &RedisWriter{
		client:      client,
		prefix:      prefix,
		channel:     cfg.Channel,
		historyLen:  int64(historyLen),
		activityLen: int64(activityLen),
		timeout:     2 * time.Second,
	}, nil
}

// SnapshotKey is the hash holding the latest snapshot.
func (w *RedisWriter) SnapshotKey() string { return w.prefix + ":snapshot" }

// HistoryKey is the list holding the window for series.
func (w *RedisWriter) HistoryKey(series string) string { return w.prefix + ":history:" + series }

// ActivityKey is the list holding the feed, newest first.
func (w *RedisWriter) ActivityKey() string { return w.prefix + ":activity" }

func (w *RedisWriter) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), w.timeout)
}

// WriteSnapshot stores the snapshot hash and publishes it.
func (w *RedisWriter) WriteSnapshot(s metrics.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	ctx, cancel := w.opContext()
	defer cancel()

	pipe := w.client.Pipeline()
	pipe.HSet(ctx, w.SnapshotKey(), map[string]any{
		"run_id":           s.RunID,
		"instance":         s.Instance,
		"op":               s.Op,
		"phase":            s.Phase,
		"mrr":              s.MRR,
		"customers":        s.Customers,
		"churn_rate":       s.ChurnRate,
		"open_tickets":     s.OpenTickets,
		"cpu":              s.Server.CPU,
		"memory":           s.Server.Memory,
		"storage":          s.Server.Storage,
		"uptime":           s.Server.Uptime,
		"segment_active":   s.Segments.Active,
		"segment_inactive": s.Segments.Inactive,
		"segment_new":      s.Segments.New,
		"ts":               s.Timestamp.Format(time.RFC3339Nano),
	})
	if w.channel != "" {
		pipe.Publish(ctx, w.channel, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis snapshot: %w", err)
	}
	return nil
}

// WriteHistory appends one history row.
func (w *RedisWriter) WriteHistory(row metrics.HistoryRow) error {
	return w.WriteHistoryBatch([]metrics.HistoryRow{row})
}

// WriteHistoryBatch appends rows to their series lists and trims each list
// to the window length.
func (w *RedisWriter) WriteHistoryBatch(rows []metrics.HistoryRow) error {
	if len(rows) == 0 {
		return nil
	}
	ctx, cancel := w.opContext()
	defer cancel()

	pipe := w.client.Pipeline()
	touched := make(map[string]bool)
	for _, r := range rows {
		data, err := json.Marshal(metrics.Point{Timestamp: r.Timestamp, Value: r.Value})
		if err != nil {
			return fmt.Errorf("failed to marshal history point: %w", err)
		}
		key := w.HistoryKey(r.Series)
		pipe.RPush(ctx, key, data)
		touched[key] = true
	}
	if w.historyLen > 0 {
		for key := range touched {
			pipe.LTrim(ctx, key, -w.historyLen, -1)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis history: %w", err)
	}
	return nil
}

// WriteActivity pushes the event onto the feed list, keeping only the
// newest entries.
func (w *RedisWriter) WriteActivity(ev metrics.ActivityEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}
	ctx, cancel := w.opContext()
	defer cancel()

	pipe := w.client.Pipeline()
	pipe.LPush(ctx, w.ActivityKey(), data)
	if w.activityLen > 0 {
		pipe.LTrim(ctx, w.ActivityKey(), 0, w.activityLen-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis activity: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (w *RedisWriter) Close() error {
	return w.client.Close()
}
