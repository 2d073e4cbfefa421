package cache

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"attendance-monitoring/internal/attendance"
	"attendance-monitoring/internal/metrics"
)

// RedisStore keeps cached windows in redis instead of the local filesystem,
// for hosts where runs are ephemeral but a redis instance is shared. Entries
// hold the same parquet bytes as the file cache under the same key scheme.
type RedisStore struct {
	Client       *redis.Client
	Prefix       string
	DisableWrite bool

	log *zap.Logger
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, log *zap.Logger) *RedisStore {
	return &RedisStore{Client: client, Prefix: "attendance:", log: log}
}

// GetOrFetch implements Store.
func (s *RedisStore) GetOrFetch(ctx context.Context, startDate time.Time, fetch FetchFunc) ([]attendance.Record, error) {
	key := s.Prefix + Key(startDate)
	raw, err := s.Client.Get(ctx, key).Bytes()
	if err == nil {
		if rows, decErr := parquet.Read[attendance.Record](bytes.NewReader(raw), int64(len(raw))); decErr == nil {
			metrics.CacheHits.Inc()
			s.log.Debug("attendance cache hit", zap.String("key", key), zap.Int("records", len(rows)))
			return rows, nil
		}
		// Undecodable entry, treat as a miss and overwrite below.
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn("attendance cache read failed", zap.String("key", key), zap.Error(err))
	}

	metrics.CacheMisses.Inc()
	rows, err := fetch(ctx, startDate)
	if err != nil {
		return nil, err
	}

	if !s.DisableWrite {
		var buf bytes.Buffer
		if err := parquet.Write(&buf, rows); err != nil {
			s.log.Warn("attendance cache encode failed", zap.String("key", key), zap.Error(err))
			return rows, nil
		}
		if err := s.Client.Set(ctx, key, buf.Bytes(), 0).Err(); err != nil {
			s.log.Warn("attendance cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return rows, nil
}
