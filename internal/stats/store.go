package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/freedmens-bureau/bureau/internal/cache"
	"github.com/freedmens-bureau/bureau/internal/metrics"
)

const (
	detailedKey        = "stats:detailed"
	stateComparisonKey = "stats:state_comparison"
)

// Store serves the expensive reports from cached snapshots. Concurrent misses for the same report
// share a single computation.
type Store struct {
	db     *gorm.DB
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group
}

func NewStore(db *gorm.DB, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, cache: c, ttl: ttl, logger: logger}
}

func (s *Store) Detailed(ctx context.Context) (*Detailed, error) {
	var d Detailed
	err := s.load(ctx, detailedKey, &d, func(ctx context.Context) (any, error) {
		return ComputeDetailed(ctx, s.db)
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) StateComparison(ctx context.Context) ([]ComparisonRow, error) {
	var rows []ComparisonRow
	err := s.load(ctx, stateComparisonKey, &rows, func(ctx context.Context) (any, error) {
		return ComputeStateComparison(ctx, s.db)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Refresh recomputes every snapshot and overwrites the cached copies.
func (s *Store) Refresh(ctx context.Context) error {
	if _, err := s.compute(ctx, detailedKey, func(ctx context.Context) (any, error) {
		return ComputeDetailed(ctx, s.db)
	}); err != nil {
		return err
	}
	if _, err := s.compute(ctx, stateComparisonKey, func(ctx context.Context) (any, error) {
		return ComputeStateComparison(ctx, s.db)
	}); err != nil {
		return err
	}
	return nil
}

// Invalidate drops the snapshots so the next read recomputes them.
func (s *Store) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, detailedKey, stateComparisonKey)
}

func (s *Store) load(ctx context.Context, key string, out any, compute func(context.Context) (any, error)) error {
	data, found, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.StatsCacheLookups.WithLabelValues(key, "error").Inc()
		s.logger.Warn("Stats cache read failed, recomputing", zap.String("key", key), zap.Error(err))
	case found:
		if err := json.Unmarshal(data, out); err == nil {
			metrics.StatsCacheLookups.WithLabelValues(key, "hit").Inc()
			return nil
		}
		s.logger.Warn("Discarding unreadable stats snapshot", zap.String("key", key))
	default:
		metrics.StatsCacheLookups.WithLabelValues(key, "miss").Inc()
	}

	data, err = s.compute(ctx, key, compute)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (s *Store) compute(ctx context.Context, key string, compute func(context.Context) (any, error)) ([]byte, error) {
	v, err, _ := s.group.Do(key, func() (any, error) {
		start := time.Now()
		report, err := compute(ctx)
		if err != nil {
			return nil, fmt.Errorf("compute %s: %w", key, err)
		}
		metrics.StatsComputeDuration.WithLabelValues(key).Observe(time.Since(start).Seconds())

		data, err := json.Marshal(report)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Warn("Failed to store stats snapshot", zap.String("key", key), zap.Error(err))
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
