package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/taxirank/rank-api/internal/models"
	appErrors "github.com/taxirank/rank-api/pkg/errors"
)

type rankStore interface {
	FindByID(ctx context.Context, id string) (*models.Rank, error)
	FindByCode(ctx context.Context, code string) (*models.Rank, error)
	List(ctx context.Context) ([]models.Rank, error)
}

type rankCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string)
}

type cacheObserver interface {
	ObserveCacheHit()
	ObserveCacheMiss()
}

const (
	rankCacheKeyPrefix = "rank:code:"
	rankListCacheKey   = "ranks:active"
)

// RankService serves the rank read API with a Redis read-through cache
// keyed by rank code. The workflow services talk to the repository
// directly; only the public read surface goes through the cache.
type RankService struct {
	repo     rankStore
	cache    rankCache
	metrics  cacheObserver
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewRankService constructs the service. Cache and metrics may be nil.
func NewRankService(repo rankStore, cache rankCache, metrics cacheObserver, cacheTTL time.Duration, logger *zap.Logger) *RankService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RankService{repo: repo, cache: cache, metrics: metrics, cacheTTL: cacheTTL, logger: logger}
}

func (s *RankService) cacheHit() {
	if s.metrics != nil {
		s.metrics.ObserveCacheHit()
	}
}

func (s *RankService) cacheMiss() {
	if s.metrics != nil {
		s.metrics.ObserveCacheMiss()
	}
}

// FindByID returns a rank by identifier.
func (s *RankService) FindByID(ctx context.Context, id string) (*models.Rank, error) {
	rank, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rank not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rank")
	}
	return rank, nil
}

// FindByCode returns a rank by public code, cache first.
func (s *RankService) FindByCode(ctx context.Context, code string) (*models.Rank, error) {
	key := rankCacheKeyPrefix + code
	if s.cache != nil {
		var cached models.Rank
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.cacheHit()
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("rank cache read failed", zap.String("code", code), zap.Error(err))
		}
		s.cacheMiss()
	}

	rank, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rank not found with code: "+code)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rank")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rank, s.cacheTTL); err != nil {
			s.logger.Warn("rank cache write failed", zap.String("code", code), zap.Error(err))
		}
	}
	return rank, nil
}

// List returns the active ranks, cache first.
func (s *RankService) List(ctx context.Context) ([]models.Rank, error) {
	if s.cache != nil {
		var cached []models.Rank
		if err := s.cache.Get(ctx, rankListCacheKey, &cached); err == nil {
			s.cacheHit()
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("rank cache read failed", zap.Error(err))
		}
		s.cacheMiss()
	}

	ranks, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ranks")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, rankListCacheKey, ranks, s.cacheTTL); err != nil {
			s.logger.Warn("rank cache write failed", zap.Error(err))
		}
	}
	return ranks, nil
}

// Evict drops cached entries for the given rank codes plus the list key.
func (s *RankService) Evict(ctx context.Context, codes ...string) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(codes)+1)
	for _, code := range codes {
		keys = append(keys, rankCacheKeyPrefix+code)
	}
	keys = append(keys, rankListCacheKey)
	s.cache.Delete(ctx, keys...)
}
