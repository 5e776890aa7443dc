package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErrors "github.com/taxirank/rank-api/pkg/errors"
)

func TestRankServiceFindByCodeCaches(t *testing.T) {
	repo := newRankRepoStub(newTestRank("rank-1", "Bree Street Rank", "BREE"))
	cache := newCacheStub()
	svc := NewRankService(repo, cache, nil, time.Minute, nil)

	rank, err := svc.FindByCode(context.Background(), "BREE")
	require.NoError(t, err)
	require.Equal(t, "rank-1", rank.ID)
	require.Equal(t, 1, cache.misses)

	// Second lookup is served from the cache even if the row disappears.
	delete(repo.ranks, "rank-1")
	rank, err = svc.FindByCode(context.Background(), "BREE")
	require.NoError(t, err)
	require.Equal(t, "rank-1", rank.ID)
	require.Equal(t, 1, cache.hits)
}

func TestRankServiceFindByCodeNotFound(t *testing.T) {
	svc := NewRankService(newRankRepoStub(), newCacheStub(), nil, time.Minute, nil)

	_, err := svc.FindByCode(context.Background(), "NOPE")
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRankServiceListAndEvict(t *testing.T) {
	repo := newRankRepoStub(newTestRank("rank-1", "Bree Street Rank", "BREE"))
	cache := newCacheStub()
	svc := NewRankService(repo, cache, nil, time.Minute, nil)

	ranks, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, ranks, 1)
	require.Contains(t, cache.entries, rankListCacheKey)

	svc.Evict(context.Background(), "BREE")
	require.NotContains(t, cache.entries, rankListCacheKey)
	require.NotContains(t, cache.entries, rankCacheKeyPrefix+"BREE")
}

func TestRankServiceWorksWithoutCache(t *testing.T) {
	repo := newRankRepoStub(newTestRank("rank-1", "Bree Street Rank", "BREE"))
	svc := NewRankService(repo, nil, nil, time.Minute, nil)

	rank, err := svc.FindByCode(context.Background(), "BREE")
	require.NoError(t, err)
	require.Equal(t, "BREE", rank.Code)
}
