package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type memoryCache struct {
	mu          sync.Mutex
	entries     map[string]portfolio.Record
	generations map[string]int64
	gets        int
	failGet     bool
	beforeSet   func()
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]portfolio.Record{}, generations: map[string]int64{}}
}

func (c *memoryCache) Get(_ context.Context, username string) (*portfolio.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return nil, errors.New("cache down")
	}
	rec, ok := c.entries[username]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (c *memoryCache) Generation(_ context.Context, username string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[username], nil
}

func (c *memoryCache) Set(_ context.Context, rec *portfolio.Record, generation int64) (bool, error) {
	if c.beforeSet != nil {
		c.beforeSet()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[rec.Username] != generation {
		return false, nil
	}
	c.entries[rec.Username] = *rec
	return true, nil
}

func (c *memoryCache) Delete(_ context.Context, usernames ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range usernames {
		c.generations[u]++
		delete(c.entries, u)
	}
	return nil
}

func (c *memoryCache) has(username string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[username]
	return ok
}

func newCachedRepo(t *testing.T) (portfolio.Repository, *memoryCache) {
	t.Helper()
	store := NewSQLitePortfolioRepo(newTestSQLite(t), logger.NewNopLogger())
	cache := newMemoryCache()
	return NewCachedPortfolioRepo(store, cache, logger.NewNopLogger()), cache
}

func TestCachedPortfolioRepo_ReadThrough(t *testing.T) {
	ctx := context.Background()
	repo, cache := newCachedRepo(t)

	_, err := repo.Create(ctx, "user_1", "jane", samplePortfolio("Jane"))
	require.NoError(t, err)
	assert.False(t, cache.has("jane"))

	first, err := repo.FindByUsername(ctx, "jane")
	require.NoError(t, err)
	assert.True(t, cache.has("jane"))

	second, err := repo.FindByUsername(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, first.Portfolio, second.Portfolio)
}

func TestCachedPortfolioRepo_WritesEvict(t *testing.T) {
	ctx := context.Background()
	repo, cache := newCachedRepo(t)

	_, err := repo.Create(ctx, "user_1", "jane", samplePortfolio("Jane"))
	require.NoError(t, err)
	_, err = repo.FindByUsername(ctx, "jane")
	require.NoError(t, err)

	rec, err := repo.SetPrivacy(ctx, "user_1", true)
	require.NoError(t, err)
	assert.True(t, rec.IsPrivate)
	assert.False(t, cache.has("jane"))

	_, err = repo.FindByUsername(ctx, "jane")
	require.NoError(t, err)
	_, err = repo.UpsertByOwner(ctx, "user_1", "jane-doe", samplePortfolio("Jane Doe"))
	require.NoError(t, err)
	assert.False(t, cache.has("jane"), "old username evicted on rename")

	_, err = repo.FindByUsername(ctx, "jane-doe")
	require.NoError(t, err)
	updated, err := repo.UpdateUsername(ctx, "user_1", "jd")
	require.NoError(t, err)
	assert.True(t, updated)
	assert.False(t, cache.has("jane-doe"))

	_, err = repo.FindByUsername(ctx, "jd")
	require.NoError(t, err)
	require.NoError(t, repo.DeleteByOwner(ctx, "user_1"))
	assert.False(t, cache.has("jd"))

	_, err = repo.FindByUsername(ctx, "jd")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCachedPortfolioRepo_CacheFailureFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	repo, cache := newCachedRepo(t)
	cache.failGet = true

	_, err := repo.Create(ctx, "user_1", "jane", samplePortfolio("Jane"))
	require.NoError(t, err)

	rec, err := repo.FindByUsername(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, "Jane", rec.Personal.Name)
}

func TestCachedPortfolioRepo_EmptyUsernameSkipsCache(t *testing.T) {
	repo, cache := newCachedRepo(t)

	_, err := repo.FindByUsername(context.Background(), "")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Zero(t, cache.gets)
}

func TestCachedPortfolioRepo_StaleFillAfterPrivacyChange(t *testing.T) {
	ctx := context.Background()
	repo, cache := newCachedRepo(t)

	_, err := repo.Create(ctx, "user_1", "jane", samplePortfolio("Jane"))
	require.NoError(t, err)

	reached := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	cache.beforeSet = func() {
		once.Do(func() {
			close(reached)
			<-release
		})
	}

	done := make(chan *portfolio.Record)
	go func() {
		rec, err := repo.FindByUsername(ctx, "jane")
		assert.NoError(t, err)
		done <- rec
	}()

	<-reached
	_, err = repo.SetPrivacy(ctx, "user_1", true)
	require.NoError(t, err)
	close(release)

	stale := <-done
	require.NotNil(t, stale)
	assert.False(t, stale.IsPrivate, "in-flight read saw the old row")
	assert.False(t, cache.has("jane"), "fill from before the eviction is dropped")

	rec, err := repo.FindByUsername(ctx, "jane")
	require.NoError(t, err)
	assert.True(t, rec.IsPrivate)
}
