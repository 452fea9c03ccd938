package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/logger"
)

// PortfolioCache holds public reads keyed by username. Every username has a
// generation counter that Delete bumps; Set only stores a record when the
// generation still matches the one read before the record was loaded.
type PortfolioCache interface {
	// Get returns (nil, nil) on a miss.
	Get(ctx context.Context, username string) (*portfolio.Record, error)
	Generation(ctx context.Context, username string) (int64, error)
	// Set reports whether the record was stored.
	Set(ctx context.Context, rec *portfolio.Record, generation int64) (bool, error)
	Delete(ctx context.Context, usernames ...string) error
}

const (
	cacheKeyPrefix        = "portfolio:username:"
	cacheGenerationPrefix = "portfolio:gen:"
)

type redisPortfolioCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisPortfolioCache(rdb *redis.Client, ttl time.Duration) PortfolioCache {
	return &redisPortfolioCache{rdb: rdb, ttl: ttl}
}

func (c *redisPortfolioCache) Get(ctx context.Context, username string) (*portfolio.Record, error) {
	data, err := c.rdb.Get(ctx, cacheKeyPrefix+username).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var rec portfolio.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode cached portfolio: %w", err)
	}
	return &rec, nil
}

func (c *redisPortfolioCache) Generation(ctx context.Context, username string) (int64, error) {
	gen, err := c.rdb.Get(ctx, cacheGenerationPrefix+username).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get generation: %w", err)
	}
	return gen, nil
}

func (c *redisPortfolioCache) Set(ctx context.Context, rec *portfolio.Record, generation int64) (bool, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("encode portfolio for cache: %w", err)
	}
	genKey := cacheGenerationPrefix + rec.Username
	stored := false
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cacheKeyPrefix+rec.Username, data, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis set: %w", err)
	}
	return stored, nil
}

func (c *redisPortfolioCache) Delete(ctx context.Context, usernames ...string) error {
	var names []string
	for _, u := range usernames {
		if u != "" {
			names = append(names, u)
		}
	}
	if len(names) == 0 {
		return nil
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, u := range names {
			pipe.Incr(ctx, cacheGenerationPrefix+u)
			pipe.Del(ctx, cacheKeyPrefix+u)
		}
		return nil
	})
	return err
}

// cachedPortfolioRepo serves FindByUsername from the cache and evicts
// entries on every write. Cache failures are logged and never fail a call.
type cachedPortfolioRepo struct {
	next   portfolio.Repository
	cache  PortfolioCache
	logger logger.Logger
}

func NewCachedPortfolioRepo(next portfolio.Repository, cache PortfolioCache, log logger.Logger) portfolio.Repository {
	return &cachedPortfolioRepo{next: next, cache: cache, logger: log}
}

func (r *cachedPortfolioRepo) evict(ctx context.Context, usernames ...string) {
	if err := r.cache.Delete(ctx, usernames...); err != nil {
		r.logger.Warn("Failed to evict cached portfolio", zap.Strings("usernames", usernames), zap.Error(err))
	}
}

// currentUsername looks up the username an owner had before a write.
func (r *cachedPortfolioRepo) currentUsername(ctx context.Context, ownerID string) string {
	rec, err := r.next.FindByOwner(ctx, ownerID)
	if err != nil {
		return ""
	}
	return rec.Username
}

func (r *cachedPortfolioRepo) Create(ctx context.Context, ownerID, username string, p portfolio.Portfolio) (*portfolio.Record, error) {
	rec, err := r.next.Create(ctx, ownerID, username, p)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, rec.Username)
	return rec, nil
}

func (r *cachedPortfolioRepo) UpsertByOwner(ctx context.Context, ownerID, username string, p portfolio.Portfolio) (*portfolio.Record, error) {
	if err := requireKey("owner_id", ownerID); err != nil {
		return nil, err
	}
	previous := r.currentUsername(ctx, ownerID)
	rec, err := r.next.UpsertByOwner(ctx, ownerID, username, p)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, previous, rec.Username)
	return rec, nil
}

func (r *cachedPortfolioRepo) FindByUsername(ctx context.Context, username string) (*portfolio.Record, error) {
	if err := requireKey("username", username); err != nil {
		return nil, err
	}
	cached, err := r.cache.Get(ctx, username)
	if err != nil {
		r.logger.Warn("Portfolio cache read failed", zap.String("username", username), zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	// The generation must be read before the store so an eviction that lands
	// in between makes the Set below a no-op.
	gen, genErr := r.cache.Generation(ctx, username)
	rec, err := r.next.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		r.logger.Warn("Portfolio cache generation read failed", zap.String("username", username), zap.Error(genErr))
		return rec, nil
	}
	if _, err := r.cache.Set(ctx, rec, gen); err != nil {
		r.logger.Warn("Portfolio cache write failed", zap.String("username", username), zap.Error(err))
	}
	return rec, nil
}

func (r *cachedPortfolioRepo) FindByOwner(ctx context.Context, ownerID string) (*portfolio.Record, error) {
	return r.next.FindByOwner(ctx, ownerID)
}

func (r *cachedPortfolioRepo) ExistsByOwner(ctx context.Context, ownerID string) (bool, error) {
	return r.next.ExistsByOwner(ctx, ownerID)
}

func (r *cachedPortfolioRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	if err := requireKey("owner_id", ownerID); err != nil {
		return err
	}
	previous := r.currentUsername(ctx, ownerID)
	if err := r.next.DeleteByOwner(ctx, ownerID); err != nil {
		return err
	}
	r.evict(ctx, previous)
	return nil
}

func (r *cachedPortfolioRepo) SetPrivacy(ctx context.Context, ownerID string, isPrivate bool) (*portfolio.Record, error) {
	rec, err := r.next.SetPrivacy(ctx, ownerID, isPrivate)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, rec.Username)
	return rec, nil
}

func (r *cachedPortfolioRepo) UpdateUsername(ctx context.Context, ownerID, username string) (bool, error) {
	if err := requireKey("owner_id", ownerID); err != nil {
		return false, err
	}
	previous := r.currentUsername(ctx, ownerID)
	updated, err := r.next.UpdateUsername(ctx, ownerID, username)
	if err != nil {
		return false, err
	}
	if updated {
		r.evict(ctx, previous, username)
	}
	return updated, nil
}
