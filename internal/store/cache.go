// internal/store/cache.go
package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"investor-match-workers/internal/common/logger"
	"investor-match-workers/internal/common/metrics"
	"investor-match-workers/internal/matching"
	"investor-match-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	startupKeyPrefix  = "startup:profile:"
	investorKeyPrefix = "investor:profile:"
	poolKeyPrefix     = "investor:pool:"
	poolVersionKey    = "investor:pool:version"
)

// Cache is a best-effort read-through layer. Redis failures are logged and
// the call falls through to the backing store.
type Cache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCache(rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, logger: log}
}

func (c *Cache) get(ctx context.Context, kind, key string, dst interface{}) bool {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err})
		}
		metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		c.logger.Warn("cache entry unreadable", map[string]interface{}{"key": key, "error": err})
		metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
		return false
	}
	metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
	return true
}

func (c *Cache) set(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err})
	}
}

type cachedStartups struct {
	StartupStore
	cache *Cache
}

// NewCachedStartups caches GetStartup. Lists and writes go straight through.
func NewCachedStartups(next StartupStore, cache *Cache) StartupStore {
	return &cachedStartups{StartupStore: next, cache: cache}
}

func (s *cachedStartups) GetStartup(ctx context.Context, id string) (*models.Startup, error) {
	key := startupKeyPrefix + id
	var cached models.Startup
	if s.cache.get(ctx, "startup", key, &cached) {
		return &cached, nil
	}

	startup, err := s.StartupStore.GetStartup(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, key, startup)
	return startup, nil
}

type cachedInvestors struct {
	InvestorStore
	cache *Cache
}

// NewCachedInvestors caches GetInvestor and bumps the pool version on create,
// which orphans every cached pool.
func NewCachedInvestors(next InvestorStore, cache *Cache) InvestorStore {
	return &cachedInvestors{InvestorStore: next, cache: cache}
}

func (s *cachedInvestors) GetInvestor(ctx context.Context, id string) (*models.Investor, error) {
	key := investorKeyPrefix + id
	var cached models.Investor
	if s.cache.get(ctx, "investor", key, &cached) {
		return &cached, nil
	}

	inv, err := s.InvestorStore.GetInvestor(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, key, inv)
	return inv, nil
}

func (s *cachedInvestors) CreateInvestor(ctx context.Context, inv *models.Investor) error {
	if err := s.InvestorStore.CreateInvestor(ctx, inv); err != nil {
		return err
	}
	if err := s.cache.rdb.Incr(ctx, poolVersionKey).Err(); err != nil {
		s.cache.logger.Warn("pool version bump failed", map[string]interface{}{"error": err})
	}
	return nil
}

type cachedCandidates struct {
	next  CandidateSource
	cache *Cache
}

// NewCachedCandidates caches pools keyed by pool version, stage and the
// sorted industry set.
func NewCachedCandidates(next CandidateSource, cache *Cache) CandidateSource {
	return &cachedCandidates{next: next, cache: cache}
}

func (s *cachedCandidates) Candidates(ctx context.Context, seeker matching.FundingSeeker) ([]matching.Candidate, error) {
	version, err := s.cache.rdb.Get(ctx, poolVersionKey).Result()
	if err == redis.Nil {
		version = "0"
	} else if err != nil {
		s.cache.logger.Warn("pool version read failed", map[string]interface{}{"error": err})
		return s.next.Candidates(ctx, seeker)
	}

	key := PoolKey(version, seeker)
	var cached []matching.Candidate
	if s.cache.get(ctx, "pool", key, &cached) {
		return cached, nil
	}

	pool, err := s.next.Candidates(ctx, seeker)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, key, pool)
	return pool, nil
}

// PoolKey is stable under industry order, duplicates and surrounding spaces.
func PoolKey(version string, seeker matching.FundingSeeker) string {
	industries := matching.NormalizeIndustries(seeker.Industries)
	sort.Strings(industries)

	h := sha1.New()
	fmt.Fprintf(h, "%s\x00%s", seeker.FundingStage, strings.Join(industries, "\x00"))
	return poolKeyPrefix + version + ":" + hex.EncodeToString(h.Sum(nil))
}
