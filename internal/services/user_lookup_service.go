package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/userlookup/internal/cache"
	"github.com/charlesng35/userlookup/internal/models"
	"github.com/charlesng35/userlookup/internal/monitoring"
	"github.com/charlesng35/userlookup/pkg/logger"
)

const (
	// SourceCache labels results served from the cache tier.
	SourceCache = "redis_cache"
	// SourceStore labels results read from the record store.
	SourceStore = "mysql_db"

	// AllUsersKey caches the full user list.
	AllUsersKey = "all_users"
	// DefaultCacheTTL bounds how long a cached entry may be served.
	DefaultCacheTTL = 60 * time.Second

	userKeyPrefix = "user:"
	keyKindUser   = "user"
	keyKindAll    = "all_users"
)

// UserKey returns the cache key for a single user.
func UserKey(id uint) string {
	return userKeyPrefix + strconv.FormatUint(uint64(id), 10)
}

// LookupResult is a successful read and the tier that produced it.
type LookupResult[T any] struct {
	Source string
	Data   T
}

// UserLookupService reads users cache-aside: cache first, then the store,
// populating the cache on a store hit. Entries are never invalidated; they
// expire after the TTL.
type UserLookupService struct {
	store UserStore
	cache cache.Store
	ttl   time.Duration
	log   *zap.Logger
}

// UserLookupOption customises a UserLookupService.
type UserLookupOption func(*UserLookupService)

// WithCacheTTL overrides DefaultCacheTTL.
func WithCacheTTL(ttl time.Duration) UserLookupOption {
	return func(s *UserLookupService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger overrides the module logger.
func WithLogger(log *zap.Logger) UserLookupOption {
	return func(s *UserLookupService) {
		if log != nil {
			s.log = log
		}
	}
}

// NewUserLookupService constructs a UserLookupService instance. A nil cache
// makes every read go to the store.
func NewUserLookupService(store UserStore, cacheStore cache.Store, opts ...UserLookupOption) (*UserLookupService, error) {
	if store == nil {
		return nil, errors.New("user lookup service: store is required")
	}
	svc := &UserLookupService{
		store: store,
		cache: cacheStore,
		ttl:   DefaultCacheTTL,
		log:   logger.WithModule("lookup"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// TTL reports the configured cache entry lifetime.
func (s *UserLookupService) TTL() time.Duration {
	return s.ttl
}

// GetByID returns one user. Unknown ids yield ErrUserNotFound and leave the cache untouched.
func (s *UserLookupService) GetByID(ctx context.Context, id uint) (LookupResult[models.User], error) {
	if id == 0 {
		return LookupResult[models.User]{}, ErrInvalidUserID
	}

	key := UserKey(id)
	var user models.User
	if s.readCache(ctx, keyKindUser, key, &user, func() bool { return user.ID != 0 }) {
		return LookupResult[models.User]{Source: SourceCache, Data: user}, nil
	}

	found, err := s.store.FindByID(ctx, id)
	if err != nil {
		return LookupResult[models.User]{}, err
	}

	s.writeCache(ctx, keyKindUser, key, found)
	return LookupResult[models.User]{Source: SourceStore, Data: *found}, nil
}

// GetAll returns every user. An empty table yields ErrNoUsers and leaves the cache untouched.
func (s *UserLookupService) GetAll(ctx context.Context) (LookupResult[[]models.User], error) {
	var users []models.User
	if s.readCache(ctx, keyKindAll, AllUsersKey, &users, func() bool { return len(users) > 0 }) {
		return LookupResult[[]models.User]{Source: SourceCache, Data: users}, nil
	}

	users, err := s.store.List(ctx)
	if err != nil {
		return LookupResult[[]models.User]{}, err
	}
	if len(users) == 0 {
		return LookupResult[[]models.User]{}, ErrNoUsers
	}

	s.writeCache(ctx, keyKindAll, AllUsersKey, users)
	return LookupResult[[]models.User]{Source: SourceStore, Data: users}, nil
}

// readCache decodes a cached entry into dst. Any failure, including a payload
// that decodes but fails usable (e.g. JSON null), is logged and reported as a
// miss so the caller falls through to the store and rewrites the entry.
func (s *UserLookupService) readCache(ctx context.Context, kind, key string, dst any, usable func() bool) bool {
	if s.cache == nil {
		monitoring.RecordCacheLookup(kind, monitoring.CacheMiss)
		return false
	}

	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		monitoring.RecordCacheLookup(kind, monitoring.CacheError)
		s.log.Warn("cache read failed, falling back to store", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		monitoring.RecordCacheLookup(kind, monitoring.CacheMiss)
		return false
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		monitoring.RecordCacheLookup(kind, monitoring.CacheError)
		s.log.Warn("cached payload undecodable, falling back to store", zap.String("key", key), zap.Error(err))
		return false
	}
	if usable != nil && !usable() {
		monitoring.RecordCacheLookup(kind, monitoring.CacheError)
		s.log.Warn("cached payload empty, falling back to store", zap.String("key", key))
		return false
	}

	monitoring.RecordCacheLookup(kind, monitoring.CacheHit)
	return true
}

// writeCache stores value under key. Failures are logged and never surface
// to the caller; the next read simply misses again.
func (s *UserLookupService) writeCache(ctx context.Context, kind, key string, value any) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err == nil {
		err = s.cache.Set(ctx, key, payload, s.ttl)
	}
	if err != nil {
		monitoring.RecordCacheWriteFailure(kind)
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
