package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/domain"
)

const (
	accountCachePrefix = "account:"
	accountCacheTTL    = 5 * time.Minute
)

// cachedAccountRepository layers read-through Redis caching over another
// AccountRepository. Only FindByID is cached; writes invalidate the key.
// Cache failures are logged and never surface to callers.
type cachedAccountRepository struct {
	inner  AccountRepository
	rdb    redis.Cmdable
	logger *zap.Logger
}

// NewCachedAccountRepository wraps inner with a Redis read-through cache.
func NewCachedAccountRepository(inner AccountRepository, rdb redis.Cmdable, logger *zap.Logger) AccountRepository {
	return &cachedAccountRepository{inner: inner, rdb: rdb, logger: logger}
}

func (r *cachedAccountRepository) FindAll(ctx context.Context) ([]domain.Account, error) {
	return r.inner.FindAll(ctx)
}

func (r *cachedAccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	key := accountCachePrefix + id

	data, err := r.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var account domain.Account
		if err := json.Unmarshal(data, &account); err != nil {
			r.logger.Warn("corrupt cached account, falling through", zap.String("id", id), zap.Error(err))
		} else {
			return &account, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("account cache get failed, falling through", zap.String("id", id), zap.Error(err))
	}

	account, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(account); err == nil {
		if err := r.rdb.Set(ctx, key, encoded, accountCacheTTL).Err(); err != nil {
			r.logger.Warn("account cache set failed", zap.String("id", id), zap.Error(err))
		}
	}
	return account, nil
}

func (r *cachedAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.inner.FindByEmail(ctx, email)
}

func (r *cachedAccountRepository) Insert(ctx context.Context, account *domain.Account) error {
	return r.inner.Insert(ctx, account)
}

func (r *cachedAccountRepository) UpdateFields(ctx context.Context, id string, fields AccountFields) (bool, error) {
	applied, err := r.inner.UpdateFields(ctx, id, fields)
	if err == nil && applied {
		r.invalidate(ctx, id)
	}
	return applied, err
}

func (r *cachedAccountRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	applied, err := r.inner.DeleteByID(ctx, id)
	if err == nil && applied {
		r.invalidate(ctx, id)
	}
	return applied, err
}

func (r *cachedAccountRepository) invalidate(ctx context.Context, id string) {
	if err := r.rdb.Del(ctx, accountCachePrefix+id).Err(); err != nil {
		r.logger.Warn("account cache invalidation failed", zap.String("id", id), zap.Error(err))
	}
}
