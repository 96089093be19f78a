package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"shop-api/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	productCacheKeyPrefix = "product:"
	categoriesCacheKey    = "products:categories"
)

// cachedProductRepository is a read-through Redis cache in front of a ProductRepository.
// Single product reads and the category list are cached; every write invalidates.
// Redis failures degrade to the underlying repository.
type cachedProductRepository struct {
	ProductRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProductRepository wraps next with a Redis read-through cache
func NewCachedProductRepository(next ProductRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) ProductRepository {
	return &cachedProductRepository{
		ProductRepository: next,
		client:            client,
		ttl:               ttl,
		logger:            logger,
	}
}

func productCacheKey(id string) string {
	return productCacheKeyPrefix + id
}

func (r *cachedProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	key := productCacheKey(id)

	var cached domain.Product
	if r.get(ctx, key, &cached) {
		return &cached, nil
	}

	product, err := r.ProductRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.set(ctx, key, product)
	return product, nil
}

func (r *cachedProductRepository) Categories(ctx context.Context) ([]string, error) {
	var cached []string
	if r.get(ctx, categoriesCacheKey, &cached) {
		return cached, nil
	}

	categories, err := r.ProductRepository.Categories(ctx)
	if err != nil {
		return nil, err
	}

	r.set(ctx, categoriesCacheKey, categories)
	return categories, nil
}

func (r *cachedProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := r.ProductRepository.Create(ctx, product); err != nil {
		return err
	}
	r.invalidate(ctx, categoriesCacheKey)
	return nil
}

func (r *cachedProductRepository) Update(ctx context.Context, product *domain.Product) error {
	err := r.ProductRepository.Update(ctx, product)
	r.invalidate(ctx, productCacheKey(product.ID), categoriesCacheKey)
	return err
}

func (r *cachedProductRepository) Delete(ctx context.Context, id string) error {
	err := r.ProductRepository.Delete(ctx, id)
	r.invalidate(ctx, productCacheKey(id), categoriesCacheKey)
	return err
}

func (r *cachedProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	err := r.ProductRepository.DecrementStock(ctx, id, qty)
	r.invalidate(ctx, productCacheKey(id))
	return err
}

func (r *cachedProductRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	err := r.ProductRepository.IncrementStock(ctx, id, qty)
	r.invalidate(ctx, productCacheKey(id))
	return err
}

func (r *cachedProductRepository) get(ctx context.Context, key string, dest any) bool {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("Product cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		r.logger.Warn("Discarding malformed cache entry", zap.String("key", key), zap.Error(err))
		r.invalidate(ctx, key)
		return false
	}

	return true
}

func (r *cachedProductRepository) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("Product cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *cachedProductRepository) invalidate(ctx context.Context, keys ...string) {
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("Product cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
