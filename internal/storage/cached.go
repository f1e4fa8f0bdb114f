package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/princeprakhar/review-catalog-backend/internal/cache"
	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

const productKeyPrefix = "products:"

// CachedStore adds a read-through cache in front of the catalog reads of a
// Store. Every product write drops all cached catalog entries.
type CachedStore struct {
	Store
	cache cache.Client
	ttl   time.Duration
	log   *logrus.Entry
}

func NewCachedStore(inner Store, c cache.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{Store: inner, cache: c, ttl: ttl, log: logger.Component("cache")}
}

func readThrough[T any](ctx context.Context, s *CachedStore, key string, load func() (T, error)) (T, error) {
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var out T
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.WithError(err).Debug("cache read failed")
	}

	out, err := load()
	if err != nil {
		return out, err
	}
	if raw, err := json.Marshal(out); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.log.WithError(err).Debug("cache write failed")
		}
	}
	return out, nil
}

func (s *CachedStore) invalidate(ctx context.Context) {
	if err := s.cache.DeleteByPrefix(ctx, productKeyPrefix); err != nil {
		s.log.WithError(err).Warn("cache invalidation failed")
	}
}

func (s *CachedStore) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	key := cache.Key("products", "list", strings.ToLower(filter.Category), strings.ToLower(filter.Search))
	return readThrough(ctx, s, key, func() ([]models.Product, error) {
		return s.Store.ListProducts(ctx, filter)
	})
}

func (s *CachedStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return readThrough(ctx, s, cache.Key("products", "item", id), func() (*models.Product, error) {
		return s.Store.GetProduct(ctx, id)
	})
}

func (s *CachedStore) Categories(ctx context.Context) ([]string, error) {
	return readThrough(ctx, s, cache.Key("products", "categories"), func() ([]string, error) {
		return s.Store.Categories(ctx)
	})
}

func (s *CachedStore) CreateProduct(ctx context.Context, product *models.Product) error {
	err := s.Store.CreateProduct(ctx, product)
	s.invalidate(ctx)
	return err
}

func (s *CachedStore) UpdateProduct(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error) {
	p, err := s.Store.UpdateProduct(ctx, id, update)
	s.invalidate(ctx)
	return p, err
}
