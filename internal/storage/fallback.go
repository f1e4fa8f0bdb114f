package storage

import (
	"context"
	"errors"
	"time"

	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

// FallbackStore routes every call to the primary store under a timeout and
// retries it on the secondary when the primary fails. A nil primary means the
// secondary serves everything.
type FallbackStore struct {
	primary   Store
	secondary Store
	timeout   time.Duration
	log       *logrus.Entry
}

func NewFallbackStore(primary, secondary Store, timeout time.Duration) *FallbackStore {
	if secondary == nil {
		panic("fallback store needs a secondary store")
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &FallbackStore{
		primary:   primary,
		secondary: secondary,
		timeout:   timeout,
		log:       logger.Component("storage"),
	}
}

// run calls primary first. ErrNotFound is only retried on the secondary when
// retryMissing is set; other primary errors always are.
func run[T any](ctx context.Context, s *FallbackStore, op string, retryMissing bool, fn func(context.Context, Store) (T, error)) (T, error) {
	if s.primary != nil {
		pctx, cancel := context.WithTimeout(ctx, s.timeout)
		out, err := fn(pctx, s.primary)
		cancel()
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return out, err
		}
		if errors.Is(err, ErrNotFound) && !retryMissing {
			return out, err
		}
		if errors.Is(err, ErrConflict) {
			return out, err
		}
		if !errors.Is(err, ErrNotFound) {
			s.log.WithError(err).WithField("op", op).Warn("primary store failed, using JSON fallback")
		}
	}
	return fn(ctx, s.secondary)
}

func (s *FallbackStore) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	return run(ctx, s, "list_products", false, func(ctx context.Context, st Store) ([]models.Product, error) {
		return st.ListProducts(ctx, filter)
	})
}

func (s *FallbackStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return run(ctx, s, "get_product", true, func(ctx context.Context, st Store) (*models.Product, error) {
		return st.GetProduct(ctx, id)
	})
}

func (s *FallbackStore) CreateProduct(ctx context.Context, product *models.Product) error {
	_, err := run(ctx, s, "create_product", false, func(ctx context.Context, st Store) (struct{}, error) {
		return struct{}{}, st.CreateProduct(ctx, product)
	})
	return err
}

func (s *FallbackStore) UpdateProduct(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error) {
	return run(ctx, s, "update_product", true, func(ctx context.Context, st Store) (*models.Product, error) {
		return st.UpdateProduct(ctx, id, update)
	})
}

func (s *FallbackStore) Categories(ctx context.Context) ([]string, error) {
	return run(ctx, s, "categories", false, func(ctx context.Context, st Store) ([]string, error) {
		return st.Categories(ctx)
	})
}

func (s *FallbackStore) ListReviews(ctx context.Context, productID string) ([]models.Review, error) {
	return run(ctx, s, "list_reviews", false, func(ctx context.Context, st Store) ([]models.Review, error) {
		return st.ListReviews(ctx, productID)
	})
}

func (s *FallbackStore) AllReviews(ctx context.Context) ([]models.Review, error) {
	return run(ctx, s, "all_reviews", false, func(ctx context.Context, st Store) ([]models.Review, error) {
		return st.AllReviews(ctx)
	})
}

func (s *FallbackStore) GetReview(ctx context.Context, id string) (*models.Review, error) {
	return run(ctx, s, "get_review", true, func(ctx context.Context, st Store) (*models.Review, error) {
		return st.GetReview(ctx, id)
	})
}

func (s *FallbackStore) AddReview(ctx context.Context, review *models.Review) error {
	_, err := run(ctx, s, "add_review", false, func(ctx context.Context, st Store) (struct{}, error) {
		return struct{}{}, st.AddReview(ctx, review)
	})
	return err
}

func (s *FallbackStore) UpdateReview(ctx context.Context, id string, req models.UpdateReviewRequest) (*models.Review, error) {
	return run(ctx, s, "update_review", true, func(ctx context.Context, st Store) (*models.Review, error) {
		return st.UpdateReview(ctx, id, req)
	})
}

func (s *FallbackStore) DeleteReview(ctx context.Context, id string) error {
	_, err := run(ctx, s, "delete_review", true, func(ctx context.Context, st Store) (struct{}, error) {
		return struct{}{}, st.DeleteReview(ctx, id)
	})
	return err
}

type toggleResult struct {
	review *models.Review
	added  bool
}

func (s *FallbackStore) ToggleHelpful(ctx context.Context, reviewID, voterID string) (*models.Review, bool, error) {
	res, err := run(ctx, s, "toggle_helpful", true, func(ctx context.Context, st Store) (toggleResult, error) {
		r, added, err := st.ToggleHelpful(ctx, reviewID, voterID)
		return toggleResult{review: r, added: added}, err
	})
	return res.review, res.added, err
}

func (s *FallbackStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return run(ctx, s, "get_profile", true, func(ctx context.Context, st Store) (*models.UserProfile, error) {
		return st.GetProfile(ctx, userID)
	})
}

func (s *FallbackStore) UpdateProfile(ctx context.Context, userID string, fn func(*models.UserProfile) error) (*models.UserProfile, error) {
	return run(ctx, s, "update_profile", false, func(ctx context.Context, st Store) (*models.UserProfile, error) {
		return st.UpdateProfile(ctx, userID, fn)
	})
}
