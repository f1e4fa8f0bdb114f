// Package storage holds the catalog, review and profile persistence layers.
package storage

import (
	"context"
	"errors"

	"github.com/princeprakhar/review-catalog-backend/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

type CatalogStore interface {
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

type ReviewStore interface {
	// ListReviews returns the reviews of one product, newest first.
	ListReviews(ctx context.Context, productID string) ([]models.Review, error)
	AllReviews(ctx context.Context) ([]models.Review, error)
	GetReview(ctx context.Context, id string) (*models.Review, error)
	AddReview(ctx context.Context, review *models.Review) error
	UpdateReview(ctx context.Context, id string, req models.UpdateReviewRequest) (*models.Review, error)
	DeleteReview(ctx context.Context, id string) error
	// ToggleHelpful flips voterID's helpful vote atomically and reports
	// whether a vote was added.
	ToggleHelpful(ctx context.Context, reviewID, voterID string) (*models.Review, bool, error)
}

// ProfileStore persists gamification profiles. UpdateProfile runs fn on the
// current profile (a fresh one when absent) and saves the result atomically.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, fn func(*models.UserProfile) error) (*models.UserProfile, error)
}

// Store is the full persistence surface used by the services.
type Store interface {
	CatalogStore
	ReviewStore
	ProfileStore
}

// ApplyReviewUpdate copies the set fields of req onto r.
func ApplyReviewUpdate(r *models.Review, req models.UpdateReviewRequest) {
	if req.OverallRating != nil {
		r.OverallRating = *req.OverallRating
	}
	if req.Attributes != nil {
		r.Attributes = *req.Attributes
	}
	if req.Notes != nil {
		r.Notes = *req.Notes
	}
	if req.WouldRecommend != nil {
		r.WouldRecommend = *req.WouldRecommend
	}
}
