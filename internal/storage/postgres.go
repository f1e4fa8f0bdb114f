package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the Postgres-backed primary store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	if db == nil {
		panic("database connection cannot be nil")
	}
	return &GormStore{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

func (s *GormStore) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})

	if filter.Category != "" && filter.Category != models.AllCategories {
		query = query.Where("LOWER(category) = LOWER(?)", filter.Category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(description) LIKE ?",
			pattern, pattern, pattern)
	}

	var products []models.Product
	if err := query.Order("created_at DESC").Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *GormStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (s *GormStore) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("create product: %w", translate(err))
	}
	return nil
}

func (s *GormStore) UpdateProduct(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error) {
	cols := update.Columns()
	cols["updated_at"] = time.Now()

	result := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return nil, fmt.Errorf("update product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetProduct(ctx, id)
}

func (s *GormStore) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("category <> ''").
		Distinct().
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *GormStore) ListReviews(ctx context.Context, productID string) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

func (s *GormStore) AllReviews(ctx context.Context) ([]models.Review, error) {
	var reviews []models.Review
	if err := s.db.WithContext(ctx).Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("list all reviews: %w", err)
	}
	return reviews, nil
}

func (s *GormStore) GetReview(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	if err := s.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &review, nil
}

func (s *GormStore) AddReview(ctx context.Context, review *models.Review) error {
	if err := s.db.WithContext(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("add review: %w", translate(err))
	}
	return nil
}

func (s *GormStore) UpdateReview(ctx context.Context, id string, req models.UpdateReviewRequest) (*models.Review, error) {
	var review models.Review
	err := s.lockedReview(ctx, id, &review, func(tx *gorm.DB) error {
		ApplyReviewUpdate(&review, req)
		return tx.Save(&review).Error
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (s *GormStore) DeleteReview(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.Review{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ToggleHelpful(ctx context.Context, reviewID, voterID string) (*models.Review, bool, error) {
	var review models.Review
	var added bool
	err := s.lockedReview(ctx, reviewID, &review, func(tx *gorm.DB) error {
		added = review.ToggleHelpful(voterID)
		return tx.Model(&review).Updates(map[string]interface{}{
			"helpful_count":  review.HelpfulCount,
			"helpful_voters": review.HelpfulVoters,
		}).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &review, added, nil
}

// lockedReview loads the review with SELECT ... FOR UPDATE and runs fn in the
// same transaction.
func (s *GormStore) lockedReview(ctx context.Context, id string, review *models.Review, fn func(tx *gorm.DB) error) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin transaction: %w", tx.Error)
	}

	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(review, "id = ?", id).Error; err != nil {
		tx.Rollback()
		return translate(err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("update review: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit review: %w", err)
	}
	return nil
}

func (s *GormStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	profile.EnsureMaps()
	return &profile, nil
}

func (s *GormStore) UpdateProfile(ctx context.Context, userID string, fn func(*models.UserProfile) error) (*models.UserProfile, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}

	profile := models.NewUserProfile(userID)
	// Insert the zeroed row first so concurrent first writes serialize on the lock.
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(profile).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("create profile: %w", err)
	}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(profile, "user_id = ?", userID).Error; err != nil {
		tx.Rollback()
		return nil, translate(err)
	}
	profile.EnsureMaps()

	if err := fn(profile); err != nil {
		tx.Rollback()
		return nil, err
	}
	profile.UpdatedAt = time.Now()
	if err := tx.Save(profile).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("save profile: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("commit profile: %w", err)
	}
	return profile, nil
}
