package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/princeprakhar/review-catalog-backend/internal/events"
	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/princeprakhar/review-catalog-backend/internal/storage"
	"github.com/princeprakhar/review-catalog-backend/internal/utils"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

var (
	ErrReviewNotFound = errors.New("review not found")
	ErrInvalidReview  = errors.New("invalid review")
)

const defaultReviewSource = "Website"

type ReviewService struct {
	store  storage.Store
	events events.Publisher
	now    func() time.Time
	log    *logrus.Entry
}

// NewReviewService wires the review store; publisher may be nil to disable
// gamification side effects.
func NewReviewService(store storage.Store, publisher events.Publisher) *ReviewService {
	return &ReviewService{
		store:  store,
		events: publisher,
		now:    time.Now,
		log:    logger.Component("reviews"),
	}
}

// CreateReview stores a review for an existing product. userID is the
// gamification identity of the author and may be empty.
func (s *ReviewService) CreateReview(ctx context.Context, userID string, req models.CreateReviewRequest) (*models.Review, error) {
	req.ProductID = strings.TrimSpace(req.ProductID)
	req.ReviewerName = utils.SanitizeString(req.ReviewerName)
	if req.ProductID == "" || req.OverallRating == 0 || req.ReviewerName == "" {
		return nil, fmt.Errorf("%w: Missing required fields", ErrInvalidReview)
	}
	if !utils.IsValidRating(req.OverallRating) {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidReview)
	}

	attrs := models.DefaultAttributes()
	hasAttributes := req.Attributes != nil && !req.Attributes.IsZero()
	if hasAttributes {
		if !req.Attributes.Valid() {
			return nil, fmt.Errorf("%w: attributes must be between 1 and 5", ErrInvalidReview)
		}
		attrs = *req.Attributes
	}

	email := strings.TrimSpace(req.ReviewerEmail)
	if email != "" && !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid reviewer email", ErrInvalidReview)
	}

	product, err := s.store.GetProduct(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: failed to fetch product: %v", ErrDatabaseQuery, err)
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = defaultReviewSource
	}
	now := s.now()
	review := &models.Review{
		ID:             uuid.NewString(),
		ProductID:      product.ID,
		UserID:         userID,
		OverallRating:  req.OverallRating,
		Attributes:     attrs,
		Notes:          utils.SanitizeString(req.Notes),
		ReviewerName:   req.ReviewerName,
		ReviewerEmail:  email,
		Source:         source,
		WouldRecommend: req.WouldRecommend,
		HelpfulVoters:  []string{},
		AuthorClientID: req.AuthorClientID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.AddReview(ctx, review); err != nil {
		return nil, fmt.Errorf("%w: failed to create review: %v", ErrDatabaseQuery, err)
	}

	if userID != "" {
		s.publish(events.Event{
			Kind:          events.ReviewCreated,
			ReviewID:      review.ID,
			UserID:        userID,
			Category:      product.Category,
			HasNotes:      review.Notes != "",
			HasAttributes: hasAttributes,
			Recommend:     review.WouldRecommend,
		})
	}
	return review, nil
}

// GetProductReviews returns the reviews of a product, newest first.
func (s *ReviewService) GetProductReviews(ctx context.Context, productID string) ([]models.Review, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: failed to fetch product: %v", ErrDatabaseQuery, err)
	}
	reviews, err := s.store.ListReviews(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch reviews: %v", ErrDatabaseQuery, err)
	}
	return reviews, nil
}

func (s *ReviewService) UpdateReview(ctx context.Context, id string, req models.UpdateReviewRequest) (*models.Review, error) {
	if req.OverallRating != nil && !utils.IsValidRating(*req.OverallRating) {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidReview)
	}
	if req.Attributes != nil && !req.Attributes.Valid() {
		return nil, fmt.Errorf("%w: attributes must be between 1 and 5", ErrInvalidReview)
	}
	if req.Notes != nil {
		notes := utils.SanitizeString(*req.Notes)
		req.Notes = &notes
	}

	review, err := s.store.UpdateReview(ctx, id, req)
	if err != nil {
		return nil, s.translate(err, "update review")
	}
	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, id string) error {
	if err := s.store.DeleteReview(ctx, id); err != nil {
		return s.translate(err, "delete review")
	}
	return nil
}

// ToggleHelpful flips voterID's helpful vote. Only a newly added vote
// credits the author; removing a vote never deducts points.
func (s *ReviewService) ToggleHelpful(ctx context.Context, reviewID, voterID string) (*models.HelpfulResult, error) {
	if strings.TrimSpace(voterID) == "" {
		return nil, fmt.Errorf("%w: voter identity required", ErrInvalidReview)
	}

	review, added, err := s.store.ToggleHelpful(ctx, reviewID, voterID)
	if err != nil {
		return nil, s.translate(err, "toggle helpful")
	}

	if added && review.UserID != "" {
		s.publish(events.Event{Kind: events.ReviewHelpful, ReviewID: review.ID, UserID: review.UserID})
	}
	return &models.HelpfulResult{HelpfulCount: review.HelpfulCount, HasVoted: review.HasVoted(voterID)}, nil
}

func (s *ReviewService) publish(e events.Event) {
	if s.events == nil {
		return
	}
	if !s.events.Publish(e) {
		s.log.WithFields(logrus.Fields{"kind": e.Kind, "review_id": e.ReviewID}).Warn("gamification event dropped")
	}
}

func (s *ReviewService) translate(err error, op string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrReviewNotFound
	}
	return fmt.Errorf("%w: failed to %s: %v", ErrDatabaseQuery, op, err)
}
