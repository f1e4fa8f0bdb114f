package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/princeprakhar/review-catalog-backend/internal/events"
	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/princeprakhar/review-catalog-backend/internal/storage"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

const (
	PointsPerReview    = 50
	PointsForNotes     = 6
	PointsForAttrs     = 8
	PointsForRecommend = 4
	PointsPerHelpful   = 5

	FirstReviewBonus     = 25
	TrustedReviewerBonus = 75
	CategoryExpertBonus  = 100

	TrustedReviewerThreshold = 5
	CategoryExpertThreshold  = 5
)

var ErrProfileNotFound = errors.New("user profile not found")

// Contribution describes what a submitted review earns its author.
type Contribution struct {
	HasNotes      bool
	HasAttributes bool
	Recommend     bool
}

type GamificationService struct {
	profiles storage.ProfileStore
	log      *logrus.Entry
}

func NewGamificationService(profiles storage.ProfileStore) *GamificationService {
	return &GamificationService{profiles: profiles, log: logger.Component("gamification")}
}

// ApplyReviewContribution credits userID for a review in category and awards
// any badge crossed by it. Badges already held are never reconsidered.
func (s *GamificationService) ApplyReviewContribution(ctx context.Context, userID, category string, c Contribution) (*models.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("apply review contribution: empty user id")
	}
	return s.profiles.UpdateProfile(ctx, userID, func(p *models.UserProfile) error {
		p.EnsureMaps()

		points := PointsPerReview
		if c.HasNotes {
			points += PointsForNotes
		}
		if c.HasAttributes {
			points += PointsForAttrs
		}
		if c.Recommend {
			points += PointsForRecommend
		}

		p.ReviewCount++
		p.ReviewCountByCategory[category]++
		categoryCount := p.ReviewCountByCategory[category]

		if !p.Badges.FirstReview && p.ReviewCount == 1 {
			p.Badges.FirstReview = true
			points += FirstReviewBonus
		}
		if !p.Badges.TrustedReviewer && p.ReviewCount >= TrustedReviewerThreshold {
			p.Badges.TrustedReviewer = true
			points += TrustedReviewerBonus
		}
		if !p.Badges.CategoryExpert[category] && categoryCount >= CategoryExpertThreshold {
			p.Badges.CategoryExpert[category] = true
			points += CategoryExpertBonus
		}

		p.Points += points
		return nil
	})
}

// ApplyHelpfulVote credits the author of a review that was marked helpful.
func (s *GamificationService) ApplyHelpfulVote(ctx context.Context, authorID string) (*models.UserProfile, error) {
	if authorID == "" {
		return nil, fmt.Errorf("apply helpful vote: empty user id")
	}
	return s.profiles.UpdateProfile(ctx, authorID, func(p *models.UserProfile) error {
		p.HelpfulReceived++
		p.Points += PointsPerHelpful
		return nil
	})
}

func (s *GamificationService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// HandleEvent is the outbox handler for ledger events.
func (s *GamificationService) HandleEvent(ctx context.Context, e events.Event) error {
	switch e.Kind {
	case events.ReviewCreated:
		p, err := s.ApplyReviewContribution(ctx, e.UserID, e.Category, Contribution{
			HasNotes:      e.HasNotes,
			HasAttributes: e.HasAttributes,
			Recommend:     e.Recommend,
		})
		if err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{"user_id": e.UserID, "points": p.Points}).Debug("review contribution applied")
	case events.ReviewHelpful:
		if _, err := s.ApplyHelpfulVote(ctx, e.UserID); err != nil {
			return err
		}
	default:
		s.log.WithField("kind", e.Kind).Warn("unknown event kind")
	}
	return nil
}
