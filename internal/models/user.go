package models

import (
	"sort"
	"time"
)

type Badges struct {
	FirstReview     bool            `json:"first_review"`
	TrustedReviewer bool            `json:"trusted_reviewer"`
	CategoryExpert  map[string]bool `json:"category_expert"`
}

// UserProfile is the gamification ledger entry of one user.
type UserProfile struct {
	UserID                string         `json:"user_id" gorm:"primaryKey;size:128"`
	DisplayName           *string        `json:"display_name"`
	Points                int            `json:"points" gorm:"default:0"`
	ReviewCount           int            `json:"review_count" gorm:"default:0"`
	ReviewCountByCategory map[string]int `json:"review_count_by_category" gorm:"type:jsonb;serializer:json"`
	HelpfulReceived       int            `json:"helpful_received" gorm:"default:0"`
	Badges                Badges         `json:"badges" gorm:"type:jsonb;serializer:json"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// NewUserProfile returns a zeroed profile with initialized maps.
func NewUserProfile(userID string) *UserProfile {
	now := time.Now()
	return &UserProfile{
		UserID:                userID,
		ReviewCountByCategory: map[string]int{},
		Badges:                Badges{CategoryExpert: map[string]bool{}},
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// EnsureMaps initializes nil maps left by decoding.
func (p *UserProfile) EnsureMaps() {
	if p.ReviewCountByCategory == nil {
		p.ReviewCountByCategory = map[string]int{}
	}
	if p.Badges.CategoryExpert == nil {
		p.Badges.CategoryExpert = map[string]bool{}
	}
}

// ExpertCategories lists the categories with an expert badge, sorted.
func (p *UserProfile) ExpertCategories() []string {
	out := make([]string, 0, len(p.Badges.CategoryExpert))
	for cat, ok := range p.Badges.CategoryExpert {
		if ok {
			out = append(out, cat)
		}
	}
	sort.Strings(out)
	return out
}

// ProfileResponse is the public view served by the profile endpoint.
type ProfileResponse struct {
	UserID          string   `json:"user_id"`
	DisplayName     *string  `json:"display_name,omitempty"`
	Points          int      `json:"points"`
	Badges          Badges   `json:"badges"`
	CategoryExpert  []string `json:"category_expert"`
	FirstReview     bool     `json:"first_review"`
	ReviewCount     int      `json:"review_count"`
	HelpfulReceived int      `json:"helpful_received"`
}

func (p *UserProfile) ToResponse() ProfileResponse {
	return ProfileResponse{
		UserID:          p.UserID,
		DisplayName:     p.DisplayName,
		Points:          p.Points,
		Badges:          p.Badges,
		CategoryExpert:  p.ExpertCategories(),
		FirstReview:     p.Badges.FirstReview,
		ReviewCount:     p.ReviewCount,
		HelpfulReceived: p.HelpfulReceived,
	}
}
