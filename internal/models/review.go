package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReviewAttributes are the seven 1-5 sub-scores of a review.
type ReviewAttributes struct {
	Battery     int `json:"battery"`
	Durability  int `json:"durability"`
	Display     int `json:"display"`
	Performance int `json:"performance"`
	Camera      int `json:"camera"`
	Value       int `json:"value"`
	Design      int `json:"design"`
}

// DefaultAttributes is used when a review omits its sub-scores.
func DefaultAttributes() ReviewAttributes {
	return ReviewAttributes{Battery: 5, Durability: 5, Display: 5, Performance: 5, Camera: 5, Value: 5, Design: 5}
}

// Valid reports whether every sub-score is within 1..5.
func (a ReviewAttributes) Valid() bool {
	for _, v := range a.Map() {
		if v < 1 || v > 5 {
			return false
		}
	}
	return true
}

// IsZero reports whether no sub-score was supplied.
func (a ReviewAttributes) IsZero() bool {
	return a == ReviewAttributes{}
}

// Map returns the sub-scores keyed by their JSON names.
func (a ReviewAttributes) Map() map[string]int {
	return map[string]int{
		"battery":     a.Battery,
		"durability":  a.Durability,
		"display":     a.Display,
		"performance": a.Performance,
		"camera":      a.Camera,
		"value":       a.Value,
		"design":      a.Design,
	}
}

type Review struct {
	ID             string                      `json:"id" gorm:"primaryKey;size:64"`
	ProductID      string                      `json:"product_id" gorm:"not null;index"`
	UserID         string                      `json:"user_id,omitempty" gorm:"index"`
	OverallRating  int                         `json:"overall_rating" gorm:"check:overall_rating >= 1 AND overall_rating <= 5"`
	Attributes     ReviewAttributes            `json:"attributes" gorm:"embedded;embeddedPrefix:attr_"`
	Notes          string                      `json:"notes"`
	ReviewerName   string                      `json:"reviewer_name"`
	ReviewerEmail  string                      `json:"reviewer_email,omitempty"`
	Source         string                      `json:"source" gorm:"default:Website"`
	WouldRecommend bool                        `json:"would_recommend"`
	HelpfulCount   int                         `json:"helpful_count" gorm:"default:0"`
	HelpfulVoters  datatypes.JSONSlice[string] `json:"helpful_voters" gorm:"type:jsonb"`
	AuthorClientID string                      `json:"author_client_id,omitempty"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

// HasVoted reports whether voter already marked the review helpful.
func (r *Review) HasVoted(voter string) bool {
	for _, v := range r.HelpfulVoters {
		if v == voter {
			return true
		}
	}
	return false
}

// ToggleHelpful adds or removes voter and reports whether a vote was added.
// HelpfulCount never drops below zero.
func (r *Review) ToggleHelpful(voter string) bool {
	for i, v := range r.HelpfulVoters {
		if v == voter {
			r.HelpfulVoters = append(r.HelpfulVoters[:i:i], r.HelpfulVoters[i+1:]...)
			if r.HelpfulCount > 0 {
				r.HelpfulCount--
			}
			return false
		}
	}
	r.HelpfulVoters = append(r.HelpfulVoters, voter)
	r.HelpfulCount++
	return true
}

// Request structs for API
type CreateReviewRequest struct {
	ProductID      string            `json:"product_id"`
	OverallRating  int               `json:"overall_rating"`
	Attributes     *ReviewAttributes `json:"attributes"`
	Notes          string            `json:"notes"`
	ReviewerName   string            `json:"reviewer_name"`
	ReviewerEmail  string            `json:"reviewer_email"`
	Source         string            `json:"source"`
	WouldRecommend bool              `json:"would_recommend"`
	AuthorClientID string            `json:"author_client_id"`
}

type UpdateReviewRequest struct {
	OverallRating  *int              `json:"overall_rating"`
	Attributes     *ReviewAttributes `json:"attributes"`
	Notes          *string           `json:"notes"`
	WouldRecommend *bool             `json:"would_recommend"`
}

// HelpfulResult is the outcome of a helpful toggle.
type HelpfulResult struct {
	HelpfulCount int  `json:"helpful_count"`
	HasVoted     bool `json:"has_voted"`
}
