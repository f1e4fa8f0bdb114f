// models/product.go
package models

import (
	"strings"
	"time"
)

type ImageSource string

const (
	ImageSourceUserUploaded ImageSource = "user_uploaded"
	ImageSourceAIGenerated  ImageSource = "ai_generated"
	ImageSourceOfficial     ImageSource = "official"
)

type VerificationStatus string

const (
	VerificationVerified   VerificationStatus = "verified"
	VerificationUnverified VerificationStatus = "unverified"
	VerificationFlagged    VerificationStatus = "flagged"
)

// AllCategories is the catch-all category used by search and the assistant.
const AllCategories = "All Categories"

type Product struct {
	ID                 string             `json:"id" gorm:"primaryKey;size:64"`
	Title              string             `json:"title" gorm:"not null;index"`
	Brand              *string            `json:"brand"`
	Category           string             `json:"category" gorm:"not null;index"`
	Description        string             `json:"description,omitempty"`
	PriceMinCents      *int64             `json:"price_min_cents"`
	PriceMaxCents      *int64             `json:"price_max_cents"`
	CreatedBy          string             `json:"created_by"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	ImageURL           string             `json:"image_url,omitempty"`
	ImageSource        ImageSource        `json:"image_source,omitempty"`
	VerificationStatus VerificationStatus `json:"verification_status,omitempty" gorm:"index"`
	AIRiskScore        *int               `json:"ai_risk_score,omitempty"`
	AIReason           string             `json:"ai_reason,omitempty"`
	ReviewSummary      string             `json:"review_summary,omitempty"`
}

// BrandName returns the brand or an empty string.
func (p Product) BrandName() string {
	if p.Brand == nil {
		return ""
	}
	return *p.Brand
}

// MatchesCategory treats "" and AllCategories as wildcards.
func (p Product) MatchesCategory(category string) bool {
	if category == "" || category == AllCategories {
		return true
	}
	return strings.EqualFold(p.Category, category)
}

// ProductUpdate is a partial update; nil fields are left untouched.
type ProductUpdate struct {
	Title              *string             `json:"title,omitempty"`
	Brand              *string             `json:"brand,omitempty"`
	Category           *string             `json:"category,omitempty"`
	Description        *string             `json:"description,omitempty"`
	PriceMinCents      *int64              `json:"price_min_cents,omitempty"`
	PriceMaxCents      *int64              `json:"price_max_cents,omitempty"`
	ImageURL           *string             `json:"image_url,omitempty"`
	ImageSource        *ImageSource        `json:"image_source,omitempty"`
	VerificationStatus *VerificationStatus `json:"verification_status,omitempty"`
	AIRiskScore        *int                `json:"ai_risk_score,omitempty"`
	AIReason           *string             `json:"ai_reason,omitempty"`
	ReviewSummary      *string             `json:"review_summary,omitempty"`
}

// Apply copies the set fields onto p.
func (u ProductUpdate) Apply(p *Product) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Brand != nil {
		p.Brand = u.Brand
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.PriceMinCents != nil {
		p.PriceMinCents = u.PriceMinCents
	}
	if u.PriceMaxCents != nil {
		p.PriceMaxCents = u.PriceMaxCents
	}
	if u.ImageURL != nil {
		p.ImageURL = *u.ImageURL
	}
	if u.ImageSource != nil {
		p.ImageSource = *u.ImageSource
	}
	if u.VerificationStatus != nil {
		p.VerificationStatus = *u.VerificationStatus
	}
	if u.AIRiskScore != nil {
		p.AIRiskScore = u.AIRiskScore
	}
	if u.AIReason != nil {
		p.AIReason = *u.AIReason
	}
	if u.ReviewSummary != nil {
		p.ReviewSummary = *u.ReviewSummary
	}
}

// Columns returns the gorm column map for the set fields.
func (u ProductUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Title != nil {
		cols["title"] = *u.Title
	}
	if u.Brand != nil {
		cols["brand"] = *u.Brand
	}
	if u.Category != nil {
		cols["category"] = *u.Category
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.PriceMinCents != nil {
		cols["price_min_cents"] = *u.PriceMinCents
	}
	if u.PriceMaxCents != nil {
		cols["price_max_cents"] = *u.PriceMaxCents
	}
	if u.ImageURL != nil {
		cols["image_url"] = *u.ImageURL
	}
	if u.ImageSource != nil {
		cols["image_source"] = *u.ImageSource
	}
	if u.VerificationStatus != nil {
		cols["verification_status"] = *u.VerificationStatus
	}
	if u.AIRiskScore != nil {
		cols["ai_risk_score"] = *u.AIRiskScore
	}
	if u.AIReason != nil {
		cols["ai_reason"] = *u.AIReason
	}
	if u.ReviewSummary != nil {
		cols["review_summary"] = *u.ReviewSummary
	}
	return cols
}

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	Category string
	Search   string
}

// Matches reports whether p passes the filter.
func (f ProductFilter) Matches(p Product) bool {
	if !p.MatchesCategory(f.Category) {
		return false
	}
	if f.Search == "" {
		return true
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	return strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.BrandName()), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}

// Request structs for API
type CreateProductRequest struct {
	Title         string   `json:"title"`
	Brand         string   `json:"brand"`
	Category      string   `json:"category"`
	Description   string   `json:"description"`
	Price         *float64 `json:"price"`
	PriceMax      *float64 `json:"price_max"`
	ImageURL      string   `json:"image_url"`
	GenerateImage bool     `json:"generate_image"`
}

// ProductWithStats is the detail view of a product.
type ProductWithStats struct {
	Product
	Stats ProductStats `json:"stats"`
}

type ProductStats struct {
	ReviewCount        int                `json:"review_count"`
	AvgRating          float64            `json:"avg_rating"`
	RecommendationRate float64            `json:"recommendation_rate"`
	AttributeAverages  map[string]float64 `json:"attribute_averages"`
}

// DollarsToCents rounds a dollar amount to integer cents.
func DollarsToCents(v *float64) *int64 {
	if v == nil {
		return nil
	}
	cents := int64(*v*100 + 0.5)
	if *v < 0 {
		cents = int64(*v*100 - 0.5)
	}
	return &cents
}
