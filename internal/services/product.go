package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/princeprakhar/review-catalog-backend/internal/storage"
	"github.com/princeprakhar/review-catalog-backend/internal/utils"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrProductRejected = errors.New("product rejected by verification")
	ErrDatabaseQuery   = errors.New("database query failed")
)

// QueryTimeout bounds a single catalog read.
const QueryTimeout = 10 * time.Second

// ProductVerifier is the AI gate consulted on product creation.
type ProductVerifier interface {
	VerifyProduct(ctx context.Context, title, brand, category, description string) VerificationResult
	GenerateImage(ctx context.Context, title, brand, category string) (string, bool)
	DiscardImage(url string)
}

type ProductService struct {
	store    storage.Store
	verifier ProductVerifier
	weights  DuplicateWeights
	now      func() time.Time
	log      *logrus.Entry
}

func NewProductService(store storage.Store, verifier ProductVerifier, weights DuplicateWeights) *ProductService {
	return &ProductService{
		store:    store,
		verifier: verifier,
		weights:  weights,
		now:      time.Now,
		log:      logger.Component("products"),
	}
}

// CreateProductResult is either a created product or the duplicate that
// blocked creation.
type CreateProductResult struct {
	Product      *models.Product     `json:"product,omitempty"`
	Duplicate    *DuplicateMatch     `json:"duplicate,omitempty"`
	Verification *VerificationResult `json:"verification,omitempty"`
}

// ListProducts returns the filtered catalog with per-product stats.
func (s *ProductService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.ProductWithStats, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	products, err := s.store.ListProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch products: %v", ErrDatabaseQuery, err)
	}
	reviews, err := s.store.AllReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch reviews: %v", ErrDatabaseQuery, err)
	}

	byProduct := make(map[string][]models.Review)
	for _, r := range reviews {
		byProduct[r.ProductID] = append(byProduct[r.ProductID], r)
	}

	out := make([]models.ProductWithStats, 0, len(products))
	for _, p := range products {
		out = append(out, models.ProductWithStats{Product: p, Stats: ComputeStats(byProduct[p.ID])})
	}
	return out, nil
}

// ProductsWithStats is the full catalog view used by search and the assistant.
func (s *ProductService) ProductsWithStats(ctx context.Context) ([]models.ProductWithStats, error) {
	return s.ListProducts(ctx, models.ProductFilter{})
}

// GetProduct retrieves a single product with its review stats.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.ProductWithStats, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: invalid product ID", ErrInvalidProduct)
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: failed to fetch product: %v", ErrDatabaseQuery, err)
	}
	reviews, err := s.store.ListReviews(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch reviews: %v", ErrDatabaseQuery, err)
	}
	return &models.ProductWithStats{Product: *product, Stats: ComputeStats(reviews)}, nil
}

func (s *ProductService) GetCategories(ctx context.Context) ([]string, error) {
	categories, err := s.store.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch categories: %v", ErrDatabaseQuery, err)
	}
	return categories, nil
}

// CheckDuplicate scores the candidate against the whole catalog.
func (s *ProductService) CheckDuplicate(ctx context.Context, title, brand, category string) (*DuplicateMatch, error) {
	products, err := s.store.ListProducts(ctx, models.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load catalog: %v", ErrDatabaseQuery, err)
	}
	return FindSimilarProduct(title, brand, category, products, s.weights), nil
}

// IsExactMatch reports whether a similarity counts as the same product.
func (s *ProductService) IsExactMatch(similarity float64) bool {
	return s.weights.IsExactMatch(similarity)
}

// CreateProduct runs the duplicate check and the AI gate, optionally
// generates an image, and persists the product.
func (s *ProductService) CreateProduct(ctx context.Context, createdBy string, req models.CreateProductRequest) (*CreateProductResult, error) {
	req.Title = utils.SanitizeString(req.Title)
	req.Brand = utils.SanitizeString(req.Brand)
	req.Category = utils.SanitizeString(req.Category)
	req.Description = utils.SanitizeString(req.Description)
	if req.Title == "" || req.Category == "" {
		return nil, fmt.Errorf("%w: title and category are required", ErrInvalidProduct)
	}
	if (req.Price != nil && *req.Price < 0) || (req.PriceMax != nil && *req.PriceMax < 0) {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}

	match, err := s.CheckDuplicate(ctx, req.Title, req.Brand, req.Category)
	if err != nil {
		return nil, err
	}
	if match != nil {
		s.log.WithFields(logrus.Fields{
			"title":      req.Title,
			"product_id": match.Product.ID,
			"similarity": match.Similarity,
		}).Info("duplicate product submission")
		return &CreateProductResult{Duplicate: match}, nil
	}

	verification := s.verifier.VerifyProduct(ctx, req.Title, req.Brand, req.Category, req.Description)
	if verification.Rejected() {
		s.log.WithFields(logrus.Fields{"title": req.Title, "score": verification.Score}).Warn("product rejected by verification")
		return &CreateProductResult{Verification: &verification}, fmt.Errorf("%w: %s", ErrProductRejected, verification.Reason)
	}

	if createdBy == "" {
		createdBy = "anonymous"
	}
	now := s.now()
	score := verification.Score
	product := &models.Product{
		ID:                 uuid.NewString(),
		Title:              req.Title,
		Category:           req.Category,
		Description:        req.Description,
		PriceMinCents:      models.DollarsToCents(req.Price),
		PriceMaxCents:      models.DollarsToCents(req.PriceMax),
		CreatedBy:          createdBy,
		CreatedAt:          now,
		UpdatedAt:          now,
		VerificationStatus: verification.Status,
		AIRiskScore:        &score,
		AIReason:           verification.Reason,
	}
	if req.Brand != "" {
		brand := req.Brand
		product.Brand = &brand
	}

	switch {
	case req.ImageURL != "":
		product.ImageURL = req.ImageURL
		product.ImageSource = models.ImageSourceUserUploaded
	case req.GenerateImage:
		if url, ok := s.verifier.GenerateImage(ctx, req.Title, req.Brand, req.Category); ok {
			product.ImageURL = url
			product.ImageSource = models.ImageSourceAIGenerated
		}
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		if product.ImageSource == models.ImageSourceAIGenerated {
			s.verifier.DiscardImage(product.ImageURL)
		}
		return nil, fmt.Errorf("%w: failed to create product: %v", ErrDatabaseQuery, err)
	}

	s.log.WithFields(logrus.Fields{
		"product_id":   product.ID,
		"verification": product.VerificationStatus,
	}).Info("product created")
	return &CreateProductResult{Product: product, Verification: &verification}, nil
}

// RegenerateImage replaces a product's image with a freshly generated one.
func (s *ProductService) RegenerateImage(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: failed to fetch product: %v", ErrDatabaseQuery, err)
	}

	url, ok := s.verifier.GenerateImage(ctx, product.Title, product.BrandName(), product.Category)
	if !ok {
		return nil, fmt.Errorf("%w: image generation failed", ErrAIUnavailable)
	}
	source := models.ImageSourceAIGenerated
	updated, err := s.store.UpdateProduct(ctx, id, models.ProductUpdate{ImageURL: &url, ImageSource: &source})
	if err != nil {
		s.verifier.DiscardImage(url)
		return nil, fmt.Errorf("%w: failed to update product: %v", ErrDatabaseQuery, err)
	}
	if product.ImageSource == models.ImageSourceAIGenerated {
		s.verifier.DiscardImage(product.ImageURL)
	}
	return updated, nil
}

// ComputeStats derives the review aggregates of one product.
func ComputeStats(reviews []models.Review) models.ProductStats {
	stats := models.ProductStats{ReviewCount: len(reviews), AttributeAverages: map[string]float64{}}
	if len(reviews) == 0 {
		return stats
	}

	var ratingSum, recommended int
	attrSums := make(map[string]int)
	for _, r := range reviews {
		ratingSum += r.OverallRating
		if r.WouldRecommend {
			recommended++
		}
		for k, v := range r.Attributes.Map() {
			attrSums[k] += v
		}
	}
	n := float64(len(reviews))
	stats.AvgRating = roundTo(float64(ratingSum)/n, 2)
	stats.RecommendationRate = roundTo(float64(recommended)/n, 2)
	for k, sum := range attrSums {
		stats.AttributeAverages[k] = roundTo(float64(sum)/n, 2)
	}
	return stats
}

func roundTo(v float64, places int) float64 {
	p := 1.0
	for i := 0; i < places; i++ {
		p *= 10
	}
	if v < 0 {
		return float64(int64(v*p-0.5)) / p
	}
	return float64(int64(v*p+0.5)) / p
}

// rankByRating orders products by average rating, then review count.
func rankByRating(products []models.ProductWithStats) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i].Stats, products[j].Stats
		if a.AvgRating != b.AvgRating {
			return a.AvgRating > b.AvgRating
		}
		return a.ReviewCount > b.ReviewCount
	})
}
