package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/princeprakhar/review-catalog-backend/internal/storage"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

type ImportLimits struct {
	MaxProducts       int
	MaxReviews        int
	ReviewsPerProduct int
}

func DefaultImportLimits() ImportLimits {
	return ImportLimits{MaxProducts: 200, MaxReviews: 1000, ReviewsPerProduct: 25}
}

type ImportReport struct {
	ProductsImported int      `json:"productsImported"`
	ReviewsImported  int      `json:"reviewsImported"`
	Duplicates       int      `json:"duplicates"`
	SkippedLines     int      `json:"skippedLines"`
	Failures         []string `json:"failures,omitempty"`
}

// datasetRow is one line of an Amazon-style review dump.
type datasetRow struct {
	ASIN       string      `json:"asin"`
	Overall    json.Number `json:"overall"`
	Summary    string      `json:"summary"`
	ReviewText string      `json:"reviewText"`
	Source     string      `json:"source"`
}

type importBucket struct {
	asin    string
	reviews []models.Review
}

// ImportService bulk-loads products and reviews from JSON lines.
type ImportService struct {
	store  storage.Store
	limits ImportLimits
	now    func() time.Time
	log    *logrus.Entry
}

func NewImportService(store storage.Store, limits ImportLimits) *ImportService {
	return &ImportService{store: store, limits: limits, now: time.Now, log: logger.Component("import")}
}

// ImportJSONL groups rows by ASIN, skips ASINs whose product title already
// exists in the catalog, and stores the rest with their reviews.
func (s *ImportService) ImportJSONL(ctx context.Context, r io.Reader, category string) (*ImportReport, error) {
	if category == "" {
		category = "Electronics"
	}
	report := &ImportReport{}
	buckets, err := s.group(r, report)
	if err != nil {
		return report, err
	}

	catalog, err := s.store.ListProducts(ctx, models.ProductFilter{})
	if err != nil {
		return report, fmt.Errorf("%w: failed to load catalog: %v", ErrDatabaseQuery, err)
	}
	// ASIN titles differ by a single character, so only an exact title
	// match counts as already imported.
	existing := make(map[string]struct{}, len(catalog))
	for _, p := range catalog {
		existing[titleKey(p.Title)] = struct{}{}
	}

	for _, b := range buckets {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		title := "Amazon Product " + b.asin
		if _, ok := existing[titleKey(title)]; ok {
			report.Duplicates++
			continue
		}

		now := s.now()
		product := models.Product{
			ID:        uuid.NewString(),
			Title:     title,
			Category:  category,
			CreatedBy: "import",
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.store.CreateProduct(ctx, &product); err != nil {
			report.Failures = append(report.Failures, fmt.Sprintf("%s: %v", b.asin, err))
			continue
		}
		existing[titleKey(title)] = struct{}{}
		report.ProductsImported++

		for i := range b.reviews {
			rev := b.reviews[i]
			rev.ID = uuid.NewString()
			rev.ProductID = product.ID
			rev.CreatedAt = now
			rev.UpdatedAt = now
			if err := s.store.AddReview(ctx, &rev); err != nil {
				report.Failures = append(report.Failures, fmt.Sprintf("%s review %d: %v", b.asin, i+1, err))
				continue
			}
			report.ReviewsImported++
		}
	}

	s.log.WithFields(logrus.Fields{
		"products":   report.ProductsImported,
		"reviews":    report.ReviewsImported,
		"duplicates": report.Duplicates,
		"failures":   len(report.Failures),
	}).Info("import finished")
	return report, nil
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func (s *ImportService) group(r io.Reader, report *ImportReport) ([]*importBucket, error) {
	var ordered []*importBucket
	byASIN := make(map[string]*importBucket)
	total := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row datasetRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			report.SkippedLines++
			continue
		}
		review, ok := row.toReview()
		if !ok {
			report.SkippedLines++
			continue
		}

		b, exists := byASIN[row.ASIN]
		if !exists {
			if len(ordered) >= s.limits.MaxProducts {
				continue
			}
			b = &importBucket{asin: row.ASIN}
			byASIN[row.ASIN] = b
			ordered = append(ordered, b)
		}
		if len(b.reviews) < s.limits.ReviewsPerProduct {
			b.reviews = append(b.reviews, review)
		}

		total++
		if total >= s.limits.MaxReviews {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	return ordered, nil
}

func (row datasetRow) toReview() (models.Review, bool) {
	row.ASIN = strings.TrimSpace(row.ASIN)
	if row.ASIN == "" {
		return models.Review{}, false
	}
	rating, err := row.Overall.Float64()
	if err != nil || rating < 1 || rating > 5 {
		return models.Review{}, false
	}

	var parts []string
	for _, p := range []string{row.Summary, row.ReviewText} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return models.Review{}, false
	}

	source := strings.TrimSpace(row.Source)
	if source == "" {
		source = "dataset"
	}
	return models.Review{
		OverallRating: int(math.Round(rating)),
		Attributes:    models.DefaultAttributes(),
		Notes:         strings.Join(parts, ". "),
		ReviewerName:  "Verified buyer",
		Source:        source,
		HelpfulVoters: []string{},
	}, true
}
