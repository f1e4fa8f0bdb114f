package services

import (
	"regexp"
	"strings"

	"github.com/princeprakhar/review-catalog-backend/internal/models"
)

// DuplicateWeights tunes the duplicate-title scorer.
type DuplicateWeights struct {
	BrandBoost    float64
	CategoryBoost float64
	NumberPenalty float64
	Threshold     float64
	ExactMatch    float64
}

func DefaultDuplicateWeights() DuplicateWeights {
	return DuplicateWeights{
		BrandBoost:    0.03,
		CategoryBoost: 0.02,
		NumberPenalty: 0.25,
		Threshold:     0.9,
		ExactMatch:    0.98,
	}
}

// IsExactMatch reports whether score is high enough to hard-block creation.
func (w DuplicateWeights) IsExactMatch(score float64) bool {
	return score >= w.ExactMatch
}

// SimilarityBreakdown is the per-feature view of one comparison.
type SimilarityBreakdown struct {
	Raw           float64 `json:"raw"`
	BrandMatch    bool    `json:"brand_match"`
	CategoryMatch bool    `json:"category_match"`
	NumberPenalty bool    `json:"number_penalty"`
	Score         float64 `json:"score"`
}

type DuplicateMatch struct {
	Product    models.Product      `json:"product"`
	Similarity float64             `json:"similarity"`
	Breakdown  SimilarityBreakdown `json:"breakdown"`
}

var digitRun = regexp.MustCompile(`\d+`)

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// titleSimilarity is (longer - editDistance) / longer over runes.
func titleSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	return float64(longer-levenshtein(ra, rb)) / float64(longer)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			curr[j] = 1 + min(prev[j], curr[j-1], prev[j-1])
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func shareNumber(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// ScoreTitles compares a candidate against one existing product.
func ScoreTitles(title, brand, category string, existing models.Product, w DuplicateWeights) SimilarityBreakdown {
	target := normalizeTitle(title)
	candidate := normalizeTitle(existing.Title)

	b := SimilarityBreakdown{Raw: titleSimilarity(target, candidate)}
	b.Score = b.Raw

	if brand != "" && existing.BrandName() != "" && strings.EqualFold(brand, existing.BrandName()) {
		b.BrandMatch = true
		b.Score += w.BrandBoost
	}
	if category != "" && existing.Category != "" && strings.EqualFold(category, existing.Category) {
		b.CategoryMatch = true
		b.Score += w.CategoryBoost
	}

	numsA := digitRun.FindAllString(target, -1)
	numsB := digitRun.FindAllString(candidate, -1)
	if len(numsA) > 0 && len(numsB) > 0 && !shareNumber(numsA, numsB) {
		b.NumberPenalty = true
		b.Score -= w.NumberPenalty
	}
	return b
}

// FindSimilarProduct returns the best-scoring product at or above the
// threshold, or nil.
func FindSimilarProduct(title, brand, category string, products []models.Product, w DuplicateWeights) *DuplicateMatch {
	if len(strings.TrimSpace(title)) < 2 {
		return nil
	}

	var best *DuplicateMatch
	for _, p := range products {
		b := ScoreTitles(title, brand, category, p, w)
		if best == nil || b.Score > best.Similarity {
			best = &DuplicateMatch{Product: p, Similarity: b.Score, Breakdown: b}
		}
	}
	if best != nil && best.Similarity >= w.Threshold {
		return best
	}
	return nil
}
