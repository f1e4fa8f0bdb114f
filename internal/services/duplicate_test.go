package services

import (
	"testing"

	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id, title, brand, category string) models.Product {
	p := models.Product{ID: id, Title: title, Category: category}
	if brand != "" {
		p.Brand = &brand
	}
	return p
}

func TestIdenticalNormalizedTitlesScoreOne(t *testing.T) {
	b := ScoreTitles("  Dell   XPS 13 ", "", "", product("1", "dell xps 13", "", ""), DefaultDuplicateWeights())
	assert.Equal(t, 1.0, b.Raw)
	assert.False(t, b.NumberPenalty)
}

func TestTitlesWithoutDigitsNeverPenalized(t *testing.T) {
	b := ScoreTitles("Galaxy Buds", "", "", product("1", "Galaxy Tab", "", ""), DefaultDuplicateWeights())
	assert.False(t, b.NumberPenalty)
	assert.Equal(t, b.Raw, b.Score)

	b = ScoreTitles("Pixel Pro", "", "", product("1", "Pixel 8", "", ""), DefaultDuplicateWeights())
	assert.False(t, b.NumberPenalty, "only one side has digits")
}

func TestDisjointNumbersSubtractPenalty(t *testing.T) {
	w := DefaultDuplicateWeights()
	b := ScoreTitles("iPhone 15 Pro", "", "", product("1", "iPhone 16 Pro", "", ""), w)
	require.True(t, b.NumberPenalty)
	assert.InDelta(t, b.Raw-0.25, b.Score, 1e-9)

	b = ScoreTitles("Galaxy S24 256GB", "", "", product("1", "Galaxy S23 256GB", "", ""), w)
	assert.False(t, b.NumberPenalty, "a shared number suppresses the penalty")
}

func TestNeighbouringGenerationsAreNotDuplicates(t *testing.T) {
	catalog := []models.Product{product("1", "iPhone 16 Pro", "Apple", "Phones")}
	match := FindSimilarProduct("iPhone 15 Pro", "Apple", "Phones", catalog, DefaultDuplicateWeights())
	assert.Nil(t, match)
}

func TestSameTitleBrandCategoryIsExact(t *testing.T) {
	w := DefaultDuplicateWeights()
	catalog := []models.Product{
		product("2", "Dell XPS 13", "Dell", "Laptops"),
		product("8", "MacBook Pro 14-inch", "Apple", "Laptops"),
	}
	match := FindSimilarProduct("MacBook Pro 14-inch", "apple", "laptops", catalog, w)
	require.NotNil(t, match)
	assert.Equal(t, "8", match.Product.ID)
	assert.GreaterOrEqual(t, match.Similarity, 0.98)
	assert.True(t, w.IsExactMatch(match.Similarity))
	assert.True(t, match.Breakdown.BrandMatch)
	assert.True(t, match.Breakdown.CategoryMatch)
}

func TestShortOrEmptyTitlesShortCircuit(t *testing.T) {
	catalog := []models.Product{product("1", "X", "", "")}
	assert.Nil(t, FindSimilarProduct("", "", "", catalog, DefaultDuplicateWeights()))
	assert.Nil(t, FindSimilarProduct(" x ", "", "", catalog, DefaultDuplicateWeights()))
	assert.Nil(t, FindSimilarProduct("Dell XPS 13", "", "", nil, DefaultDuplicateWeights()))
}

func TestThresholdIsConfigurable(t *testing.T) {
	catalog := []models.Product{product("1", "Sony WH-1000XM5", "Sony", "Audio")}
	w := DefaultDuplicateWeights()
	assert.Nil(t, FindSimilarProduct("Sony WH1000 XM5 Headphones", "", "", catalog, w))

	w.Threshold = 0.4
	assert.NotNil(t, FindSimilarProduct("Sony WH1000 XM5 Headphones", "", "", catalog, w))
}
