package services

import (
	"context"
	"sync"
	"testing"

	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/princeprakhar/review-catalog-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	mu          sync.Mutex
	result      VerificationResult
	imageURL    string
	imageFails  bool
	verifyCalls int
	imageCalls  int
	discarded   []string
}

func (f *fakeVerifier) VerifyProduct(ctx context.Context, title, brand, category, description string) VerificationResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	return f.result
}

func (f *fakeVerifier) GenerateImage(ctx context.Context, title, brand, category string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageCalls++
	if f.imageFails {
		return "", false
	}
	return f.imageURL, true
}

func (f *fakeVerifier) DiscardImage(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discarded = append(f.discarded, url)
}

func verified() VerificationResult {
	return VerificationResult{Status: models.VerificationVerified, Score: 90, Reason: "Known product"}
}

func newTestStore(t *testing.T) *storage.JSONStore {
	t.Helper()
	s, err := storage.OpenJSONStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func floatPtr(v float64) *float64 { return &v }

func TestCreateProductBlocksDuplicates(t *testing.T) {
	verifier := &fakeVerifier{result: verified()}
	s := NewProductService(newTestStore(t), verifier, DefaultDuplicateWeights())

	res, err := s.CreateProduct(context.Background(), "u1", models.CreateProductRequest{
		Title: "Samsung Galaxy S10", Brand: "Samsung", Category: "Smartphones",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Duplicate)
	assert.Nil(t, res.Product)
	assert.Equal(t, "1", res.Duplicate.Product.ID)
	assert.True(t, s.IsExactMatch(res.Duplicate.Similarity))
	assert.Zero(t, verifier.verifyCalls)
}

func TestCreateProductRejectedByVerification(t *testing.T) {
	store := newTestStore(t)
	verifier := &fakeVerifier{result: VerificationResult{Status: models.VerificationFlagged, Score: 10, Reason: "Looks like spam"}}
	s := NewProductService(store, verifier, DefaultDuplicateWeights())

	res, err := s.CreateProduct(context.Background(), "", models.CreateProductRequest{Title: "FREE MONEY CLICK HERE", Category: "Other"})
	assert.ErrorIs(t, err, ErrProductRejected)
	require.NotNil(t, res)
	assert.Equal(t, "Looks like spam", res.Verification.Reason)

	products, err := store.ListProducts(context.Background(), models.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, products, 11)
}

func TestCreateProductWithGeneratedImage(t *testing.T) {
	store := newTestStore(t)
	verifier := &fakeVerifier{result: verified(), imageURL: "https://cdn.test/generated/p.png"}
	s := NewProductService(store, verifier, DefaultDuplicateWeights())

	res, err := s.CreateProduct(context.Background(), "", models.CreateProductRequest{
		Title:         "  Pixel 9 Pro Fold ",
		Brand:         "Google",
		Category:      "Smartphones",
		Price:         floatPtr(1799.99),
		GenerateImage: true,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Product)

	p := res.Product
	assert.Equal(t, "Pixel 9 Pro Fold", p.Title)
	assert.Equal(t, "anonymous", p.CreatedBy)
	assert.Equal(t, int64(179999), *p.PriceMinCents)
	assert.Equal(t, models.ImageSourceAIGenerated, p.ImageSource)
	assert.Equal(t, models.VerificationVerified, p.VerificationStatus)
	assert.Equal(t, 90, *p.AIRiskScore)

	stored, err := store.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/generated/p.png", stored.ImageURL)
}

func TestCreateProductPrefersUploadedImage(t *testing.T) {
	verifier := &fakeVerifier{result: verified(), imageURL: "https://cdn.test/generated/p.png"}
	s := NewProductService(newTestStore(t), verifier, DefaultDuplicateWeights())

	res, err := s.CreateProduct(context.Background(), "u1", models.CreateProductRequest{
		Title: "Kindle Paperwhite", Category: "Tablets", ImageURL: "https://img.test/kindle.jpg", GenerateImage: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ImageSourceUserUploaded, res.Product.ImageSource)
	assert.Zero(t, verifier.imageCalls)
}

func TestCreateProductSurvivesImageFailure(t *testing.T) {
	verifier := &fakeVerifier{result: verified(), imageFails: true}
	s := NewProductService(newTestStore(t), verifier, DefaultDuplicateWeights())

	res, err := s.CreateProduct(context.Background(), "u1", models.CreateProductRequest{
		Title: "Steam Deck OLED", Category: "Gaming", GenerateImage: true,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Product.ImageURL)
	assert.Empty(t, res.Product.ImageSource)
}

func TestCreateProductValidation(t *testing.T) {
	s := NewProductService(newTestStore(t), &fakeVerifier{result: verified()}, DefaultDuplicateWeights())

	_, err := s.CreateProduct(context.Background(), "", models.CreateProductRequest{Category: "Phones"})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = s.CreateProduct(context.Background(), "", models.CreateProductRequest{Title: "Thing", Category: "Misc", Price: floatPtr(-1)})
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestRegenerateImage(t *testing.T) {
	store := newTestStore(t)
	verifier := &fakeVerifier{result: verified(), imageURL: "https://cdn.test/generated/new.png"}
	s := NewProductService(store, verifier, DefaultDuplicateWeights())
	ctx := context.Background()

	old, source := "https://cdn.test/generated/old.png", models.ImageSourceAIGenerated
	_, err := store.UpdateProduct(ctx, "2", models.ProductUpdate{ImageURL: &old, ImageSource: &source})
	require.NoError(t, err)

	p, err := s.RegenerateImage(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/generated/new.png", p.ImageURL)
	assert.Equal(t, []string{old}, verifier.discarded)

	_, err = s.RegenerateImage(ctx, "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)

	verifier.imageFails = true
	_, err = s.RegenerateImage(ctx, "2")
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestGetProductIncludesStats(t *testing.T) {
	store := newTestStore(t)
	s := NewProductService(store, &fakeVerifier{result: verified()}, DefaultDuplicateWeights())
	ctx := context.Background()

	require.NoError(t, store.AddReview(ctx, &models.Review{ID: "r1", ProductID: "3", OverallRating: 4, Attributes: models.DefaultAttributes(), WouldRecommend: true}))
	require.NoError(t, store.AddReview(ctx, &models.Review{ID: "r2", ProductID: "3", OverallRating: 5, Attributes: models.DefaultAttributes()}))

	p, err := s.GetProduct(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stats.ReviewCount)
	assert.Equal(t, 4.5, p.Stats.AvgRating)
	assert.Equal(t, 0.5, p.Stats.RecommendationRate)

	_, err = s.GetProduct(ctx, "nope")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestComputeStats(t *testing.T) {
	attrs := models.DefaultAttributes()
	low := attrs
	low.Battery = 2

	stats := ComputeStats([]models.Review{
		{OverallRating: 5, Attributes: attrs, WouldRecommend: true},
		{OverallRating: 4, Attributes: low, WouldRecommend: true},
		{OverallRating: 4, Attributes: attrs},
	})
	assert.Equal(t, 3, stats.ReviewCount)
	assert.Equal(t, 4.33, stats.AvgRating)
	assert.Equal(t, 0.67, stats.RecommendationRate)
	assert.Equal(t, 4.0, stats.AttributeAverages["battery"])
	assert.Equal(t, 5.0, stats.AttributeAverages["camera"])

	empty := ComputeStats(nil)
	assert.Zero(t, empty.AvgRating)
	assert.NotNil(t, empty.AttributeAverages)
}
