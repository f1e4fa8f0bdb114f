package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/review-catalog-backend/internal/api/handlers"
	"github.com/princeprakhar/review-catalog-backend/internal/config"
	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/princeprakhar/review-catalog-backend/internal/services"
	"github.com/princeprakhar/review-catalog-backend/internal/storage"
	"github.com/princeprakhar/review-catalog-backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const adminKey = "let-me-in"

// stubVerifier approves everything whose title does not contain "spam".
// GenerateImage waits on gate when it is set.
type stubVerifier struct {
	gate chan struct{}
}

func (v *stubVerifier) VerifyProduct(ctx context.Context, title, brand, category, description string) services.VerificationResult {
	if strings.Contains(strings.ToLower(title), "spam") {
		return services.VerificationResult{Status: models.VerificationFlagged, Score: 5, Reason: "Looks like spam"}
	}
	return services.VerificationResult{Status: models.VerificationVerified, Score: 88, Reason: "Known product"}
}

func (v *stubVerifier) GenerateImage(ctx context.Context, title, brand, category string) (string, bool) {
	if v.gate != nil {
		<-v.gate
	}
	return "https://cdn.test/generated/img.png", true
}

func (v *stubVerifier) DiscardImage(url string) {}

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "Reviewers are happy.", nil
}

type stubChat struct{}

func (stubChat) Complete(ctx context.Context, req services.ChatRequest) (string, error) {
	return `{"explanation":"ok","topPicks":[{"productId":"2","matchScore":90,"reason":"fits"}]}`, nil
}

type testServer struct {
	router   *gin.Engine
	cfg      *config.Config
	verifier *stubVerifier
	backfill *services.BackfillService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminKey), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := &config.Config{
		JWTSecret:       "test-secret",
		AdminAPIKeyHash: string(hash),
		RateLimitRPS:    1000,
		AllowedOrigins:  []string{"http://localhost:3000"},
	}

	store, err := storage.OpenJSONStore(t.TempDir())
	require.NoError(t, err)

	verifier := &stubVerifier{}
	weights := services.DefaultDuplicateWeights()
	products := services.NewProductService(store, verifier, weights)
	gamification := services.NewGamificationService(store)
	backfill := services.NewBackfillService(store, verifier, nil, "", 0)
	imports := services.NewImportService(store, services.DefaultImportLimits())

	router := gin.New()
	SetupRoutes(router, cfg, Handlers{
		Product:   handlers.NewProductHandler(products, services.NewSummaryService(store, stubGenerator{})),
		Review:    handlers.NewReviewHandler(services.NewReviewService(store, nil)),
		Assistant: handlers.NewAssistantHandler(services.NewAssistantService(products, nil), services.NewAISearchService(products, stubChat{}, "")),
		Profile:   handlers.NewProfileHandler(gamification),
		Admin:     handlers.NewAdminHandler(context.Background(), products, backfill, imports),
	})
	return &testServer{router: router, cfg: cfg, verifier: verifier, backfill: backfill}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProductRoutes(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/products?category=Laptops", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.ProductWithStats
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 2)

	w, _ = s.do(t, http.MethodGet, "/api/v1/products/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/v1/products/check-duplicate?title=Samsung+Galaxy+S10&brand=Samsung", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dup struct {
		Duplicate bool `json:"duplicate"`
		Exact     bool `json:"exact"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dup))
	assert.True(t, dup.Duplicate)
	assert.True(t, dup.Exact)
}

func TestCreateProductStatuses(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader("{"))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/v1/products", gin.H{"title": "", "category": "Phones"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "title and category are required", env.Message)

	w, env = s.do(t, http.MethodPost, "/api/v1/products", gin.H{"title": "Pixel 9", "category": "Smartphones", "price": -5}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "price must not be negative", env.Message)

	w, env = s.do(t, http.MethodPost, "/api/v1/products", gin.H{"title": "Buy spam now", "category": "Phones"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Looks like spam", env.Error)

	w, env = s.do(t, http.MethodPost, "/api/v1/products", gin.H{"title": "Dell XPS 13", "brand": "Dell", "category": "Laptops"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"productId":"2"`)

	w, env = s.do(t, http.MethodPost, "/api/v1/products", gin.H{"title": "Nothing Phone 2a", "category": "Smartphones", "price": 349}, map[string]string{"X-User-Id": "u-9"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Product models.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "u-9", created.Product.CreatedBy)
	assert.Equal(t, models.VerificationVerified, created.Product.VerificationStatus)
}

func TestReviewRoutes(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodPost, "/api/v1/reviews", gin.H{"product_id": "1", "overall_rating": 4}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields", env.Message)

	w, _ = s.do(t, http.MethodPost, "/api/v1/reviews", gin.H{"product_id": "ghost", "overall_rating": 4, "reviewer_name": "Ana"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/reviews", gin.H{"product_id": "1", "overall_rating": 4, "reviewer_name": "Ana"}, map[string]string{"X-User-Id": "ana"})
	require.Equal(t, http.StatusCreated, w.Code)
	var review models.Review
	require.NoError(t, json.Unmarshal(env.Data, &review))
	assert.Equal(t, "ana", review.UserID)

	w, _ = s.do(t, http.MethodPost, "/api/v1/reviews/"+review.ID+"/helpful", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/reviews/"+review.ID+"/helpful", nil, map[string]string{"X-Client-Id": "browser-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"helpful_count":1,"has_voted":true}`, string(env.Data))

	w, _ = s.do(t, http.MethodGet, "/api/v1/products/1/reviews", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/v1/reviews/"+review.ID, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodDelete, "/api/v1/reviews/"+review.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBearerIdentity(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{"product_id": "2", "overall_rating": 5, "reviewer_name": "Bo"}

	w, _ := s.do(t, http.MethodPost, "/api/v1/reviews", body, map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, _, err := utils.GenerateAccessToken("bo-1", "Bo", s.cfg.JWTSecret, time.Minute)
	require.NoError(t, err)
	w, env := s.do(t, http.MethodPost, "/api/v1/reviews", body, map[string]string{"Authorization": "Bearer " + token, "X-User-Id": "spoofed"})
	require.Equal(t, http.StatusCreated, w.Code)
	var review models.Review
	require.NoError(t, json.Unmarshal(env.Data, &review))
	assert.Equal(t, "bo-1", review.UserID)
}

func TestAssistantRoutes(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/v1/assistant/chat", gin.H{"userMessage": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/assistant/chat", gin.H{"userMessage": "hey"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/v1/ai-search", gin.H{"query": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Query is required", env.Message)

	w, env = s.do(t, http.MethodPost, "/api/v1/ai-search", gin.H{"query": "light laptop for travel"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"productId":"2"`)

	w, _ = s.do(t, http.MethodGet, "/api/v1/users/nobody/profile", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/v1/users/me/profile", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/products/1/summarize", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	gate := make(chan struct{})
	s.verifier.gate = gate
	var once sync.Once
	release := func() { once.Do(func() { close(gate) }) }
	t.Cleanup(release)

	w, _ := s.do(t, http.MethodPost, "/api/v1/admin/backfill", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(t, http.MethodPost, "/api/v1/admin/backfill", nil, map[string]string{"X-Admin-Key": "wrong"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := map[string]string{"X-Admin-Key": adminKey}
	w, env := s.do(t, http.MethodPost, "/api/v1/admin/backfill", nil, admin)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"productsToProcess":11,"status":"started"}`, string(env.Data))

	w, _ = s.do(t, http.MethodPost, "/api/v1/admin/backfill", nil, admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	release()
	require.Eventually(t, func() bool { return !s.backfill.Running() }, 5*time.Second, 10*time.Millisecond)

	w, _ = s.do(t, http.MethodPost, "/api/v1/products/nope/regenerate-image", nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminImport(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "reviews.jsonl")
	require.NoError(t, err)
	_, _ = part.Write([]byte(`{"asin":"B0TEST","overall":4,"summary":"Nice"}` + "\n"))
	require.NoError(t, mw.WriteField("category", "Audio"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Admin-Key", adminKey)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"productsImported":1`)
}
