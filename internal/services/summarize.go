package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/princeprakhar/review-catalog-backend/internal/storage"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoReviews         = errors.New("no reviews for this product")
	ErrSummarizerFailure = errors.New("summarizer failed")
)

const maxSummarizedReviews = 40

// Generator produces a completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OllamaClient calls a local Ollama server's /api/generate endpoint.
type OllamaClient struct {
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
}

func NewOllamaClient(baseURL, model string) *OllamaClient {
	return &OllamaClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: 0.2,
		httpClient:  &http.Client{Timeout: 2 * time.Minute},
	}
}

func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"model":   c.model,
		"prompt":  prompt,
		"stream":  false,
		"options": map[string]interface{}{"temperature": c.temperature},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("ollama error %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", errors.New("no response from model")
	}
	return strings.TrimSpace(out.Response), nil
}

type SummaryResult struct {
	ProductID string `json:"productId"`
	Summary   string `json:"summary"`
}

// SummaryService condenses a product's reviews and stores the result on it.
type SummaryService struct {
	store     storage.Store
	generator Generator
	log       *logrus.Entry
}

func NewSummaryService(store storage.Store, generator Generator) *SummaryService {
	return &SummaryService{store: store, generator: generator, log: logger.Component("summarizer")}
}

func (s *SummaryService) Summarize(ctx context.Context, productID string) (*SummaryResult, error) {
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: failed to fetch product: %v", ErrDatabaseQuery, err)
	}
	reviews, err := s.store.ListReviews(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch reviews: %v", ErrDatabaseQuery, err)
	}
	if len(reviews) == 0 {
		return nil, ErrNoReviews
	}

	summary, err := s.generator.Generate(ctx, buildSummaryPrompt(*product, reviews))
	if err != nil {
		s.log.WithError(err).WithField("product_id", productID).Warn("review summary failed")
		return nil, fmt.Errorf("%w: %v", ErrSummarizerFailure, err)
	}

	if _, err := s.store.UpdateProduct(ctx, productID, models.ProductUpdate{ReviewSummary: &summary}); err != nil {
		return nil, fmt.Errorf("%w: failed to store summary: %v", ErrDatabaseQuery, err)
	}
	s.log.WithFields(logrus.Fields{"product_id": productID, "reviews": len(reviews)}).Info("review summary stored")
	return &SummaryResult{ProductID: productID, Summary: summary}, nil
}

// buildSummaryPrompt lists the oldest reviews first, as they were written.
func buildSummaryPrompt(product models.Product, reviews []models.Review) string {
	ordered := make([]models.Review, 0, len(reviews))
	for i := len(reviews) - 1; i >= 0; i-- {
		ordered = append(ordered, reviews[i])
	}
	if len(ordered) > maxSummarizedReviews {
		ordered = ordered[:maxSummarizedReviews]
	}

	var b strings.Builder
	b.WriteString("You are summarizing customer reviews for a product.\n\n")
	fmt.Fprintf(&b, "Product: %s (%s)\n\n", product.Title, product.Category)
	b.WriteString("Write a concise summary in 3-5 sentences:\n")
	b.WriteString("- mention the most common praises\n")
	b.WriteString("- mention the most common complaints\n")
	b.WriteString("- overall sentiment\n")
	b.WriteString("No bullets. No headings. Plain text only.\n\n")
	b.WriteString("Reviews:\n")
	for i, r := range ordered {
		fmt.Fprintf(&b, "%d. (%d/5) %s\n", i+1, r.OverallRating, r.Notes)
	}
	return strings.TrimSpace(b.String())
}
