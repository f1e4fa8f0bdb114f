package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/princeprakhar/review-catalog-backend/internal/utils"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

var ErrEmptyQuery = errors.New("query is required")

const (
	aiSearchCatalogSize  = 40
	aiSearchMaxPicks     = 3
	aiSearchFallbackSize = 5
	aiSearchMinWords     = 3

	aiSearchGuidance    = "Please provide a short description of what you're looking for (at least 3 words) so I can help you find the right product."
	aiSearchFallbackMsg = "The AI service is temporarily unavailable, so here are some highly rated products based on basic ratings and review counts."
)

const aiSearchSystemPrompt = `You are an expert product recommender. A user describes what they're looking for, and you recommend the best products from our catalog that match their needs.

Return ONLY valid JSON in this exact format:
{
  "query": "user's query here",
  "explanation": "brief explanation of your reasoning",
  "topPicks": [
    { "productId": "id", "matchScore": 85, "reason": "why it fits" }
  ]
}

Pick up to 3 best matches. matchScore is 0-100.`

type SearchPick struct {
	ProductID  string  `json:"productId"`
	Name       string  `json:"name"`
	Brand      *string `json:"brand"`
	MatchScore int     `json:"matchScore"`
	Reason     string  `json:"reason"`
}

type SearchResult struct {
	Query       string       `json:"query"`
	Explanation string       `json:"explanation"`
	TopPicks    []SearchPick `json:"topPicks"`
	Fallback    bool         `json:"fallback"`
}

// AISearchService matches free-text needs against the best-rated part of
// the catalog with a chat model.
type AISearchService struct {
	catalog CatalogReader
	chat    ChatCompleter
	model   string
	log     *logrus.Entry
}

func NewAISearchService(catalog CatalogReader, chat ChatCompleter, model string) *AISearchService {
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	return &AISearchService{catalog: catalog, chat: chat, model: model, log: logger.Component("ai_search")}
}

func (s *AISearchService) Search(ctx context.Context, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if utils.WordCount(query) < aiSearchMinWords {
		return &SearchResult{Query: query, Explanation: aiSearchGuidance, TopPicks: []SearchPick{}}, nil
	}

	products, err := s.catalog.ProductsWithStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	rankByRating(products)
	if len(products) > aiSearchCatalogSize {
		products = products[:aiSearchCatalogSize]
	}

	content, err := s.chat.Complete(ctx, ChatRequest{
		Model: s.model,
		Messages: []ChatMessage{
			{Role: "system", Content: aiSearchSystemPrompt},
			{Role: "user", Content: buildSearchPrompt(query, products)},
		},
		Temperature: 0.3,
		MaxTokens:   1024,
	})
	if err != nil {
		s.log.WithError(err).Warn("ai search failed, using rating fallback")
		return fallbackSearch(query, products), nil
	}

	var parsed struct {
		Explanation string `json:"explanation"`
		TopPicks    []struct {
			ProductID  string  `json:"productId"`
			MatchScore float64 `json:"matchScore"`
			Reason     string  `json:"reason"`
		} `json:"topPicks"`
	}
	if err := json.Unmarshal([]byte(utils.StripCodeFences(content)), &parsed); err != nil {
		s.log.WithError(err).Warn("unparsable ai search response, using rating fallback")
		return fallbackSearch(query, products), nil
	}

	byID := make(map[string]models.ProductWithStats, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	picks := make([]SearchPick, 0, aiSearchMaxPicks)
	for _, pick := range parsed.TopPicks {
		p, ok := byID[pick.ProductID]
		if !ok {
			continue
		}
		reason := pick.Reason
		if reason == "" {
			reason = fmt.Sprintf("Matched your search for %q", query)
		}
		picks = append(picks, SearchPick{
			ProductID:  p.ID,
			Name:       p.Title,
			Brand:      p.Brand,
			MatchScore: int(math.Round(math.Max(0, math.Min(100, pick.MatchScore)))),
			Reason:     reason,
		})
		if len(picks) == aiSearchMaxPicks {
			break
		}
	}

	explanation := parsed.Explanation
	if explanation == "" {
		explanation = "AI-powered recommendation"
	}
	return &SearchResult{Query: query, Explanation: explanation, TopPicks: picks}, nil
}

func buildSearchPrompt(query string, products []models.ProductWithStats) string {
	var b strings.Builder
	b.WriteString("Here is our product catalog:\n\n")
	for _, p := range products {
		price := "N/A"
		if p.PriceMinCents != nil {
			price = fmt.Sprintf("%.2f", float64(*p.PriceMinCents)/100)
		}
		fmt.Fprintf(&b, "ID: %s | %s (%s) | %s | $%s | %.1f stars (%d reviews)\n",
			p.ID, p.Title, p.BrandName(), p.Category, price, p.Stats.AvgRating, p.Stats.ReviewCount)
	}
	fmt.Fprintf(&b, "\nThe user is looking for: %q\n\n", query)
	b.WriteString("Recommend the best 3 products from the catalog that match their request. Return ONLY the JSON, no other text.")
	return b.String()
}

// fallbackSearch expects products already ranked by rating.
func fallbackSearch(query string, products []models.ProductWithStats) *SearchResult {
	if len(products) > aiSearchFallbackSize {
		products = products[:aiSearchFallbackSize]
	}
	picks := make([]SearchPick, 0, len(products))
	for _, p := range products {
		picks = append(picks, SearchPick{
			ProductID:  p.ID,
			Name:       p.Title,
			Brand:      p.Brand,
			MatchScore: int(math.Round(p.Stats.AvgRating * 20)),
			Reason:     fmt.Sprintf("Average rating %.1f from %d reviews.", p.Stats.AvgRating, p.Stats.ReviewCount),
		})
	}
	return &SearchResult{Query: query, Explanation: aiSearchFallbackMsg, TopPicks: picks, Fallback: true}
}
