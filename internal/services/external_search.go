package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

const (
	SourceLocal       = "Local Reviews"
	SourceBestBuy     = "Best Buy API"
	SourceReddit      = "Reddit Discussion"
	SourceOpenLibrary = "Open Library (Free)"

	redditUserAgent = "ProductReviewPlatform/1.0 (educational)"
	bestBuyFields   = "sku,name,regularPrice,customerReviewAverage,customerReviewCount,customerTopRated,shortDescription"
)

// ProductResult is the common shape of local and external search hits.
type ProductResult struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	PriceCents    int64              `json:"price_cents"`
	Rating        float64            `json:"rating"`
	Reviews       int                `json:"reviews"`
	Source        string             `json:"source"`
	Description   string             `json:"description,omitempty"`
	Category      string             `json:"category,omitempty"`
	ImageURL      string             `json:"image_url,omitempty"`
	PriorityScore float64            `json:"priority_score"`
	Attributes    map[string]float64 `json:"attributes,omitempty"`
}

// ExternalSearcher queries public product APIs when the local catalog has
// nothing to offer.
type ExternalSearcher struct {
	httpClient     *http.Client
	bestBuyKey     string
	bestBuyURL     string
	redditURL      string
	openLibraryURL string
	log            *logrus.Entry
}

func NewExternalSearcher(bestBuyKey, bestBuyURL, redditURL, openLibraryURL string) *ExternalSearcher {
	return &ExternalSearcher{
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		bestBuyKey:     bestBuyKey,
		bestBuyURL:     strings.TrimRight(bestBuyURL, "/"),
		redditURL:      strings.TrimRight(redditURL, "/"),
		openLibraryURL: strings.TrimRight(openLibraryURL, "/"),
		log:            logger.Component("external_search"),
	}
}

// Search tries Best Buy, then Reddit, then Open Library for book categories,
// returning the first non-empty result. Failures count as no results.
func (s *ExternalSearcher) Search(ctx context.Context, intent Intent) []ProductResult {
	sources := []struct {
		name string
		run  func(context.Context, Intent) ([]ProductResult, error)
		when bool
	}{
		{"bestbuy", s.searchBestBuy, s.bestBuyKey != ""},
		{"reddit", s.searchReddit, true},
		{"openlibrary", s.searchOpenLibrary, strings.Contains(strings.ToLower(intent.Category), "book")},
	}

	for _, src := range sources {
		if !src.when {
			continue
		}
		results, err := src.run(ctx, intent)
		if err != nil {
			s.log.WithError(err).WithField("source", src.name).Warn("external search failed")
			continue
		}
		if len(results) > 0 {
			s.log.WithFields(logrus.Fields{"source": src.name, "count": len(results)}).Info("external search hit")
			return results
		}
	}
	return nil
}

func (s *ExternalSearcher) getJSON(ctx context.Context, rawURL string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func searchQuery(parts ...string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func (s *ExternalSearcher) searchBestBuy(ctx context.Context, intent Intent) ([]ProductResult, error) {
	category := intent.Category
	if category == "" {
		category = "products"
	}
	q := url.Values{}
	q.Set("search", searchQuery(category, string(intent.Priority)))
	q.Set("show", bestBuyFields)
	q.Set("format", "json")
	q.Set("pageSize", "10")
	q.Set("apiKey", s.bestBuyKey)

	var body struct {
		Products []struct {
			SKU              json.Number `json:"sku"`
			Name             string      `json:"name"`
			RegularPrice     float64     `json:"regularPrice"`
			ReviewAverage    float64     `json:"customerReviewAverage"`
			ReviewCount      int         `json:"customerReviewCount"`
			TopRated         bool        `json:"customerTopRated"`
			ShortDescription string      `json:"shortDescription"`
		} `json:"products"`
	}
	if err := s.getJSON(ctx, s.bestBuyURL+"/v1/products?"+q.Encode(), nil, &body); err != nil {
		return nil, err
	}

	picked := body.Products[:0:0]
	for _, p := range body.Products {
		if p.TopRated {
			picked = append(picked, p)
		}
	}
	if len(picked) == 0 {
		picked = body.Products
	}
	if len(picked) > 5 {
		picked = picked[:5]
	}

	out := make([]ProductResult, 0, len(picked))
	for _, p := range picked {
		out = append(out, ProductResult{
			ID:          p.SKU.String(),
			Name:        p.Name,
			PriceCents:  int64(math.Round(p.RegularPrice * 100)),
			Rating:      p.ReviewAverage,
			Reviews:     p.ReviewCount,
			Source:      SourceBestBuy,
			Description: p.ShortDescription,
		})
	}
	return out, nil
}

func (s *ExternalSearcher) searchReddit(ctx context.Context, intent Intent) ([]ProductResult, error) {
	category := intent.Category
	if category == "" {
		category = "products"
	}
	budget := 1000
	if intent.Budget != nil && *intent.Budget > 0 {
		budget = *intent.Budget
	}

	q := url.Values{}
	q.Set("q", searchQuery(category, "review", string(intent.Priority)))
	q.Set("type", "link")
	q.Set("sort", "relevance")
	q.Set("limit", "5")

	var body struct {
		Data struct {
			Children []struct {
				Data struct {
					ID          string  `json:"id"`
					Title       string  `json:"title"`
					UpvoteRatio float64 `json:"upvote_ratio"`
					NumComments int     `json:"num_comments"`
					Selftext    string  `json:"selftext"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	headers := map[string]string{"User-Agent": redditUserAgent}
	if err := s.getJSON(ctx, s.redditURL+"/search.json?"+q.Encode(), headers, &body); err != nil {
		return nil, err
	}

	children := body.Data.Children
	if len(children) > 3 {
		children = children[:3]
	}
	out := make([]ProductResult, 0, len(children))
	for _, c := range children {
		rating := c.Data.UpvoteRatio * 5
		if rating == 0 {
			rating = 3
		}
		out = append(out, ProductResult{
			ID:          c.Data.ID,
			Name:        c.Data.Title,
			PriceCents:  int64(budget) * 100,
			Rating:      rating,
			Reviews:     c.Data.NumComments,
			Source:      SourceReddit,
			Description: truncateRunes(c.Data.Selftext, 200),
		})
	}
	return out, nil
}

func (s *ExternalSearcher) searchOpenLibrary(ctx context.Context, intent Intent) ([]ProductResult, error) {
	query := intent.Category
	if query == "" {
		query = "books"
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", "5")

	var body struct {
		Docs []struct {
			Key            string          `json:"key"`
			Title          string          `json:"title"`
			RatingsAverage float64         `json:"ratings_average"`
			RatingsCount   int             `json:"ratings_count"`
			FirstSentence  json.RawMessage `json:"first_sentence"`
		} `json:"docs"`
	}
	if err := s.getJSON(ctx, s.openLibraryURL+"/search.json?"+q.Encode(), nil, &body); err != nil {
		return nil, err
	}

	docs := body.Docs
	if len(docs) > 3 {
		docs = docs[:3]
	}
	out := make([]ProductResult, 0, len(docs))
	for _, d := range docs {
		desc := firstSentence(d.FirstSentence)
		if desc == "" {
			desc = "See Open Library for details"
		}
		out = append(out, ProductResult{
			ID:          d.Key,
			Name:        d.Title,
			Rating:      d.RatingsAverage,
			Reviews:     d.RatingsCount,
			Source:      SourceOpenLibrary,
			Description: desc,
		})
	}
	return out, nil
}

// firstSentence accepts both the list and the plain string form.
func firstSentence(raw json.RawMessage) string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return one
	}
	return ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
