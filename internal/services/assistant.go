package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

var ErrEmptyMessage = errors.New("missing userMessage")

const (
	maxAssistantProducts = 10
	noBudgetCeiling      = 10000
)

// CatalogReader exposes the catalog with review aggregates.
type CatalogReader interface {
	ProductsWithStats(ctx context.Context) ([]models.ProductWithStats, error)
}

// ProductSearcher looks for products outside the local catalog.
type ProductSearcher interface {
	Search(ctx context.Context, intent Intent) []ProductResult
}

type ChatTurn struct {
	Intent *Intent `json:"intent"`
}

type AssistantRequest struct {
	UserMessage         string     `json:"userMessage"`
	Categories          []string   `json:"categories"`
	ConversationHistory []ChatTurn `json:"conversationHistory"`
}

type AssistantReply struct {
	Message  string          `json:"message"`
	Products []ProductResult `json:"products"`
	Intent   *Intent         `json:"intent"`
}

var (
	greetingPattern       = regexp.MustCompile(`(?i)^(hi|hey|hello|sup|yo|what'?s up|hiya|greetings|good morning|good afternoon|good evening)[\s\W]*$`)
	productKeywordPattern = regexp.MustCompile(`(?i)\$|\d+|phone|laptop|tablet|accessory|battery|performance|camera|gaming|game|product|buy|find|show|recommend|suggest|look for|search|want|need|like|best|good|cheap|expensive`)
	noBudgetPattern       = regexp.MustCompile(`(?i)no budget|don't have budget|don't have a budget|no price limit|expensive|any price`)
	budgetFocusPattern    = regexp.MustCompile(`(?i)cheap|budget|value|affordable|inexpensive|low cost|under.*\$|for only`)
)

const welcomeMessage = "Hey there! I'm your shopping assistant, powered by real user reviews. I'm here to help you find the perfect product!\n\n" +
	"Tell me what you're looking for:\n" +
	"• What type of product? (phone, laptop, tablet, accessories, etc.)\n" +
	"• What's your budget?\n" +
	"• What matters most? (battery life, performance, camera, value, etc.)\n\n" +
	"Just ask naturally, like \"Show me a phone under $500 with good battery\""

// AssistantService answers shopping questions from the local catalog first
// and external sources second.
type AssistantService struct {
	catalog  CatalogReader
	external ProductSearcher
	log      *logrus.Entry
}

// NewAssistantService accepts a nil external searcher to stay local-only.
func NewAssistantService(catalog CatalogReader, external ProductSearcher) *AssistantService {
	return &AssistantService{catalog: catalog, external: external, log: logger.Component("assistant")}
}

func (s *AssistantService) Chat(ctx context.Context, req AssistantRequest) (*AssistantReply, error) {
	message := strings.TrimSpace(req.UserMessage)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	if isPureGreeting(message, len(req.ConversationHistory)) {
		return &AssistantReply{Message: welcomeMessage, Products: []ProductResult{}, Intent: &Intent{}}, nil
	}

	previous := lastIntent(req.ConversationHistory)
	intent := ParseIntent(message, req.Categories, previous)
	s.log.WithFields(logrus.Fields{
		"category": intent.Category,
		"priority": intent.Priority,
		"sources":  intent.Sources,
	}).Debug("parsed intent")

	if reply := clarify(message, intent, previous); reply != "" {
		return &AssistantReply{Message: reply, Products: []ProductResult{}, Intent: &intent}, nil
	}

	products, err := s.findProducts(ctx, intent)
	if err != nil {
		return nil, err
	}
	text, err := s.respond(ctx, message, products, intent)
	if err != nil {
		return nil, err
	}
	if len(products) > maxAssistantProducts {
		products = products[:maxAssistantProducts]
	}
	if products == nil {
		products = []ProductResult{}
	}
	return &AssistantReply{Message: text, Products: products, Intent: &intent}, nil
}

func isPureGreeting(message string, historyLen int) bool {
	lower := strings.ToLower(message)
	if greetingPattern.MatchString(lower) {
		return true
	}
	return len(lower) < 15 &&
		!productKeywordPattern.MatchString(message) &&
		!strings.HasSuffix(message, "?") &&
		historyLen == 0
}

func lastIntent(history []ChatTurn) *Intent {
	if len(history) == 0 {
		return nil
	}
	return history[len(history)-1].Intent
}

// clarify returns a follow-up question when the intent is too thin to search.
func clarify(message string, intent Intent, previous *Intent) string {
	lower := strings.ToLower(message)

	if intent.HasCategory() && intent.Budget == nil &&
		!noBudgetPattern.MatchString(lower) && !budgetFocusPattern.MatchString(lower) {
		return fmt.Sprintf("Great! A %s. To find the best options for you, I need to know:\n\n"+
			"• What's your budget? (e.g., \"$200\", \"$500\", etc.)\n"+
			"• What matters most to you? (battery life, performance, camera, value, build quality)\n\n"+
			"Just tell me naturally!", strings.ToLower(intent.Category))
	}

	if intent.Budget != nil && intent.Sources.Priority == SlotDefault && !intent.HasCategory() && previous == nil {
		return fmt.Sprintf("Got it, budget of $%d! Now I need to know a bit more:\n\n"+
			"• What type of product are you looking for? (phone, laptop, tablet, etc.)\n"+
			"• What's most important to you? (battery life, performance, camera, value, build quality)\n\n"+
			"This will help me find the perfect match!", *intent.Budget)
	}
	return ""
}

func (s *AssistantService) findProducts(ctx context.Context, intent Intent) ([]ProductResult, error) {
	local, err := s.searchLocal(ctx, intent)
	if err != nil {
		return nil, err
	}
	if len(local) > 0 {
		s.log.WithField("count", len(local)).Info("assistant answered from local catalog")
		return local, nil
	}
	if s.external == nil {
		return nil, nil
	}
	return s.external.Search(ctx, intent), nil
}

func (s *AssistantService) searchLocal(ctx context.Context, intent Intent) ([]ProductResult, error) {
	catalog, err := s.catalog.ProductsWithStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	budget := noBudgetCeiling
	if intent.Budget != nil {
		budget = *intent.Budget
	}

	var results []ProductResult
	for _, p := range catalog {
		if !p.MatchesCategory(intent.Category) {
			continue
		}
		if p.PriceMinCents != nil && float64(*p.PriceMinCents)/100 > float64(budget) {
			continue
		}
		if p.PriceMinCents == nil && intent.Budget != nil {
			continue
		}
		results = append(results, localResult(p, intent.Priority))
	}

	if intent.ProductBrand != "" {
		brand := strings.ToLower(intent.ProductBrand)
		var branded []ProductResult
		for _, r := range results {
			if strings.Contains(strings.ToLower(r.Name), brand) {
				branded = append(branded, r)
			}
		}
		if len(branded) > 0 {
			results = branded
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.PriorityScore != b.PriorityScore {
			return a.PriorityScore > b.PriorityScore
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.Reviews > b.Reviews
	})
	return results, nil
}

// priorityAttribute maps a priority to the review attribute it ranks by.
// Overall ranks by the average overall rating.
var priorityAttribute = map[Priority]string{
	PriorityPerformance: "performance",
	PriorityBattery:     "battery",
	PriorityCamera:      "camera",
	PriorityValue:       "value",
	PriorityBuild:       "durability",
}

func localResult(p models.ProductWithStats, priority Priority) ProductResult {
	r := ProductResult{
		ID:          p.ID,
		Name:        p.Title,
		Rating:      p.Stats.AvgRating,
		Reviews:     p.Stats.ReviewCount,
		Source:      SourceLocal,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Attributes:  p.Stats.AttributeAverages,
	}
	if p.PriceMinCents != nil {
		r.PriceCents = *p.PriceMinCents
	}
	r.PriorityScore = r.Rating
	if attr, ok := priorityAttribute[priority]; ok {
		r.PriorityScore = r.Attributes[attr]
	}
	return r
}

func (r ProductResult) attr(name string) float64 {
	return r.Attributes[name]
}

func formatScore(v float64) string {
	if v == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", v)
}

func formatPrice(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

func isComparisonQuestion(lower string) bool {
	return containsAny(lower, []string{"out of", "which one", "which is", "compare", "best"})
}

func isGamingFocus(lower string) bool {
	return containsAny(lower, []string{"gaming", "game", "fps"})
}

func (s *AssistantService) respond(ctx context.Context, message string, products []ProductResult, intent Intent) (string, error) {
	lower := strings.ToLower(message)
	comparison := isComparisonQuestion(lower)

	// Follow-up comparisons run against the whole category.
	if comparison && len(products) == 0 {
		fallback, err := s.searchLocal(ctx, Intent{Category: intent.Category, Priority: PriorityOverall})
		if err != nil {
			return "", err
		}
		if len(fallback) > 0 {
			return comparisonResponse(lower, fallback), nil
		}
	}

	categoryDisplay := "products"
	if intent.HasCategory() {
		categoryDisplay = strings.ToLower(intent.Category)
	}
	if len(products) == 0 {
		return fmt.Sprintf("I searched for %s matching your criteria, but I didn't find any available right now. "+
			"Try adjusting your budget or let me know if you'd like to explore a different category.", categoryDisplay), nil
	}

	inBudget := products
	if intent.Budget != nil {
		inBudget = inBudget[:0:0]
		for _, p := range products {
			if float64(p.PriceCents)/100 <= float64(*intent.Budget) {
				inBudget = append(inBudget, p)
			}
		}
	}

	if comparison && len(inBudget) > 1 {
		return comparisonResponse(lower, inBudget), nil
	}
	gaming := isGamingFocus(lower)

	if intent.Budget == nil && intent.Priority == PriorityPerformance {
		return topPerformersResponse(categoryDisplay, inBudget), nil
	}

	var b strings.Builder
	switch {
	case intent.Budget != nil && intent.Priority != PriorityOverall:
		fmt.Fprintf(&b, "Great! I found %d excellent %s under $%d optimized for %s. Here's what I recommend:\n\n",
			len(inBudget), categoryDisplay, *intent.Budget, strings.ToLower(string(intent.Priority)))
	case intent.Budget != nil:
		fmt.Fprintf(&b, "Awesome! I found %d excellent %s under $%d. Here's what I found:\n\n",
			len(inBudget), categoryDisplay, *intent.Budget)
	default:
		fmt.Fprintf(&b, "Perfect! Here are some excellent %s based on user reviews:\n\n", categoryDisplay)
	}

	b.WriteString(explainTopPick(inBudget, intent, gaming))

	if containsAny(lower, []string{"coding", "programming", "developer", "development"}) && len(inBudget) > 0 {
		top := inBudget[0]
		b.WriteString("\n\n**Why these are great for coding:**\n")
		if top.attr("performance") > 0 {
			b.WriteString("• The top pick has solid performance for running IDEs and multiple applications\n")
		}
		if strings.Contains(strings.ToLower(intent.Category), "laptop") {
			b.WriteString("• Perfect screen real estate for code editing and debugging\n")
			b.WriteString("• Sufficient processing power for compiling and running projects\n")
		}
		if len(inBudget) > 1 {
			fmt.Fprintf(&b, "\n**My recommendation:** The **%s** is your best choice, balancing the performance and reliability developers need.\n", top.Name)
		}
	}

	if len(inBudget) > 2 {
		b.WriteString("\n💡 **Pro tip:** Ask me \"compare [product 1] vs [product 2]\" or \"out of these which is best\" and I'll give you a detailed breakdown!")
	}
	return b.String(), nil
}

func explainTopPick(products []ProductResult, intent Intent, gaming bool) string {
	if len(products) == 0 {
		return ""
	}
	top := products[0]

	switch intent.Priority {
	case PriorityBattery:
		return fmt.Sprintf("The %s offers exceptional battery life (%s⭐). You'll get all-day usage and more, perfect for long work sessions or travel.",
			top.Name, scoreOr(top.attr("battery"), "excellent"))
	case PriorityPerformance:
		if gaming {
			return fmt.Sprintf("The %s has excellent performance (%s⭐ performance rating) that makes it ideal for gaming. Users praise its smooth, lag-free gameplay.",
				top.Name, scoreOr(top.attr("performance"), "excellent"))
		}
		return fmt.Sprintf("The %s delivers powerful performance (%s⭐) and handles multitasking and demanding apps with ease.",
			top.Name, scoreOr(top.attr("performance"), "excellent"))
	case PriorityCamera:
		return fmt.Sprintf("The %s has the best camera quality according to user reviews. Sharp photos and great low-light results make it a favourite with photography enthusiasts.", top.Name)
	case PriorityValue:
		if len(products) < 3 {
			return ""
		}
		pick := products[2]
		return fmt.Sprintf("The %s at just %s offers incredible value. You save money without compromising on quality.", pick.Name, formatPrice(pick.PriceCents))
	case PriorityBuild:
		return fmt.Sprintf("The %s is renowned for premium build quality and durability. Solid construction and quality materials ensure it will last for years.", top.Name)
	}

	if gaming && intent.Category == "Laptops" {
		return fmt.Sprintf("The %s is the top-rated laptop (%s⭐) and excels for gaming thanks to its strong performance.", top.Name, scoreOr(top.Rating, "4.2"))
	}
	return fmt.Sprintf("The %s is the top-rated overall (%s⭐) with consistently excellent user reviews.", top.Name, scoreOr(top.Rating, "4.2"))
}

func scoreOr(v float64, fallback string) string {
	if v == 0 {
		return fallback
	}
	return fmt.Sprintf("%.1f", v)
}

func topPerformersResponse(categoryDisplay string, products []ProductResult) string {
	sorted := append([]ProductResult(nil), products...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].attr("performance") > sorted[j].attr("performance") })
	if len(sorted) > 3 {
		sorted = sorted[:3]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Perfect! Here are the top %d best %s for gaming, ranked by performance:\n\n", len(sorted), categoryDisplay)
	for i, p := range sorted {
		fmt.Fprintf(&b, "%d. **%s** - %s\n", i+1, p.Name, formatPrice(p.PriceCents))
		fmt.Fprintf(&b, "   Performance: %s⭐ | Overall Rating: %s⭐\n", formatScore(p.attr("performance")), formatScore(p.Rating))
		fmt.Fprintf(&b, "   %d user reviews\n\n", p.Reviews)
	}
	fmt.Fprintf(&b, "These are the top performers for gaming. The **%s** is our #1 pick with the best gaming performance.\n\n", sorted[0].Name)
	b.WriteString("Ask me \"out of these what's best for gaming?\" to compare them directly!")
	return b.String()
}

// comparisonResponse ranks by performance for gaming questions and by
// overall rating otherwise.
func comparisonResponse(lower string, products []ProductResult) string {
	gaming := isGamingFocus(lower)
	score := func(p ProductResult) float64 { return p.Rating }
	if gaming {
		score = func(p ProductResult) float64 { return p.attr("performance") }
	}

	sorted := append([]ProductResult(nil), products...)
	sort.SliceStable(sorted, func(i, j int) bool { return score(sorted[i]) > score(sorted[j]) })
	best := sorted[0]

	var b strings.Builder
	b.WriteString("Top Recommendation\n")
	fmt.Fprintf(&b, "🏆 %s\n\n", best.Name)
	if gaming {
		fmt.Fprintf(&b, "The %s ranks highest for performance among the available options, with a %s/5 performance rating and an overall rating of %s/5.\n\n",
			best.Name, formatScore(best.attr("performance")), formatScore(best.Rating))
	} else {
		fmt.Fprintf(&b, "The %s ranks highest overall among the available options, with the strongest user satisfaction rating of %s/5.\n\n",
			best.Name, formatScore(best.Rating))
	}
	fmt.Fprintf(&b, "Price: %s\n\n", formatPrice(best.PriceCents))

	if gaming {
		b.WriteString("Why it ranks #1:\n")
		fmt.Fprintf(&b, "• Highest gaming performance (%s⭐)\n", formatScore(best.attr("performance")))
		b.WriteString("• Excellent for demanding games at high settings\n\n")
		b.WriteString("Performance Comparison:\n")
	} else {
		b.WriteString("Why it's the best choice:\n")
		fmt.Fprintf(&b, "• Highest overall rating (%s⭐)\n", formatScore(best.Rating))
		b.WriteString("• Consistently excellent reviews\n\n")
		b.WriteString("Overall Rankings:\n")
	}
	for i, p := range sorted {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "%d. %s - %s⭐", i+1, p.Name, formatScore(score(p)))
		if i == 0 {
			b.WriteString(" BEST")
		}
		b.WriteString("\n")
	}
	return b.String()
}
