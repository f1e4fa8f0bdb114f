package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/princeprakhar/review-catalog-backend/internal/models"
)

type Priority string

const (
	PriorityPerformance Priority = "Performance"
	PriorityBattery     Priority = "Battery"
	PriorityCamera      Priority = "Camera"
	PriorityValue       Priority = "Value"
	PriorityBuild       Priority = "Build"
	PriorityOverall     Priority = "Overall"
)

// SlotSource records where a slot value came from in the latest turn.
type SlotSource string

const (
	SlotExplicit SlotSource = "explicit" // mentioned in this message
	SlotCarried  SlotSource = "carried"  // kept from the previous turn
	SlotDefault  SlotSource = "default"  // filled by a heuristic
	SlotEmpty    SlotSource = ""
)

type IntentSources struct {
	Budget   SlotSource `json:"budget,omitempty"`
	Category SlotSource `json:"category,omitempty"`
	Priority SlotSource `json:"priority,omitempty"`
}

// Intent is the slot state of a shopping conversation.
type Intent struct {
	Budget       *int          `json:"budget,omitempty"` // whole dollars
	Category     string        `json:"category,omitempty"`
	Priority     Priority      `json:"priority,omitempty"`
	ProductBrand string        `json:"product_brand,omitempty"`
	Sources      IntentSources `json:"sources"`
}

const (
	cheapDefaultBudget     = 300
	expensiveDefaultBudget = 2000
)

var (
	budgetPattern    = regexp.MustCompile(`(?i)\$?(\d+)(k?)|\bbudget[:\s]+\$?(\d+)`)
	cheapPattern     = regexp.MustCompile(`cheap|budget|value|affordable|inexpensive|low cost`)
	expensivePattern = regexp.MustCompile(`expensive|premium|high-end|high end|flagship|luxury`)
)

type keywordRule[T any] struct {
	keywords []string
	value    T
}

var priorityRules = []keywordRule[Priority]{
	{[]string{"gaming", "game", "fps", "performance"}, PriorityPerformance},
	{[]string{"battery", "all day"}, PriorityBattery},
	{[]string{"camera", "photo", "picture"}, PriorityCamera},
	{[]string{"cheap", "budget", "value", "affordable"}, PriorityValue},
	{[]string{"build", "quality", "durable", "material"}, PriorityBuild},
}

var categoryRules = []keywordRule[string]{
	{[]string{"phone", "smartphone", "mobile", "cell"}, "Smartphones"},
	{[]string{"laptop", "notebook", "computer", "pc"}, "Laptops"},
	{[]string{"tablet", "ipad"}, "Tablets"},
	{[]string{"accessory", "accessories", "airpods", "cable", "charger"}, "Mobile Accessories"},
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func firstRule[T any](s string, rules []keywordRule[T]) (T, bool) {
	for _, r := range rules {
		if containsAny(s, r.keywords) {
			return r.value, true
		}
	}
	var zero T
	return zero, false
}

// ParseIntent fills the budget, priority and category slots from text. Each
// slot resolves as: explicit mention in text, else the previous turn's value,
// else a heuristic default.
func ParseIntent(text string, categories []string, previous *Intent) Intent {
	lower := strings.ToLower(text)
	var intent Intent

	if previous != nil {
		if previous.Budget != nil {
			b := *previous.Budget
			intent.Budget = &b
			intent.Sources.Budget = SlotCarried
		}
		if previous.Category != "" {
			intent.Category = previous.Category
			intent.ProductBrand = previous.ProductBrand
			intent.Sources.Category = SlotCarried
		}
		if previous.Priority != "" {
			intent.Priority = previous.Priority
			intent.Sources.Priority = SlotCarried
		}
	}

	if amount, ok := parseBudget(text); ok {
		intent.Budget = &amount
		intent.Sources.Budget = SlotExplicit
	} else if intent.Budget == nil && previous == nil {
		switch {
		case cheapPattern.MatchString(lower):
			b := cheapDefaultBudget
			intent.Budget = &b
			intent.Sources.Budget = SlotDefault
		case expensivePattern.MatchString(lower):
			b := expensiveDefaultBudget
			intent.Budget = &b
			intent.Sources.Budget = SlotDefault
		}
	}

	if p, ok := firstRule(lower, priorityRules); ok {
		intent.Priority = p
		intent.Sources.Priority = SlotExplicit
	} else if intent.Priority == "" {
		intent.Priority = PriorityOverall
		intent.Sources.Priority = SlotDefault
	}

	if cat, brand, ok := matchCategory(lower, categories); ok {
		intent.Category = cat
		intent.ProductBrand = brand
		intent.Sources.Category = SlotExplicit
	} else if intent.Category == "" {
		intent.Category = models.AllCategories
		intent.Sources.Category = SlotDefault
	}

	return intent
}

func parseBudget(text string) (int, bool) {
	m := budgetPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	if m[1] != "" {
		amount, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		if m[2] != "" {
			amount *= 1000
		}
		return amount, true
	}
	amount, err := strconv.Atoi(m[3])
	if err != nil {
		return 0, false
	}
	return amount, true
}

func matchCategory(lower string, categories []string) (string, string, bool) {
	if strings.Contains(lower, "macbook") || (strings.Contains(lower, "apple") && strings.Contains(lower, "laptop")) {
		return "Laptops", "MacBook", true
	}
	if cat, ok := firstRule(lower, categoryRules); ok {
		return cat, "", true
	}
	for _, cat := range categories {
		if cat == models.AllCategories || cat == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(cat)) {
			return cat, "", true
		}
	}
	return "", "", false
}

// HasCategory reports whether a concrete category is selected.
func (i Intent) HasCategory() bool {
	return i.Category != "" && i.Category != models.AllCategories
}
