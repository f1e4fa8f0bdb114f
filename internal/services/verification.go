package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/princeprakhar/review-catalog-backend/internal/models"
	"github.com/princeprakhar/review-catalog-backend/internal/utils"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

const (
	neutralScore       = 50
	unavailableReason  = "Verification service temporarily unavailable"
	inconclusiveReason = "AI verification inconclusive"
)

type VerificationResult struct {
	Status models.VerificationStatus `json:"status"`
	Score  int                       `json:"score"`
	Reason string                    `json:"reason"`
}

// Rejected reports whether a product with this result must not be created.
func (r VerificationResult) Rejected() bool {
	return r.Status == models.VerificationFlagged || r.Score < 30
}

const verifySystemPrompt = `You are a product catalog moderator. Analyze products to determine if they are likely real, legitimate products or potentially spam/fake.

Respond ONLY with valid JSON (no markdown, no extra text) in this exact format:
{"status": "verified" | "unverified" | "flagged", "score": 0-100, "reason": "short explanation"}

Rules:
- status "verified": Product is clearly real, established brand or product
- status "unverified": Product might be real but needs more information
- status "flagged": Product is likely fake, spam, or nonsense
- score: 0-100 where higher = more likely real
- Use "flagged" and low scores for: obviously fake names, impossible products, gibberish, suspicious descriptions`

// Verifier classifies product submissions and generates catalog images.
type Verifier struct {
	chat       ChatCompleter
	images     ImageGenerator
	store      ImageStore // nil keeps the provider URL
	model      string
	imageModel string
	log        *logrus.Entry
}

func NewVerifier(chat ChatCompleter, images ImageGenerator, store ImageStore, model, imageModel string) *Verifier {
	if model == "" {
		model = "gpt-4-turbo"
	}
	if imageModel == "" {
		imageModel = "dall-e-3"
	}
	return &Verifier{
		chat:       chat,
		images:     images,
		store:      store,
		model:      model,
		imageModel: imageModel,
		log:        logger.Component("verifier"),
	}
}

// VerifyProduct never fails; any provider error degrades to unverified/50.
func (v *Verifier) VerifyProduct(ctx context.Context, title, brand, category, description string) VerificationResult {
	if brand == "" {
		brand = "Unknown/No Brand"
	}
	if description == "" {
		description = "None provided"
	}
	userPrompt := fmt.Sprintf("Evaluate this product:\n- Name: %s\n- Brand: %s\n- Category: %s\n- Description: %s\n\nReturn JSON only.",
		title, brand, category, description)

	content, err := v.chat.Complete(ctx, ChatRequest{
		Model: v.model,
		Messages: []ChatMessage{
			{Role: "system", Content: verifySystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0,
		MaxTokens:   200,
	})
	if err != nil {
		v.log.WithError(err).WithField("title", title).Warn("product verification failed")
		return VerificationResult{Status: models.VerificationUnverified, Score: neutralScore, Reason: unavailableReason}
	}
	return parseVerification(content)
}

func parseVerification(content string) VerificationResult {
	content = utils.StripCodeFences(content)
	if content == "" {
		return VerificationResult{Status: models.VerificationUnverified, Score: neutralScore, Reason: inconclusiveReason}
	}

	var parsed struct {
		Status string   `json:"status"`
		Score  *float64 `json:"score"`
		Reason string   `json:"reason"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return VerificationResult{Status: models.VerificationUnverified, Score: neutralScore, Reason: unavailableReason}
	}

	res := VerificationResult{Status: models.VerificationUnverified, Score: neutralScore, Reason: "Verification complete"}
	switch models.VerificationStatus(strings.ToLower(parsed.Status)) {
	case models.VerificationVerified:
		res.Status = models.VerificationVerified
	case models.VerificationFlagged:
		res.Status = models.VerificationFlagged
	}
	if parsed.Score != nil {
		res.Score = int(math.Round(math.Max(0, math.Min(100, *parsed.Score))))
	}
	if parsed.Reason != "" {
		res.Reason = parsed.Reason
	}
	return res
}

var categoryImagePrompts = map[string]string{
	"Phones":            "modern smartphone, front facing display visible, on clean white background, centered, soft studio lighting, product-focused, no people, no text, no logos",
	"Smartphones":       "modern smartphone with visible screen, on white background, 3/4 front view, professional studio lighting, no people, no text, no logos",
	"Laptops":           "open laptop at slight angle, keyboard and screen visible, on neutral white/gray background, soft lighting, no people, no text, no logos",
	"Desktop Computers": "computer tower with monitor, on desk, white background, clean and professional, no people, no text, no logos",
	"Audio":             "over-ear headphones, floating on white background, clear view of both earpieces, soft studio lighting, no people, no text, no logos",
	"Headphones":        "professional audio headphones, close-up floating product shot, white background, detailed craftsmanship visible, no people, no text",
	"Gaming Consoles":   "gaming console with one controller, front 3/4 view on neutral gray/white background, modern lighting, no people, no text, no logos",
	"Gaming":            "gaming device, modern design, on neutral background, professional studio lighting, no people, no text, no logos",
	"Tablets":           "tablet with screen visible/active, on white background, slightly tilted to show device, soft studio lighting, no people, no text, no logos",
	"Monitors":          "computer monitor displaying a clean blue/gray screen, on desk or stand, white background, side angle view to show screen, no people, no text",
	"Drones":            "camera drone, folded or in flight-ready position, on white background or in-air, professional lighting, clear detail of rotors and camera, no people, no text",
	"TVs":               "flat-screen television showing a neutral test pattern, on white/gray background, front facing, modern bezel visible, no people, no text, no logos",
}

const defaultImagePrompt = "electronic device, studio product photography, white background, centered, professional lighting, no people, no text, no logos, high detail"

// BuildImagePrompt returns the category-specific generation prompt.
func BuildImagePrompt(title, brand, category string) string {
	name := strings.TrimSpace(brand + " " + title)
	style, ok := categoryImagePrompts[category]
	if !ok {
		style = defaultImagePrompt
	}
	return fmt.Sprintf("ultra-realistic studio product photograph of %s, %s", name, style)
}

// GenerateImage returns the URL of a freshly generated product image. Any
// failure yields ok=false and the product stays imageless.
func (v *Verifier) GenerateImage(ctx context.Context, title, brand, category string) (string, bool) {
	log := v.log.WithFields(logrus.Fields{"title": title, "category": category})

	providerURL, err := v.images.GenerateImage(ctx, v.imageModel, BuildImagePrompt(title, brand, category))
	if err != nil {
		log.WithError(err).Warn("image generation failed")
		return "", false
	}
	if v.store == nil {
		return providerURL, true
	}

	data, err := v.images.Fetch(ctx, providerURL)
	if err != nil {
		log.WithError(err).Warn("generated image download failed")
		return "", false
	}
	res, err := v.store.Put(ctx, data)
	if err != nil {
		log.WithError(err).Warn("generated image upload failed")
		return "", false
	}
	log.WithField("key", res.Key).Info("generated image stored")
	return res.URL, true
}

// DiscardImage best-effort removes a stored image that is no longer referenced.
func (v *Verifier) DiscardImage(url string) {
	if v.store == nil || url == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := v.store.Delete(ctx, url); err != nil {
			v.log.WithError(err).WithField("url", url).Warn("failed to delete replaced image")
		}
	}()
}
