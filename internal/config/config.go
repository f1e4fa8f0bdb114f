package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Environment string
	Port        string

	// Storage
	DatabaseURL         string // empty means JSON-file-only mode
	DataDir             string
	PrimaryStoreTimeout time.Duration
	RedisURL            string
	CacheTTL            time.Duration

	// Identity
	JWTSecret       string
	AdminAPIKeyHash string // bcrypt hash of the admin key

	// AI providers
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	OpenAIImageModel string
	OllamaBaseURL    string
	OllamaModel      string

	// External product search
	BestBuyAPIKey  string
	BestBuyBaseURL string
	RedditBaseURL  string
	OpenLibraryURL string

	// S3 storage for generated images
	S3Region     string
	S3BucketName string
	S3AccessKey  string
	S3SecretKey  string

	// SMTP for admin reports
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	AdminEmail   string

	RateLimitRPS   int
	RateLimitBurst int
	AllowedOrigins []string

	// Duplicate detection weights
	DuplicateThreshold     float64
	DuplicateExactMatch    float64
	DuplicateBrandBoost    float64
	DuplicateCategoryBoost float64
	DuplicateNumberPenalty float64

	BackfillDelay time.Duration
}

func Load() *Config {
	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	rateLimitRPS, _ := strconv.Atoi(getEnv("RATE_LIMIT_RPS", "100"))
	rateLimitBurst, _ := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "200"))

	return &Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		DataDir:             getEnv("DATA_DIR", "./data"),
		PrimaryStoreTimeout: getDuration("PRIMARY_STORE_TIMEOUT", 3*time.Second),
		RedisURL:            getEnv("REDIS_URL", ""),
		CacheTTL:            getDuration("CACHE_TTL", 5*time.Minute),

		JWTSecret:       getEnv("JWT_SECRET", "your-super-secret-jwt-key"),
		AdminAPIKeyHash: getEnv("ADMIN_API_KEY_HASH", ""),

		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4-turbo"),
		OpenAIImageModel: getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),
		OllamaBaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:      getEnv("OLLAMA_MODEL", "llama3.2"),

		BestBuyAPIKey:  getEnv("BESTBUY_API_KEY", ""),
		BestBuyBaseURL: getEnv("BESTBUY_BASE_URL", "https://api.bestbuy.com"),
		RedditBaseURL:  getEnv("REDDIT_BASE_URL", "https://www.reddit.com"),
		OpenLibraryURL: getEnv("OPEN_LIBRARY_URL", "https://openlibrary.org"),

		S3Region:     getEnv("S3_REGION", "us-east-1"),
		S3BucketName: getEnv("S3_BUCKET_NAME", ""),
		S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:  getEnv("S3_SECRET_KEY", ""),

		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     smtpPort,
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@yourapp.com"),
		AdminEmail:   getEnv("ADMIN_EMAIL", ""),

		RateLimitRPS:   rateLimitRPS,
		RateLimitBurst: rateLimitBurst,
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		DuplicateThreshold:     getFloat("DUPLICATE_THRESHOLD", 0.9),
		DuplicateExactMatch:    getFloat("DUPLICATE_EXACT_MATCH", 0.98),
		DuplicateBrandBoost:    getFloat("DUPLICATE_BRAND_BOOST", 0.03),
		DuplicateCategoryBoost: getFloat("DUPLICATE_CATEGORY_BOOST", 0.02),
		DuplicateNumberPenalty: getFloat("DUPLICATE_NUMBER_PENALTY", 0.25),

		BackfillDelay: getDuration("BACKFILL_DELAY", time.Second),
	}
}

// S3Enabled reports whether generated images should be persisted to S3.
func (c *Config) S3Enabled() bool {
	return c.S3BucketName != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPUsername != "" && c.AdminEmail != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
