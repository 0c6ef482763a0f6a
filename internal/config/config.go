package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port          string
	PostgresDSN   string
	MongoURI      string
	MongoDB       string
	RedisAddr     string
	RedisPassword string

	JWTSecret string

	OpenRouterKey string
	SiteURL       string
	SiteName      string

	EmailJSServiceID  string
	EmailJSTemplateID string
	EmailJSPublicKey  string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	FrontendURL        string
	CORSAllowedOrigins []string

	// Global per-IP request budget over a 24h window.
	IPRateLimit int
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getenv("PORT", "8080"),
		PostgresDSN:   getenv("POSTGRES_DSN", ""),
		MongoURI:      getenv("MONGO_URI", ""),
		MongoDB:       getenv("MONGO_DB", "promptforge"),
		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		JWTSecret: getenv("JWT_SECRET", ""),

		OpenRouterKey: getenv("OPENROUTER_KEY", ""),
		SiteURL:       getenv("SITE_URL", "https://promptforge.dev"),
		SiteName:      getenv("SITE_NAME", "PromptForge AI Assistant"),

		EmailJSServiceID:  getenv("EMAILJS_SERVICE_ID", ""),
		EmailJSTemplateID: getenv("EMAILJS_TEMPLATE_ID", ""),
		EmailJSPublicKey:  getenv("EMAILJS_PUBLIC_KEY", ""),

		GitHubClientID:     getenv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getenv("GITHUB_CLIENT_SECRET", ""),
		GitHubCallbackURL:  getenv("GITHUB_CALLBACK_URL", "http://localhost:8080/api/auth/github/callback"),

		FrontendURL: getenv("FRONTEND_URL", "http://localhost:3000"),

		IPRateLimit: getenvInt("IP_RATE_LIMIT", 1000),
	}

	for _, o := range strings.Split(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
