package config

import (
	"os"
	"strings"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	DB         PostgresConfig
	Auth       AuthConfig
	OpenRouter OpenRouterConfig
	Billing    BillingConfig
	AppURL     string
}

type PostgresConfig struct {
	Username string
	Password string
	URL      string
	Port     string
	Database string
}

type AuthConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
}

type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Models  []string
}

type BillingConfig struct {
	APIKey           string
	BaseURL          string
	StoreID          string
	WebhookSecret    string
	StarterVariantID string
	ProVariantID     string
}

// defaultModels is the ordered fallback list used when OPENROUTER_MODELS is
// not set. The first entry is tried first.
var defaultModels = []string{
	"google/gemini-2.0-flash-exp:free",
	"deepseek/deepseek-r1:free",
	"meta-llama/llama-3.3-70b-instruct:free",
}

func LoadConfig() (*Config, error) {
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:3000"
	}

	baseURL := os.Getenv("OPENROUTER_BASE_URL")
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}

	billingURL := os.Getenv("LEMONSQUEEZY_API_URL")
	if billingURL == "" {
		billingURL = "https://api.lemonsqueezy.com/v1"
	}

	models := defaultModels
	if raw := os.Getenv("OPENROUTER_MODELS"); raw != "" {
		models = nil
		for _, m := range strings.Split(raw, ",") {
			if m = strings.TrimSpace(m); m != "" {
				models = append(models, m)
			}
		}
	}

	cfg := &Config{
		AppURL: strings.TrimRight(appURL, "/"),
		DB: PostgresConfig{
			Username: os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PWD"),
			URL:      os.Getenv("POSTGRES_URL"),
			Port:     os.Getenv("POSTGRES_PORT"),
			Database: os.Getenv("POSTGRES_DB"),
		},
		Auth: AuthConfig{
			Issuer:   os.Getenv("AUTH_ISSUER"),
			Audience: os.Getenv("AUTH_AUDIENCE"),
			JWKSURL:  os.Getenv("AUTH_JWKS_URL"),
		},
		OpenRouter: OpenRouterConfig{
			APIKey:  os.Getenv("OPENROUTER_API_KEY"),
			BaseURL: strings.TrimRight(baseURL, "/"),
			Models:  models,
		},
		Billing: BillingConfig{
			APIKey:           os.Getenv("LEMONSQUEEZY_API_KEY"),
			BaseURL:          strings.TrimRight(billingURL, "/"),
			StoreID:          os.Getenv("LEMONSQUEEZY_STORE_ID"),
			WebhookSecret:    os.Getenv("LEMONSQUEEZY_WEBHOOK_SECRET"),
			StarterVariantID: os.Getenv("LEMONSQUEEZY_STARTER_VARIANT_ID"),
			ProVariantID:     os.Getenv("LEMONSQUEEZY_PRO_VARIANT_ID"),
		},
	}

	return cfg, nil
}
