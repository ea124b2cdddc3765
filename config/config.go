// Package config loads service configuration from the environment once at
// startup. Everything downstream receives the values by reference; nothing
// reads the environment lazily.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

const (
	defaultVendorBaseURL = "https://negbot-backend-ajdxh9axb0ddb0e9.westeurope-01.azurewebsites.net/api"
	defaultVendorTeamID  = 444784
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultGeminiModel   = "gemini-2.0-flash"
)

// Config is the full runtime configuration of the service.
type Config struct {
	Environment string
	HTTPAddr    string

	VendorBaseURL string
	VendorTeamID  int
	VendorTimeout time.Duration

	LLMProvider   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiModel   string
	LLMTimeout    time.Duration

	MaxParallelVendors int
	SecondRoundLimit   int
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:        getenv("ENVIRONMENT", "development"),
		HTTPAddr:           getenv("HTTP_ADDR", ":8080"),
		VendorBaseURL:      getenv("VENDOR_API_BASE_URL", defaultVendorBaseURL),
		VendorTeamID:       getenvInt("VENDOR_API_TEAM_ID", defaultVendorTeamID),
		VendorTimeout:      getenvSeconds("VENDOR_TIMEOUT_SECONDS", 30),
		LLMProvider:        getenv("LLM_PROVIDER", ProviderOpenAI),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        getenv("OPENAI_MODEL", defaultOpenAIModel),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getenv("GEMINI_MODEL", defaultGeminiModel),
		LLMTimeout:         getenvSeconds("LLM_TIMEOUT_SECONDS", 30),
		MaxParallelVendors: getenvInt("MAX_PARALLEL_VENDORS", 8),
		SecondRoundLimit:   getenvInt("SECOND_ROUND_LIMIT", 5),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.MaxParallelVendors < 1 {
		return errors.New("MAX_PARALLEL_VENDORS must be at least 1")
	}
	if c.SecondRoundLimit < 1 {
		return errors.New("SECOND_ROUND_LIMIT must be at least 1")
	}
	return nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvSeconds(key string, fallback float64) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return time.Duration(fallback * float64(time.Second))
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return time.Duration(fallback * float64(time.Second))
	}
	return time.Duration(parsed * float64(time.Second))
}
