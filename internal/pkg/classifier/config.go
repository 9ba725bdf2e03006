package classifier

import (
	"errors"
	"strconv"
	"time"

	"github.com/CivicLens/BillboardGuard/internal/pkg/env"
)

// Config holds the settings for the external vision classifier endpoint.
type Config struct {
	APIKey      string
	Endpoint    string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// LoadConfig loads classifier configuration from environment variables.
func LoadConfig() (*Config, error) {
	config := &Config{
		APIKey:      env.GetEnv("CLASSIFIER_API_KEY", ""),
		Endpoint:    env.GetEnv("CLASSIFIER_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
		Model:       env.GetEnv("CLASSIFIER_MODEL", "gpt-4o"),
		Timeout:     30 * time.Second,
		MaxTokens:   1000,
		Temperature: 0.3,
	}

	if v := env.GetEnv("CLASSIFIER_TIMEOUT_SECONDS", ""); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			config.Timeout = time.Duration(secs) * time.Second
		}
	}

	if config.APIKey == "" {
		return nil, errors.New("CLASSIFIER_API_KEY is required")
	}

	return config, nil
}
