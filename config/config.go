package config

import "os"

// Config holds runtime configuration, read from the environment with
// development defaults.
type Config struct {
	// Database
	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string

	// Classifier
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	// HTTP
	ListenAddr string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		DBHost: getenv("FEEDBACKLENS_DB_HOST", "localhost"),
		DBPort: getenv("FEEDBACKLENS_DB_PORT", "5432"),
		DBUser: getenv("FEEDBACKLENS_DB_USER", "feedbacklens"),
		DBPass: getenv("FEEDBACKLENS_DB_PASSWORD", "feedbacklens"),
		DBName: getenv("FEEDBACKLENS_DB_NAME", "feedbacklens"),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getenv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"), // optional, for OpenAI-compatible gateways

		ListenAddr: getenv("FEEDBACKLENS_ADDR", ":8080"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
