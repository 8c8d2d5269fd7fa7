package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultMaxSymbols caps sequence growth for the command line
const DefaultMaxSymbols = 1 << 24

// Config contains configuration for the lsys tools
type Config struct {
	OpenAIAPIKey string // OpenAI API key for LLM provider
	GeminiAPIKey string // Google Gemini API key (optional)
	SentryDSN    string // Sentry DSN (optional)
	Provider     string // Explicit provider name; empty infers it from Model
	Model        string // LLM model; empty uses the chosen provider's default
	MaxSymbols   int    // Largest sequence the expander may build; 0 means unlimited
}

// Load reads .env (if present) and then the process environment
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️  Warning: Could not load .env file: %v", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only
func FromEnv() *Config {
	cfg := &Config{
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		SentryDSN:    os.Getenv("SENTRY_DSN"),
		Provider:     os.Getenv("LSYS_PROVIDER"),
		Model:        os.Getenv("LSYS_MODEL"),
		MaxSymbols:   DefaultMaxSymbols,
	}

	if maxSymbols := os.Getenv("LSYS_MAX_SYMBOLS"); maxSymbols != "" {
		if val, err := strconv.Atoi(maxSymbols); err == nil && val >= 0 {
			cfg.MaxSymbols = val
		} else {
			log.Printf("⚠️  Ignoring invalid LSYS_MAX_SYMBOLS=%q", maxSymbols)
		}
	}

	return cfg
}
