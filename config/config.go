package config

import (
	"os"
	"strconv"
)

// defaultAnalysisPrompt is the fixed instruction list sent with every image.
// The numbered items line up with the section table in the parser package.
const defaultAnalysisPrompt = "You are a sustainability and environmental-impact expert. " +
	"Analyze the product packaging in the photo and provide:\n" +
	"1. A general description of the product.\n" +
	"2. Identifiable packaging materials.\n" +
	"3. An approximate carbon footprint estimate (in kg CO2).\n" +
	"4. Correct disposal instructions.\n" +
	"5. Suggestions for eco-friendly alternatives available on the market.\n" +
	"Be didactic, direct and objective. Format each item with its corresponding " +
	"number and start each item on a new line."

// Config holds all configuration for the ecoadvisor service
type Config struct {
	// Server configuration
	Port           string
	AllowedOrigins string

	// LLM provider configuration
	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	// Analysis configuration
	AnalysisPrompt string
	MaxUploadBytes int64

	// Rate limiting
	RateLimitPerMinute int

	// Database configuration (optional; empty DBHost disables history)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// RabbitMQ configuration (optional; empty AMQPURL disables publishing)
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// Server defaults
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),

		// Provider defaults
		LLMProvider:  getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash-latest"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o"),

		// Analysis defaults
		AnalysisPrompt: getEnv("ANALYSIS_PROMPT", defaultAnalysisPrompt),
		MaxUploadBytes: getInt64Env("MAX_UPLOAD_BYTES", 10*1024*1024),

		// Rate limiting defaults
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 20),

		// Database defaults (history is optional)
		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "ecoadvisor"),

		// RabbitMQ defaults (publishing is optional)
		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "ecoadvisor"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "analysis.completed"),

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// CredentialConfigured reports whether the selected provider has the API key
// it needs. A missing credential degrades the service to a disabled state
// rather than crashing it.
func (c *Config) CredentialConfigured() bool {
	switch c.LLMProvider {
	case "openai":
		return c.OpenAIAPIKey != ""
	case "stub":
		return true
	default:
		return c.GeminiAPIKey != ""
	}
}

// HistoryEnabled reports whether the optional MySQL history store is configured.
func (c *Config) HistoryEnabled() bool {
	return c.DBHost != ""
}

// PublishingEnabled reports whether the optional AMQP publisher is configured.
func (c *Config) PublishingEnabled() bool {
	return c.AMQPURL != ""
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64Env gets an int64 environment variable or returns a default value
func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
