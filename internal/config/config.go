package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Groq (generation provider)
	GroqAPIKey  string
	GroqBaseURL string
	GroqModel   string

	// Rate limiting
	AuthRateLimit     int
	GenerateRateLimit int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "3001"),
		Env:               getEnvOrDefault("ENV", "development"),
		DatabaseURL:       mustGetEnv("DATABASE_URL"),
		RedisURL:          mustGetEnv("REDIS_URL"),
		JWTSecret:         mustGetEnv("JWT_SECRET"),
		GroqAPIKey:        getEnvOrDefault("GROQ_API_KEY", ""),
		GroqBaseURL:       getEnvOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:         getEnvOrDefault("GROQ_MODEL", "llama-3.3-70b-versatile"),
		AuthRateLimit:     getEnvAsIntOrDefault("AUTH_RATE_LIMIT_PER_MINUTE", 10),
		GenerateRateLimit: getEnvAsIntOrDefault("GENERATE_RATE_LIMIT_PER_MINUTE", 20),
		FrontendURL:       getEnvOrDefault("FRONTEND_URL", "http://localhost:5500"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
