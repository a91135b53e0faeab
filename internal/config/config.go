package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds process-level settings. Database settings live in the
// database package; everything here is consumed by the HTTP layer.
type Config struct {
	Env       string
	Port      string
	JWTSecret string
}

var appConfig *Config

// Load reads configuration from the environment, consulting a .env file
// when one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	appConfig = &Config{
		Env:       getEnv("ENV", "development"),
		Port:      getEnv("PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
	}
	return appConfig, nil
}

// Get returns the loaded configuration, loading it on first use.
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
