package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads a .env file from the working directory if there is
// one. Variables already set in the environment win. A missing file is
// fine, an unreadable or malformed one is not.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot load .env: %w", err)
	}
	return nil
}

// Env holds process settings that come from the environment. Redis
// variables are read by infra.ProvideRedisClient.
type Env struct {
	ServerPort string

	// Base URL printed into QR codes, e.g. https://queue.example.com.
	// Falls back to the request host when empty.
	PublicURL string

	// Empty password leaves admin routes open.
	AdminPassword    string
	AdminTokenSecret string
}

func ProvideEnv() (*Env, error) {
	env := &Env{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		PublicURL:        getEnv("PUBLIC_URL", ""),
		AdminPassword:    getEnv("ADMIN_PASSWORD", ""),
		AdminTokenSecret: getEnv("ADMIN_TOKEN_SECRET", "quickqueue-secret"),
	}

	if _, err := getEnvAsInt("SERVER_PORT", 8080); err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	return env, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(valueStr)
}
