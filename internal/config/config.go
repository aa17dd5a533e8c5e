package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config содержит конфигурацию сервиса расчета аренды
type Config struct {
	MaxPayment       float64
	MaxAmount        float64
	MaxTermMonths    int
	MaxRate          float64
	MaxModifications int
	OTELEndpoint     string
	OTELServiceName  string
	LogLevel         string
	LogFormat        string
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() (*Config, error) {
	// Загружаем .env файл, если он существует (игнорируем ошибку)
	_ = godotenv.Load()

	cfg := &Config{
		MaxPayment:       getEnvFloat("MAX_PAYMENT", 1e9),
		MaxAmount:        getEnvFloat("MAX_AMOUNT", 1e12),
		MaxTermMonths:    getEnvInt("MAX_TERM_MONTHS", 1200),
		MaxRate:          getEnvFloat("MAX_RATE", 200),
		MaxModifications: getEnvInt("MAX_MODIFICATIONS", 500),
		OTELEndpoint:     getEnvString("OTEL_ENDPOINT", ""),
		OTELServiceName:  getEnvString("OTEL_SERVICE_NAME", "mcp-lease-server"),
		LogLevel:         getEnvString("LOG_LEVEL", "info"),
		LogFormat:        getEnvString("LOG_FORMAT", "text"),
	}

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
