package utils

import (
	"os"
	"strconv"
	"strings"

	"github.com/yungbote/agora-backend/internal/platform/logger"
)

func GetEnv(key, fallback string, log *logger.Logger) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		if log != nil {
			log.Debug("Env var not set, using default", "key", key, "default", fallback)
		}
		return fallback
	}
	return v
}

func GetEnvAsInt(key string, fallback int, log *logger.Logger) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		if log != nil {
			log.Warn("Env var is not an int, using default", "key", key, "value", v, "default", fallback)
		}
		return fallback
	}
	return parsed
}

func GetEnvAsFloat(key string, fallback float64, log *logger.Logger) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		if log != nil {
			log.Warn("Env var is not a float, using default", "key", key, "value", v, "default", fallback)
		}
		return fallback
	}
	return parsed
}
