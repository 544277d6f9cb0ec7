package config

import (
	"os"
	"strconv"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int
	LogLevel     string

	DBPath         string
	DraftsPath     string
	MigrationsPath string
	OpenAPIPath    string

	AngleTolerance  float64
	LengthTolerance float64
	MaxIterations   int
	CarpetMargin    float64
}

// Load reads the configuration from the environment. Unset or malformed
// values fall back to the defaults.
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "3004"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		DBPath:         getEnv("ROOMING_DB_PATH", "data/db/rooming.db"),
		DraftsPath:     getEnv("ROOMING_DRAFTS_PATH", "data/db/drafts.db"),
		MigrationsPath: getEnv("ROOMING_MIGRATIONS", "migrations/001_init_rooming.sql"),
		OpenAPIPath:    getEnv("ROOMING_OPENAPI", "docs/rooming.openapi.yaml"),

		AngleTolerance:  getEnvAsFloat("ANGLE_TOLERANCE", 1e-4),
		LengthTolerance: getEnvAsFloat("LENGTH_TOLERANCE", 1e-6),
		MaxIterations:   getEnvAsInt("MAX_ITERATIONS", 100),
		CarpetMargin:    getEnvAsFloat("CARPET_MARGIN", 0.1),
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
