package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	SearchURL     string
	APIKey        string
	SearchTimeout time.Duration

	VocabularyPath string
	LogLevel       string

	EnrichDetails bool
	DetailTimeout time.Duration
	ChromeBin     string

	CSVOutputPath string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "mercari"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "mercari123"),
		PostgresDB:       getEnv("POSTGRES_DB", "listings_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		SearchURL:     getEnv("MERCARI_API_URL", "https://api.mercari.com/v2/search"),
		APIKey:        getEnv("MERCARI_API_KEY", ""),
		SearchTimeout: time.Duration(getEnvInt("SEARCH_TIMEOUT_SEC", 30)) * time.Second,

		VocabularyPath: getEnv("VOCABULARY_PATH", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		EnrichDetails: getEnvBool("ENRICH_DETAILS", false),
		DetailTimeout: time.Duration(getEnvInt("DETAIL_TIMEOUT_SEC", 60)) * time.Second,
		ChromeBin:     getEnv("CHROME_BIN", ""),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/listings.csv"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err == nil {
			return b
		}
	}
	return fallback
}
