package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	CatalogURL string
	SearchURL  string
	UserAgent  string

	EntrySelector  string
	LinkSelector   string
	NumberSelector string
	TitleSelector  string

	HTTPTimeoutSec    int
	RecordDelayMs     int
	BatchSize         int
	BatchPauseMs      int
	RequestsPerSecond int

	FetchMode string
	ChromeBin string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	MaxRetries       int

	LogLevel string

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool
}

// Fetch modes accepted in FETCH_MODE.
const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
)

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	loaded := godotenv.Load() == nil

	return &Config{
		CatalogURL: getEnv("LOA_CATALOG_URL", "https://www.loa.org/books/loa_collection/"),
		SearchURL:  getEnv("WIKIPEDIA_API_URL", "https://en.wikipedia.org/w/api.php"),
		UserAgent:  getEnv("SCRAPER_USER_AGENT", "LOA-Scraper/1.0 (https://github.com/example/loa-scraper)"),

		EntrySelector:  getEnv("LOA_ENTRY_SELECTOR", "li.content-listing.content-listing--book"),
		LinkSelector:   getEnv("LOA_LINK_SELECTOR", "a"),
		NumberSelector: getEnv("LOA_NUMBER_SELECTOR", "i.book-listing__number"),
		TitleSelector:  getEnv("LOA_TITLE_SELECTOR", "b.content-listing__title"),

		HTTPTimeoutSec:    getEnvInt("HTTP_TIMEOUT_SEC", 30),
		RecordDelayMs:     getEnvInt("RECORD_DELAY_MS", 100),
		BatchSize:         getEnvInt("BATCH_SIZE", 10),
		BatchPauseMs:      getEnvInt("BATCH_PAUSE_MS", 500),
		RequestsPerSecond: getEnvInt("REQUESTS_PER_SECOND", 0),

		FetchMode: strings.ToLower(getEnv("FETCH_MODE", FetchModeHTTP)),
		ChromeBin: getEnv("CHROME_BIN", ""),

		PostgresEnabled:  getEnvBool("OUTPUT_POSTGRES", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "loa"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		EnvFileLoaded: loaded,
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
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
