package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// League configuration
	LeagueSlug   string
	OverviewURL  string
	FixturesURL  string
	PastMonths   int
	FutureMonths int

	// Browser configuration
	Headless       bool
	UserAgent      string
	ElementTimeout time.Duration
	OutputDir      string

	// Postgres configuration
	DatabaseURL string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string
	FetchTTL     time.Duration

	// Worker configuration
	ScrapeInterval time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	pastMonths, _ := strconv.Atoi(getEnv("PAST_MONTHS", "3"))
	futureMonths, _ := strconv.Atoi(getEnv("FUTURE_MONTHS", "2"))
	elementTimeout, _ := strconv.Atoi(getEnv("ELEMENT_TIMEOUT_SECONDS", "15"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	fetchTTL, _ := strconv.Atoi(getEnv("FETCH_TTL_SECONDS", "21600"))
	scrapeInterval, _ := strconv.Atoi(getEnv("SCRAPE_INTERVAL_SECONDS", "3600"))

	return Config{
		LeagueSlug:           getEnv("LEAGUE_SLUG", "epl"),
		OverviewURL:          getEnv("OVERVIEW_URL", "https://www.whoscored.com/regions/252/tournaments/2/seasons/10316/england-premier-league"),
		FixturesURL:          getEnv("FIXTURES_URL", "https://www.whoscored.com/regions/252/tournaments/2/england-premier-league/fixtures"),
		PastMonths:           pastMonths,
		FutureMonths:         futureMonths,
		Headless:             getEnv("HEADLESS", "true") == "true",
		UserAgent:            getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"),
		ElementTimeout:       time.Duration(elementTimeout) * time.Second,
		OutputDir:            getEnv("OUTPUT_DIR", "data"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "matches"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLength,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		FetchTTL:             time.Duration(fetchTTL) * time.Second,
		ScrapeInterval:       time.Duration(scrapeInterval) * time.Second,
		Environment:          getEnv("MATCHWORKER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the worker cannot run with
func (c *Config) Validate() error {
	if c.LeagueSlug == "" {
		return fmt.Errorf("league slug must not be empty")
	}
	if c.OverviewURL == "" || c.FixturesURL == "" {
		return fmt.Errorf("overview and fixtures URLs must not be empty")
	}
	if c.PastMonths < 0 || c.FutureMonths < 0 {
		return fmt.Errorf("month counts must not be negative")
	}
	if c.ElementTimeout <= 0 {
		return fmt.Errorf("element timeout must be positive")
	}
	if c.RedisStreamCount <= 0 {
		return fmt.Errorf("redis stream count must be positive")
	}
	if c.RedisStreamMaxLength <= 0 {
		return fmt.Errorf("redis stream max length must be positive")
	}
	if c.ScrapeInterval <= 0 {
		return fmt.Errorf("scrape interval must be positive")
	}
	return nil
}

// IsProduction returns true when running with the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
