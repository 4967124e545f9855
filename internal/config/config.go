package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Score thresholds below which an identification is not considered
// conclusive. Service-specific: Pl@ntNet results are usable well below the
// bird classifier's confidence range.
const (
	PlantMinScore = 0.20
	BirdMinScore  = 0.55
)

// Config holds all application configuration.
type Config struct {
	// Bluesky
	BlueskyHandle      string
	BlueskyAppPassword string
	BlueskyPDS         string

	// Identification providers
	PlantnetAPIKey string
	BirdAPIURL     string
	BirdAPIKey     string

	// HTTP hook
	HookToken           string
	HookSimulationToken string
	Port                int

	// Dispatch gate
	MinDispatchInterval time.Duration
	NewsBufferSize      int
	SummaryCacheTTL     time.Duration

	// Candidate search
	QuestionsDir string
	MaxHoursOld  int

	// Storage
	DatabasePath string

	// Firehose
	FirehoseURL     string
	FirehoseEnabled bool

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables.
// It automatically loads .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		BlueskyHandle:       getEnv("BLUESKY_HANDLE", ""),
		BlueskyAppPassword:  getEnv("BLUESKY_APP_PASSWORD", ""),
		BlueskyPDS:          getEnv("BLUESKY_PDS", "https://bsky.social"),
		PlantnetAPIKey:      getEnv("PLANTNET_API_KEY", ""),
		BirdAPIURL:          getEnv("BIRD_API_URL", "https://app.birdweather.com/api/v1"),
		BirdAPIKey:          getEnv("BIRD_API_KEY", ""),
		HookToken:           getEnv("HOOK_TOKEN", ""),
		HookSimulationToken: getEnv("HOOK_SIMULATION_TOKEN", ""),
		QuestionsDir:        getEnv("QUESTIONS_DIR", "questions"),
		DatabasePath:        getEnv("DATABASE_PATH", "data/identibot.db"),
		FirehoseURL:         getEnv("FIREHOSE_URL", "wss://jetstream2.us-east.bsky.network/subscribe"),
		FirehoseEnabled:     getEnv("FIREHOSE_ENABLED", "false") == "true",
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}

	// Parse durations
	var err error
	cfg.MinDispatchInterval, err = time.ParseDuration(getEnv("MIN_DISPATCH_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_DISPATCH_INTERVAL: %w", err)
	}

	cfg.SummaryCacheTTL, err = time.ParseDuration(getEnv("SUMMARY_CACHE_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SUMMARY_CACHE_TTL: %w", err)
	}

	// Parse integers
	cfg.Port, err = parseIntEnv("PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.NewsBufferSize, err = parseIntEnv("NEWS_BUFFER_SIZE", 30)
	if err != nil {
		return nil, err
	}
	cfg.MaxHoursOld, err = parseIntEnv("MAX_HOURS_OLD", 72)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.BlueskyHandle == "" {
		return fmt.Errorf("BLUESKY_HANDLE is required")
	}
	if c.BlueskyAppPassword == "" {
		return fmt.Errorf("BLUESKY_APP_PASSWORD is required")
	}
	return nil
}

// ValidateForPlant checks configuration needed for the plant plugins.
func (c *Config) ValidateForPlant() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.PlantnetAPIKey == "" {
		return fmt.Errorf("PLANTNET_API_KEY is required for plant identification")
	}
	return nil
}

// ValidateForBird checks configuration needed for the bird plugins.
func (c *Config) ValidateForBird() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.BirdAPIKey == "" {
		return fmt.Errorf("BIRD_API_KEY is required for bird identification")
	}
	return nil
}

// ValidateForServe checks all configuration needed for serve mode.
func (c *Config) ValidateForServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.HookToken == "" {
		return fmt.Errorf("HOOK_TOKEN is required for the hook endpoint")
	}
	if c.MinDispatchInterval <= 0 {
		return fmt.Errorf("MIN_DISPATCH_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseIntEnv(key string, defaultVal int) (int, error) {
	raw := getEnv(key, strconv.Itoa(defaultVal))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
