package utils

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the read-only runtime record built once at startup and passed by
// reference into each stage.
type Config struct {
	Port                string
	PostgresURL         string
	MapAPIKey           string
	GeminiAPIKey        string
	OpenAIAPIKey        string
	LLMPriority         []string // e.g. ["gemini", "openai"]
	RoutingProvider     string   // real | fixture | auto
	StrictExternalData  bool
	APIBearerToken      string
	JWTSecret           string
	AllowUnauthed       bool
	RateLimitMax        int
	RateLimitWindow     time.Duration
	RequestDeadline     time.Duration
	MapTimeout          time.Duration
	LLMTimeout          time.Duration
	MaxRepairRounds     int
	FoodMinPerPersonDay float64
	SpringFestivalDate  string // "2006-01-02" anchor of the peak window
	EnvSource           string
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// LoadConfig reads .env (if present) and snapshots the environment.
func LoadConfig() *Config {
	envFile := envOr("ENV_FILE", ".env")
	envSource := ".env"
	if err := godotenv.Load(envFile); err == nil {
		envSource = filepath.Base(envFile)
	} else {
		envSource = "environment"
	}

	priority := strings.Split(envOr("LLM_PRIORITY", "gemini,openai"), ",")
	for i := range priority {
		priority[i] = strings.TrimSpace(priority[i])
	}

	return &Config{
		Port:                envOr("PORT", "8080"),
		PostgresURL:         os.Getenv("POSTGRES_URL"),
		MapAPIKey:           os.Getenv("MAP_API_KEY"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		LLMPriority:         priority,
		RoutingProvider:     strings.ToLower(envOr("ROUTING_PROVIDER", "auto")),
		StrictExternalData:  envBool("STRICT_EXTERNAL_DATA"),
		APIBearerToken:      os.Getenv("API_BEARER_TOKEN"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		AllowUnauthed:       envBool("ALLOW_UNAUTHENTICATED_API"),
		RateLimitMax:        envInt("RATE_LIMIT_MAX", 60),
		RateLimitWindow:     time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,
		RequestDeadline:     time.Duration(envInt("REQUEST_DEADLINE_SECONDS", 60)) * time.Second,
		MapTimeout:          5 * time.Second,
		LLMTimeout:          30 * time.Second,
		MaxRepairRounds:     envInt("MAX_REPAIR_ROUNDS", 3),
		FoodMinPerPersonDay: envFloat("FOOD_MIN_PER_PERSON_PER_DAY", 80),
		SpringFestivalDate:  envOr("DEFAULT_SPRING_FESTIVAL_DATE", "2026-02-17"),
		EnvSource:           envSource,
	}
}

// ResolveRoutingProvider collapses "auto" based on key presence.
func (c *Config) ResolveRoutingProvider() string {
	switch c.RoutingProvider {
	case "real", "fixture":
		return c.RoutingProvider
	}
	if c.MapAPIKey != "" {
		return "real"
	}
	return "fixture"
}

// ResolveLLMProvider names the first configured provider in priority order.
func (c *Config) ResolveLLMProvider() string {
	for _, name := range c.LLMPriority {
		switch name {
		case "gemini":
			if c.GeminiAPIKey != "" {
				return "gemini"
			}
		case "openai":
			if c.OpenAIAPIKey != "" {
				return "openai"
			}
		}
	}
	return "template"
}

// PeakWindow returns the configured peak-season interval (anchor ± 7 days).
func (c *Config) PeakWindow() (time.Time, time.Time, bool) {
	anchor, err := time.Parse("2006-01-02", c.SpringFestivalDate)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return anchor.AddDate(0, 0, -7), anchor.AddDate(0, 0, 7), true
}
