package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	minEngineTimeout = 20 * time.Second
	maxEngineTimeout = 32 * time.Second
)

// EngineConfig describes one generative backend.
type EngineConfig struct {
	Name       string
	URL        string
	APIKey     string
	Model      string
	ImageModel string
}

// Configured reports whether the backend can be called at all.
func (e EngineConfig) Configured() bool {
	return strings.TrimSpace(e.URL) != "" && strings.TrimSpace(e.APIKey) != "" && strings.TrimSpace(e.Model) != ""
}

// Config is the process configuration, read once at boot.
type Config struct {
	Port     string
	LogLevel string

	PostgresDSN   string
	MongoURI      string
	MongoDatabase string

	SharedSecret string

	Primary         EngineConfig
	Secondary       EngineConfig
	PreferredEngine string
	EngineTimeout   time.Duration

	NewsSearchURL  string
	NewsSearchLang string
	MediaSearchURL string

	PublicMediaBaseURL string
	PublicSiteBaseURL  string
	PlaceholderBaseURL string

	DispatchWebhookURL   string
	DispatchWebhookToken string

	PolicyFile        string
	EditorialCron     string
	EditorialTimezone string
}

// LoadEnv overlays .env files on top of the process environment.
func LoadEnv(logger *logrus.Logger) {
	for _, file := range []string{".env", ".env.local"} {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil {
			logger.WithError(err).Warnf("failed to load %s", file)
			continue
		}
		logger.Debugf("loaded env file %s", file)
	}
}

// Load builds a Config from the environment.
func Load() Config {
	cfg := Config{
		Port:     GetEnv("PORT", "8080"),
		LogLevel: GetEnv("LOG_LEVEL", "info"),

		PostgresDSN:   os.Getenv("SUPABASE_DSN"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: GetEnv("MONGO_DATABASE", "editorial_media"),

		SharedSecret: os.Getenv("EDITORIAL_SHARED_SECRET"),

		Primary: EngineConfig{
			Name:       "primary",
			URL:        GetEnv("ENGINE_PRIMARY_URL", "https://api.openai.com/v1"),
			APIKey:     os.Getenv("ENGINE_PRIMARY_KEY"),
			Model:      os.Getenv("ENGINE_PRIMARY_MODEL"),
			ImageModel: os.Getenv("ENGINE_PRIMARY_IMAGE_MODEL"),
		},
		Secondary: EngineConfig{
			Name:       "secondary",
			URL:        GetEnv("ENGINE_SECONDARY_URL", "https://generativelanguage.googleapis.com"),
			APIKey:     os.Getenv("ENGINE_SECONDARY_KEY"),
			Model:      os.Getenv("ENGINE_SECONDARY_MODEL"),
			ImageModel: os.Getenv("ENGINE_SECONDARY_IMAGE_MODEL"),
		},
		PreferredEngine: GetEnv("ENGINE_PREFERRED", "primary"),
		EngineTimeout:   ClampEngineTimeout(GetEnvDuration("ENGINE_TIMEOUT", 28*time.Second)),

		NewsSearchURL:  GetEnv("NEWS_SEARCH_URL", "https://news.google.com/rss/search"),
		NewsSearchLang: GetEnv("NEWS_SEARCH_LANG", "es-419:CO"),
		MediaSearchURL: GetEnv("MEDIA_SEARCH_URL", "https://commons.wikimedia.org/w/api.php"),

		PublicMediaBaseURL: strings.TrimRight(GetEnv("PUBLIC_MEDIA_BASE_URL", "http://localhost:8080/media"), "/"),
		PublicSiteBaseURL:  strings.TrimRight(GetEnv("PUBLIC_SITE_BASE_URL", "http://localhost:3000"), "/"),
		PlaceholderBaseURL: strings.TrimRight(GetEnv("PLACEHOLDER_BASE_URL", "https://picsum.photos/seed"), "/"),

		DispatchWebhookURL:   os.Getenv("DISPATCH_WEBHOOK_URL"),
		DispatchWebhookToken: os.Getenv("DISPATCH_WEBHOOK_TOKEN"),

		PolicyFile:        os.Getenv("EDITORIAL_POLICY_FILE"),
		EditorialCron:     GetEnv("EDITORIAL_CRON", "0 */6 * * *"),
		EditorialTimezone: GetEnv("EDITORIAL_TIMEZONE", "America/Bogota"),
	}
	return cfg
}

// ClampEngineTimeout keeps per-engine timeouts inside the 20–32s band.
func ClampEngineTimeout(d time.Duration) time.Duration {
	if d < minEngineTimeout {
		return minEngineTimeout
	}
	if d > maxEngineTimeout {
		return maxEngineTimeout
	}
	return d
}

// GetEnv gets an environment variable with a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer environment variable with a default value
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvDuration accepts Go durations ("25s") or bare seconds ("25").
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
