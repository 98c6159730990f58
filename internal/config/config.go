package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the full pipeline server configuration, loaded from environment variables.
type Config struct {
	// HTTP server
	Port     string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// PostgreSQL
	DBHost     string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string        `envconfig:"DB_PORT" default:"5432"`
	DBUser     string        `envconfig:"DB_USER" required:"true"`
	DBPassword string        `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode  string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns int32         `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTime time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`

	// RabbitMQ (pipeline event fan-out)
	RabbitMQURL           string `envconfig:"RABBITMQ_URL" required:"true"`
	PipelineEventExchange string `envconfig:"PIPELINE_EVENT_EXCHANGE" default:"pipeline_events"`

	// Redis (moderation claim leases)
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	ClaimLeaseTTL time.Duration `envconfig:"MODERATION_CLAIM_TTL" default:"15m"`

	// Image synthesis provider (OpenAI-compatible images API)
	ImageAPIKey  string        `envconfig:"IMAGE_API_KEY" required:"true"`
	ImageBaseURL string        `envconfig:"IMAGE_API_BASE_URL" default:""`
	ImageModel   string        `envconfig:"IMAGE_MODEL" default:"dall-e-3"`
	ImageTimeout time.Duration `envconfig:"IMAGE_TIMEOUT" default:"120s"`

	// Speech synthesis provider (self-hosted TTS server)
	TTSServerURL string        `envconfig:"TTS_SERVER_URL" required:"true"`
	TTSVoice     string        `envconfig:"TTS_VOICE" default:"warm_female"`
	TTSTimeout   time.Duration `envconfig:"TTS_TIMEOUT" default:"60s"`

	// Render backend
	RenderBackendURL string        `envconfig:"RENDER_BACKEND_URL" required:"true"`
	RenderAuthToken  string        `envconfig:"RENDER_AUTH_TOKEN" default:""`
	RenderTimeout    time.Duration `envconfig:"RENDER_TIMEOUT" default:"30s"`

	// Media storage (generated files are written here and served by nginx)
	MediaSavePath      string `envconfig:"MEDIA_SAVE_PATH" required:"true"`
	MediaPublicBaseURL string `envconfig:"MEDIA_PUBLIC_BASE_URL" required:"true"`

	// Generation behaviour
	GenerateConcurrency int           `envconfig:"GENERATE_CONCURRENCY" default:"4"`
	ProviderMaxAttempts int           `envconfig:"PROVIDER_MAX_ATTEMPTS" default:"3"`
	ProviderBaseDelay   time.Duration `envconfig:"PROVIDER_BASE_RETRY_DELAY" default:"2s"`
	ProviderMaxDelay    time.Duration `envconfig:"PROVIDER_MAX_RETRY_DELAY" default:"30s"`
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log.Printf("Configuration loaded:")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	log.Printf("  RabbitMQ URL: %s", cfg.RabbitMQURL)
	log.Printf("  Redis Addr: %s", cfg.RedisAddr)
	log.Printf("  Image Model: %s", cfg.ImageModel)
	log.Printf("  TTS Server URL: %s", cfg.TTSServerURL)
	log.Printf("  Render Backend URL: %s", cfg.RenderBackendURL)
	log.Printf("  Media Save Path: %s", cfg.MediaSavePath)
	log.Printf("  Generate Concurrency: %d", cfg.GenerateConcurrency)

	return &cfg, nil
}
