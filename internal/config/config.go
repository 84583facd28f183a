// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Service       ServiceConfig
	Audio         AudioConfig
	Recognizer    RecognizerConfig
	Redis         RedisConfig
	Database      DatabaseConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the service and its listen addresses.
type ServiceConfig struct {
	Principal   string
	HTTPPort    string
	MetricsAddr string
}

// AudioConfig describes the inbound audio format and the target format
// expected by the recognizer.
type AudioConfig struct {
	Encoding         string
	SourceSampleRate int
	TargetSampleRate int
}

// RecognizerConfig selects the speech recognition backend.
type RecognizerConfig struct {
	Provider    string
	PoolWorkers int
}

// RedisConfig configures the volatile draft store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	DraftTTL time.Duration
}

// DatabaseConfig configures the durable segment store.
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// KafkaConfig configures transcript event publishing.
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	TopicPartial string
	TopicFinal   string
	Principal    string
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, applying defaults
// for anything unset. Invalid values fall back to their defaults.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "asr-session-service")

	return &Config{
		Service: ServiceConfig{
			Principal:   principal,
			HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
		},
		Audio: AudioConfig{
			Encoding:         envOrDefault("AUDIO_ENCODING", "alaw"),
			SourceSampleRate: envOrDefaultInt("AUDIO_SOURCE_SAMPLE_RATE_HZ", 8000),
			TargetSampleRate: envOrDefaultInt("AUDIO_TARGET_SAMPLE_RATE_HZ", 16000),
		},
		Recognizer: RecognizerConfig{
			Provider:    envOrDefault("RECOGNIZER_PROVIDER", "mock"),
			PoolWorkers: envOrDefaultInt("RECOGNIZER_POOL_WORKERS", 4),
		},
		Redis: RedisConfig{
			Addr:     envOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: envOrDefault("REDIS_PASSWORD", ""),
			DB:       envOrDefaultInt("REDIS_DB", 0),
			DraftTTL: envOrDefaultDuration("REDIS_DRAFT_TTL", 5*time.Minute),
		},
		Database: DatabaseConfig{
			Driver: envOrDefault("DB_DRIVER", "sqlite"),
			DSN:    envOrDefault("DB_DSN", "file:asr-sessions.db"),
		},
		Kafka: KafkaConfig{
			Enabled:      envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:      envOrDefaultList("KAFKA_BROKERS", nil),
			TopicPartial: envOrDefault("KAFKA_TOPIC_PARTIAL", "asr.transcript.partial"),
			TopicFinal:   envOrDefault("KAFKA_TOPIC_FINAL", "asr.transcript.final"),
			Principal:    envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOrDefaultList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
