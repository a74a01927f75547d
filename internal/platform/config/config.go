package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	// CatalogPath points at the document/view catalog YAML.
	CatalogPath string

	// RecordTokenEnv names the environment variable holding the record
	// store access token. The variable is read per call so rotation does
	// not require a restart.
	RecordTokenEnv string

	// DebounceInterval is the quiet period before a partial sync fires.
	DebounceInterval time.Duration

	// SaveRetryBudget is the number of extra save attempts spent
	// eliminating drifted fields.
	SaveRetryBudget int

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// PostgresConfig configures the record store backend. An empty URL keeps
// the process on the in-memory store.
type PostgresConfig struct {
	URL        string
	Table      string
	FieldLimit int
}

// RedisConfig configures the snapshot cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	SnapshotTTL  time.Duration
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit event sink. No brokers keeps audit
// events in memory.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:             envOr("DOCKET_ADDR", ":8080"),
		JWTSigningKey:    envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		CatalogPath:      envOr("DOCKET_CATALOG_PATH", "configs/catalog.yaml"),
		RecordTokenEnv:   envOr("DOCKET_RECORD_TOKEN_ENV", "DOCKET_RECORD_TOKEN"),
		DebounceInterval: envDuration("DOCKET_SYNC_DEBOUNCE", 2*time.Second),
		SaveRetryBudget:  envInt("DOCKET_SAVE_RETRY_BUDGET", 2),
		Postgres: PostgresConfig{
			URL:        os.Getenv("DOCKET_POSTGRES_URL"),
			Table:      envOr("DOCKET_RECORD_TABLE", "case_records"),
			FieldLimit: envInt("DOCKET_FIELD_LIMIT", 100),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("DOCKET_REDIS_URL"),
			SnapshotTTL:  envDuration("DOCKET_SNAPSHOT_TTL", 10*time.Minute),
			PoolSize:     envInt("DOCKET_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("DOCKET_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("DOCKET_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("DOCKET_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("DOCKET_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Topic: envOr("DOCKET_AUDIT_TOPIC", "docket.audit"),
		},
	}

	if brokers := os.Getenv("DOCKET_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
