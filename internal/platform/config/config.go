// Package config builds process configuration from the environment so main
// stays lean. Missing values fall back to development defaults; production
// deployments override via environment or a .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	strutil "vouch/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
}

// Ledger captures the process-wide ledger identities. Both are mutable at
// runtime only through the owner-only SetOracle operation; these values seed
// the identity store at startup.
type Ledger struct {
	Oracle      string
	Owner       string
	EventBuffer int
}

// Postgres captures the optional durable store configuration. An empty URL
// selects the in-memory stores.
type Postgres struct {
	URL string
}

// Redis captures the optional price cache configuration. An empty URL
// disables caching.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures the optional external event bus configuration. No brokers
// means events stay in process.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Sources captures aggregation tuning. Feeds lists external price feeds as
// name=url pairs. DevFallback opts in to built-in static development feeds
// when no external feeds are configured; without it an unconfigured process
// refuses to start rather than serve fabricated reference prices.
type Sources struct {
	Feeds           []string
	DevFallback     bool
	ProviderTimeout time.Duration
	CacheTTL        time.Duration
}

// Config is the full process configuration.
type Config struct {
	Server   Server
	Ledger   Ledger
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Sources  Sources
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envOr("VOUCH_ADDR", ":8080"),
			JWTSigningKey: envOr("VOUCH_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     envOr("VOUCH_JWT_ISSUER", "vouch"),
			JWTAudience:   envOr("VOUCH_JWT_AUDIENCE", "vouch-agents"),
		},
		Ledger: Ledger{
			Oracle:      envOr("VOUCH_ORACLE_ID", "oracle-dev"),
			Owner:       envOr("VOUCH_OWNER_ID", "owner-dev"),
			EventBuffer: envInt("VOUCH_EVENT_BUFFER", 256),
		},
		Postgres: Postgres{
			URL: os.Getenv("VOUCH_POSTGRES_URL"),
		},
		Redis: Redis{
			URL:          os.Getenv("VOUCH_REDIS_URL"),
			PoolSize:     envInt("VOUCH_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("VOUCH_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("VOUCH_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("VOUCH_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("VOUCH_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers: splitList(os.Getenv("VOUCH_KAFKA_BROKERS")),
			Topic:   envOr("VOUCH_KAFKA_TOPIC", "vouch.ledger.events"),
		},
		Sources: Sources{
			Feeds:           splitList(os.Getenv("VOUCH_PRICE_FEEDS")),
			DevFallback:     envBool("VOUCH_DEV_FEEDS", false),
			ProviderTimeout: envDuration("VOUCH_PROVIDER_TIMEOUT", 5*time.Second),
			CacheTTL:        envDuration("VOUCH_PRICE_CACHE_TTL", 2*time.Minute),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	out := strutil.DedupeAndTrim(strings.Split(v, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}
