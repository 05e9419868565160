// Package config loads server configuration from the environment so main
// stays lean. Empty backing-store values select in-memory or log-only
// fallbacks, which keeps local development dependency-free.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration for the paperflow service.
type Server struct {
	Addr     string
	LogLevel string

	// PostgresDSN selects the Postgres-backed stores; empty means in-memory.
	PostgresDSN string

	// RedisAddr selects the Redis-backed session revocation store; empty
	// means in-memory.
	RedisAddr string

	JWTSigningKey string

	// ActivityLogDir holds the per-day JSONL activity files.
	ActivityLogDir string
	// ActivityLogMaxSize is the rotation threshold in bytes.
	ActivityLogMaxSize int64

	// SMTPAddr is the mail relay (host:port); empty selects the log-only
	// notifier. AdminEmails receive status-change notices.
	SMTPAddr    string
	SMTPFrom    string
	AdminEmails []string

	// KafkaBrokers enables status-event publishing when non-empty.
	KafkaBrokers []string

	// GuardConcurrentUpdates turns the status write into a compare-and-swap
	// against the pre-image, surfacing lost-update races as conflicts.
	GuardConcurrentUpdates bool

	// RecordUnchangedTransitions keeps the historical behavior of writing a
	// history row even when the new status equals the current one.
	RecordUnchangedTransitions bool

	ShutdownTimeout time.Duration
}

// FromEnv builds a Server config from environment variables with
// development defaults.
func FromEnv() Server {
	return Server{
		Addr:                       getenv("PAPERFLOW_ADDR", ":8080"),
		LogLevel:                   getenv("PAPERFLOW_LOG_LEVEL", "info"),
		PostgresDSN:                os.Getenv("PAPERFLOW_POSTGRES_DSN"),
		RedisAddr:                  os.Getenv("PAPERFLOW_REDIS_ADDR"),
		JWTSigningKey:              getenv("PAPERFLOW_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		ActivityLogDir:             getenv("PAPERFLOW_ACTIVITY_LOG_DIR", "logs"),
		ActivityLogMaxSize:         getenvInt64("PAPERFLOW_ACTIVITY_LOG_MAX_SIZE", 5*1024*1024),
		SMTPAddr:                   os.Getenv("PAPERFLOW_SMTP_ADDR"),
		SMTPFrom:                   getenv("PAPERFLOW_SMTP_FROM", "paperflow@localhost"),
		AdminEmails:                splitList(os.Getenv("PAPERFLOW_ADMIN_EMAILS")),
		KafkaBrokers:               splitList(os.Getenv("PAPERFLOW_KAFKA_BROKERS")),
		GuardConcurrentUpdates:     os.Getenv("PAPERFLOW_GUARD_CONCURRENT_UPDATES") == "true",
		RecordUnchangedTransitions: getenv("PAPERFLOW_RECORD_UNCHANGED_TRANSITIONS", "true") == "true",
		ShutdownTimeout:            10 * time.Second,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
