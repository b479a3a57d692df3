// Package config builds runtime configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"time"
)

// Config captures everything the server needs at startup.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// DatabaseURL selects the Postgres-backed stores when set; memory stores
	// otherwise.
	DatabaseURL string
	// MotifSeedFile points at the YAML catalog seeded into the motif store at
	// startup. Empty disables seeding.
	MotifSeedFile string
	// ResidencyCSV points at the residency directory export. Empty yields an
	// empty directory (lookups degrade to the generic location label).
	ResidencyCSV string
	// UploadsDir is where rendered invoice documents are written.
	UploadsDir string
	// AuditBrokers lists Kafka seed brokers for audit publishing. Empty keeps
	// audit events local (outbox only, drained to the log sink).
	AuditBrokers string
	// AuditTopic is the Kafka topic audit events are published to.
	AuditTopic string
	// AuditFlushInterval is how often the outbox worker drains pending events.
	AuditFlushInterval time.Duration
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:               getenv("CONTRAVENTIONS_ADDR", ":8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		MotifSeedFile:      os.Getenv("MOTIF_SEED_FILE"),
		ResidencyCSV:       os.Getenv("RESIDENCY_CSV"),
		UploadsDir:         getenv("UPLOADS_DIR", "./uploads"),
		AuditBrokers:       os.Getenv("AUDIT_BROKERS"),
		AuditTopic:         getenv("AUDIT_TOPIC", "contraventions.audit"),
		AuditFlushInterval: getenvDuration("AUDIT_FLUSH_INTERVAL", 5*time.Second),
		ShutdownTimeout:    getenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
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
