package config

import (
	"os"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	DatabaseURL    string
	JWTSigningKey  string
	KafkaBrokers   string
	AuditTopic     string
	RequestTimeout time.Duration
	SinkTimeout    time.Duration
}

// SinkTimeout bounds every call to the notification and audit sinks so no
// side effect can block a request past its own deadline.
var defaultSinkTimeout = 3 * time.Second

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("ESTATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	requestTimeout := 30 * time.Second
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			requestTimeout = d
		}
	}

	sinkTimeout := defaultSinkTimeout
	if v := os.Getenv("SINK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			sinkTimeout = d
		}
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	auditTopic := os.Getenv("AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "estatecore.audit.entries"
	}

	return Server{
		Addr:           addr,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSigningKey:  jwtSigningKey,
		KafkaBrokers:   os.Getenv("KAFKA_BROKERS"),
		AuditTopic:     auditTopic,
		RequestTimeout: requestTimeout,
		SinkTimeout:    sinkTimeout,
	}
}
