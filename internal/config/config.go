// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; empty disables persistence (in-memory stores).
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisAddr is the Redis address for the shared revocation list (e.g. localhost:6379).
	// Empty falls back to the in-process revocation list.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the optional Redis password.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; used with JWT_PUBLIC_KEY for RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim (e.g. "carelink-auth").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "carelink-api").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// SessionTTL is the session token lifetime (e.g. "24h").
	SessionTTL string `mapstructure:"SESSION_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// OTPTTL is the one-time code lifetime (e.g. "5m").
	OTPTTL string `mapstructure:"OTP_TTL"`
	// OTPMaxAttempts is the number of wrong guesses allowed per code.
	OTPMaxAttempts int `mapstructure:"OTP_MAX_ATTEMPTS"`
	// OTPReturnToClient when true enables dev OTP mode: no SMS, codes stored
	// for GET /v1/dev/otp. Must not be true when Env is production.
	OTPReturnToClient bool `mapstructure:"OTP_RETURN_TO_CLIENT"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// SMSLocalAPIKey is the API key for SMS Local. Required unless dev OTP mode is on.
	SMSLocalAPIKey string `mapstructure:"SMS_LOCAL_API_KEY"`
	// SMSLocalSender is the optional sender ID for SMS Local.
	SMSLocalSender string `mapstructure:"SMS_LOCAL_SENDER"`
	// SMSLocalBaseURL is the SMS Local API base URL.
	SMSLocalBaseURL string `mapstructure:"SMS_LOCAL_BASE_URL"`

	// Rate limits, expressed as "count/window" (e.g. "5/10m"). Empty disables the class.
	RateOTPRequest string `mapstructure:"RATE_OTP_REQUEST"`
	RateOTPVerify  string `mapstructure:"RATE_OTP_VERIFY"`
	RateRegister   string `mapstructure:"RATE_REGISTER"`
	RateMutation   string `mapstructure:"RATE_MUTATION"`

	// Telemetry (optional). When Kafka brokers are set, the server emits telemetry to Kafka.
	// TelemetryKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for telemetry events (default carelink-telemetry).
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`
	// OTLPEndpoint is the OTLP gRPC endpoint for traces/metrics/logs (e.g. localhost:4317). Empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`

	// Worker-only: Loki URL for the telemetry worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the telemetry worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("JWT_ISSUER", "carelink-auth")
	v.SetDefault("JWT_AUDIENCE", "carelink-api")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("OTP_TTL", "5m")
	v.SetDefault("OTP_MAX_ATTEMPTS", 5)
	v.SetDefault("OTP_RETURN_TO_CLIENT", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("SMS_LOCAL_BASE_URL", "https://www.smslocal.com/dev/bulkV2")
	v.SetDefault("RATE_OTP_REQUEST", "5/10m")
	v.SetDefault("RATE_OTP_VERIFY", "10/10m")
	v.SetDefault("RATE_REGISTER", "10/1h")
	v.SetDefault("RATE_MUTATION", "60/1m")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "carelink-telemetry")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "carelink-telemetry-worker")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.OTPReturnToClient && cfg.Env == "production" {
		return nil, errors.New("config: OTP_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.OTPMaxAttempts < 1 {
		return nil, errors.New("config: OTP_MAX_ATTEMPTS must be at least 1")
	}

	for _, r := range []string{cfg.RateOTPRequest, cfg.RateOTPVerify, cfg.RateRegister, cfg.RateMutation} {
		if r == "" {
			continue
		}
		if _, _, err := ParseRate(r); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// SessionDuration parses SessionTTL as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) SessionDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// OTPDuration parses OTPTTL as a time.Duration. Returns 5m if unset or invalid.
func (c *Config) OTPDuration() time.Duration {
	d, err := time.ParseDuration(c.OTPTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// ParseRate parses a "count/window" rate string (e.g. "5/10m") into its count
// and window. Returns an error for malformed strings.
func ParseRate(s string) (int, time.Duration, error) {
	slash := strings.IndexByte(s, '/')
	if slash <= 0 || slash == len(s)-1 {
		return 0, 0, errors.New("config: rate must be count/window, e.g. 5/10m")
	}
	var count int
	for _, ch := range s[:slash] {
		if ch < '0' || ch > '9' {
			return 0, 0, errors.New("config: rate count must be a positive integer")
		}
		count = count*10 + int(ch-'0')
	}
	if count < 1 {
		return 0, 0, errors.New("config: rate count must be at least 1")
	}
	window, err := time.ParseDuration(s[slash+1:])
	if err != nil || window <= 0 {
		return 0, 0, errors.New("config: rate window must be a positive duration, e.g. 10m")
	}
	return count, window, nil
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if telemetry is enabled (non-empty list) and to create the producer.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
