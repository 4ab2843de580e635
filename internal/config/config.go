package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced by must(); the
// rest fall back to defaults through the env* helpers in env.go.
type Config struct {
	Env       string // application environment (dev, test, production)
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	DBMigrate bool   // apply embedded migrations on startup
	JWTSecret string // secret used to verify access tokens

	Booking BookingConfig
	Payment PaymentConfig
	Queue   QueueConfig
}

// BookingConfig controls hold expiry.
type BookingConfig struct {
	HoldTTL       time.Duration // how long a pending hold survives without payment
	SweepInterval time.Duration // how often the sweeper runs
	SweepBatch    int           // max holds expired per query
}

// PaymentConfig holds the gateway credentials.  Without KeyID and
// KeySecret orders are synthesized locally.
type PaymentConfig struct {
	KeyID     string
	KeySecret string
	APIBase   string
	Currency  string
}

// Configured reports whether real gateway orders can be created.
func (p PaymentConfig) Configured() bool { return p.KeyID != "" && p.KeySecret != "" }

// QueueConfig selects the RabbitMQ broker.  An empty URL disables
// publishing.
type QueueConfig struct {
	URL             string
	ConsumerEnabled bool
	JournalPath     string
}

// Load reads configuration values from environment variables and returns a
// Config.  Missing required values cause the program to exit with a fatal
// log message.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"),
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		DBMigrate: envBool("DB_MIGRATE", true),
		JWTSecret: must("JWT_SECRET"),
		Booking:   LoadBookingConfig(),
		Payment: PaymentConfig{
			KeyID:     os.Getenv("PAYMENT_KEY_ID"),
			KeySecret: os.Getenv("PAYMENT_KEY_SECRET"),
			APIBase:   envStr("PAYMENT_API_BASE", "https://api.razorpay.com"),
			Currency:  envStr("PAYMENT_CURRENCY", "INR"),
		},
		Queue: QueueConfig{
			URL:             firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),
			ConsumerEnabled: envBool("QUEUE_CONSUMER_ENABLED", false),
			JournalPath:     envStr("BOOKING_JOURNAL_PATH", "logs/booking.log"),
		},
	}
}

// LoadBookingConfig reads the hold and sweeper settings.
func LoadBookingConfig() BookingConfig {
	cfg := BookingConfig{
		HoldTTL:       envDur("HOLD_TTL", 10*time.Minute),
		SweepInterval: envDur("SWEEP_INTERVAL", time.Minute),
		SweepBatch:    envInt("SWEEP_BATCH", 200),
	}
	if cfg.HoldTTL <= 0 {
		cfg.HoldTTL = 10 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.SweepBatch < 1 {
		cfg.SweepBatch = 200
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
