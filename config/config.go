package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	MongoURI string `envconfig:"MONGO_URI" required:"true"`
	DBName   string `envconfig:"DB_NAME" default:"teamboard"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	// Substituted for omitted company references. Commission to an admin is always zero.
	FallbackAdminID string `envconfig:"FALLBACK_ADMIN_ID" required:"true"`

	PaymentWebhookSecret string `envconfig:"PAYMENT_WEBHOOK_SECRET"`

	ReferralBaseURL    string `envconfig:"REFERRAL_BASE_URL" default:"http://localhost:8080/r/"`
	ReferralLandingURL string `envconfig:"REFERRAL_LANDING_URL" default:"http://localhost:3000/"`

	SMTPHost         string `envconfig:"SMTP_HOST"`
	SMTPPort         int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser         string `envconfig:"SMTP_USER"`
	SMTPPass         string `envconfig:"SMTP_PASS"`
	FromEmail        string `envconfig:"FROM_EMAIL" default:"no-reply@teamboard.local"`
	AdminNotifyEmail string `envconfig:"ADMIN_NOTIFY_EMAIL"`

	WhishBaseURL     string `envconfig:"WHISH_BASE_URL" default:"https://api.sandbox.whish.money/itel-service/api/"`
	WhishChannel     string `envconfig:"WHISH_CHANNEL"`
	WhishSecret      string `envconfig:"WHISH_SECRET"`
	WhishWebsiteURL  string `envconfig:"WHISH_WEBSITE_URL"`
	WhishCurrency    string `envconfig:"WHISH_CURRENCY" default:"USD"`
	WhishDebug       bool   `envconfig:"WHISH_DEBUG" default:"false"`
	WhishRedirectURL string `envconfig:"WHISH_REDIRECT_URL" default:"http://localhost:3000/payment/result"`
	PublicBaseURL    string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`

	FirebaseCredentialsBase64 string `envconfig:"FIREBASE_CREDENTIALS_BASE64"`
	FirebaseCredentialsFile   string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseProjectID         string `envconfig:"FIREBASE_PROJECT_ID"`

	SweepCron     string        `envconfig:"SWEEP_CRON" default:"0 6 * * 1"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"168h"`
	UseAsynq      bool          `envconfig:"SWEEP_USE_ASYNQ" default:"true"`

	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS"`
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if _, err := primitive.ObjectIDFromHex(cfg.FallbackAdminID); err != nil {
		return nil, errors.New("FALLBACK_ADMIN_ID must be a valid ObjectID")
	}
	if len(cfg.JWTSecret) < 16 {
		return nil, errors.New("JWT_SECRET must be at least 16 characters")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// FallbackAdmin returns FallbackAdminID parsed. Load has already validated it.
func (c *Config) FallbackAdmin() primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(c.FallbackAdminID)
	return id
}

// SMTPEnabled reports whether outgoing mail is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUser != ""
}
