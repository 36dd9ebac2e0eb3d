package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	DBDriver           string
	Port               string
	GoEnv              string
	Auth0Domain        string
	Auth0Audience      string
	JWTSecret          string
	JWTIssuer          string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	KafkaBrokers       []string
	NotificationTopic  string
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
	LogLevel           string
}

var current *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// If environment-specific file doesn't exist, try .env
		if err := godotenv.Load(); err != nil {
			// In production, environment variables are set directly
			// so it's okay if .env files don't exist
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	v := newViper()

	config := &Config{
		DatabaseURL:        v.GetString("DATABASE_URL"),
		DBDriver:           strings.ToLower(v.GetString("DB_DRIVER")),
		Port:               v.GetString("PORT"),
		GoEnv:              v.GetString("GO_ENV"),
		Auth0Domain:        v.GetString("AUTH0_DOMAIN"),
		Auth0Audience:      v.GetString("AUTH0_AUDIENCE"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTIssuer:          v.GetString("JWT_ISSUER"),
		AWSRegion:          v.GetString("AWS_REGION"),
		AWSS3Bucket:        v.GetString("AWS_S3_BUCKET"),
		AWSAccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
		KafkaBrokers:       splitList(v.GetString("KAFKA_BROKERS")),
		NotificationTopic:  v.GetString("KAFKA_NOTIFICATION_TOPIC"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		RateLimitPerSecond: v.GetFloat64("RATE_LIMIT_PER_SECOND"),
		RateLimitBurst:     v.GetInt("RATE_LIMIT_BURST"),
		LogLevel:           v.GetString("LOG_LEVEL"),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	current = config
	return config, nil
}

// newViper binds the environment with the defaults used when a key is unset.
func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "development")
	v.SetDefault("JWT_ISSUER", "blousecraft-dev")
	v.SetDefault("AUTH0_AUDIENCE", "https://api.blousecraft.app")
	v.SetDefault("AWS_REGION", "ap-south-1")
	v.SetDefault("KAFKA_NOTIFICATION_TOPIC", "blousecraft.notifications")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT_PER_SECOND", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("LOG_LEVEL", "info")
	return v
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case "sqlite":
		if c.DatabaseURL == "" {
			c.DatabaseURL = "blousecraft.db"
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	if c.Auth0Domain == "" && c.JWTSecret == "" {
		return fmt.Errorf("either AUTH0_DOMAIN or JWT_SECRET is required")
	}
	if c.RateLimitPerSecond <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit settings must be positive")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// UsesAuth0 reports whether tokens are validated against the Auth0 tenant
// rather than the local HS256 secret.
func (c *Config) UsesAuth0() bool {
	return c.Auth0Domain != ""
}

// GetConfig returns the configuration loaded by Load
func GetConfig() *Config {
	return current
}

// SetConfig sets the configuration instance (primarily for testing)
func SetConfig(cfg *Config) {
	current = cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
