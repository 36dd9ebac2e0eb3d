package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", ":memory:")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "blousecraft-dev", cfg.JWTIssuer)
	assert.Equal(t, "blousecraft.notifications", cfg.NotificationTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, float64(10), cfg.RateLimitPerSecond)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.True(t, cfg.IsTest())
	assert.False(t, cfg.UsesAuth0())
	assert.Same(t, cfg, GetConfig())
}

func TestLoad_KafkaBrokerList(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "postgres without url",
			cfg:     Config{DBDriver: "postgres", JWTSecret: "s", RateLimitPerSecond: 1, RateLimitBurst: 1},
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "unknown driver",
			cfg:     Config{DBDriver: "mysql", JWTSecret: "s", RateLimitPerSecond: 1, RateLimitBurst: 1},
			wantErr: "unsupported DB_DRIVER",
		},
		{
			name:    "no token validation configured",
			cfg:     Config{DBDriver: "sqlite", RateLimitPerSecond: 1, RateLimitBurst: 1},
			wantErr: "AUTH0_DOMAIN or JWT_SECRET",
		},
		{
			name:    "zero rate limit",
			cfg:     Config{DBDriver: "sqlite", JWTSecret: "s"},
			wantErr: "rate limit",
		},
		{
			name: "valid auth0 postgres",
			cfg: Config{
				DBDriver: "postgres", DatabaseURL: "postgres://localhost/db",
				Auth0Domain: "tenant.auth0.com", RateLimitPerSecond: 1, RateLimitBurst: 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidate_SQLiteDefaultsPath(t *testing.T) {
	cfg := Config{DBDriver: "sqlite", JWTSecret: "s", RateLimitPerSecond: 1, RateLimitBurst: 1}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "blousecraft.db", cfg.DatabaseURL)
}
