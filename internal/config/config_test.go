package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Server.Port)
	require.True(t, cfg.Server.IsDevelopment())
	require.Equal(t, CodecPaseto, cfg.Token.Codec)
	require.Equal(t, StorePostgres, cfg.Token.Store)
	require.Equal(t, 30*time.Minute, cfg.Token.AccessDuration)
	require.Equal(t, 30*24*time.Hour, cfg.Token.RefreshDuration)
	require.Equal(t, 10*time.Minute, cfg.Token.ResetPasswordDuration)
	require.Equal(t, 10*time.Minute, cfg.Token.VerifyEmailDuration)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "some-jwt-secret")
	t.Setenv("TOKEN_CODEC", "jwt")
	t.Setenv("TOKEN_STORE", "redis")
	t.Setenv("ACCESS_TOKEN_DURATION", "900")
	t.Setenv("APP_ENV", "prod")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, CodecJWT, cfg.Token.Codec)
	require.Equal(t, StoreRedis, cfg.Token.Store)
	require.Equal(t, 15*time.Minute, cfg.Token.AccessDuration)
	require.False(t, cfg.Server.IsDevelopment())
}

func TestTokenConfigValidation(t *testing.T) {
	t.Run("paseto requires a 32-byte secret", func(t *testing.T) {
		t.Setenv("TOKEN_CODEC", "paseto")
		t.Setenv("TOKEN_SECRET", "too-short")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("jwt requires a non-empty secret", func(t *testing.T) {
		t.Setenv("TOKEN_CODEC", "jwt")
		t.Setenv("TOKEN_SECRET", "")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("unknown codec", func(t *testing.T) {
		t.Setenv("TOKEN_CODEC", "biscuit")
		t.Setenv("TOKEN_SECRET", "0123456789abcdef0123456789abcdef")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("unknown store", func(t *testing.T) {
		t.Setenv("TOKEN_CODEC", "paseto")
		t.Setenv("TOKEN_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("TOKEN_STORE", "memcached")

		_, err := Load()
		require.Error(t, err)
	})
}

func TestConnectionString(t *testing.T) {
	t.Parallel()

	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     "5432",
		User:     "api",
		Password: "secret",
		DBName:   "goauthapi",
		SSLMode:  "require",
	}

	require.Equal(t,
		"host=db.internal port=5432 user=api password=secret dbname=goauthapi sslmode=require",
		cfg.ConnectionString(),
	)

	cfg.ChannelBinding = "require"
	require.Contains(t, cfg.ConnectionString(), "channel_binding=require")
}
