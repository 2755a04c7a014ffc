package configs

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// clearEnv unsets every configuration variable, restoring it after the test.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"ENVIRONMENT",
		"PORT",
		"ALLOWED_ORIGINS",
		"TOKEN_SECRET",
		"HUB_MAX_CONNECTIONS",
		"HUB_STATS_INTERVAL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfig_DevelopmentDefaults(t *testing.T) {
	req := require.New(t)
	clearEnv(t)

	cfg, err := LoadConfig()
	req.NoError(err)
	req.Equal("development", cfg.Environment)
	req.Equal(8080, cfg.Port)
	req.Equal(0, cfg.MaxConnections)
	req.Equal(time.Minute, cfg.StatsInterval)
	req.NotEmpty(cfg.TokenSecret, "development falls back to an insecure default secret")
}

func TestLoadConfig_ProductionRequiresSecret(t *testing.T) {
	req := require.New(t)
	clearEnv(t)

	t.Setenv("ENVIRONMENT", "production")

	_, err := LoadConfig()
	req.Error(err)

	t.Setenv("TOKEN_SECRET", "a_real_secret")
	cfg, err := LoadConfig()
	req.NoError(err)
	req.Equal("a_real_secret", cfg.TokenSecret)
}

func TestLoadConfig_RejectsPrivilegedPort(t *testing.T) {
	req := require.New(t)
	clearEnv(t)

	t.Setenv("PORT", "80")

	_, err := LoadConfig()
	req.Error(err)
}

func TestLoadConfig_RejectsNegativeCapacity(t *testing.T) {
	req := require.New(t)
	clearEnv(t)

	t.Setenv("HUB_MAX_CONNECTIONS", "-1")

	_, err := LoadConfig()
	req.Error(err)
}

func TestLoadConfig_ParsesOriginsAndIntervals(t *testing.T) {
	req := require.New(t)
	clearEnv(t)

	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("HUB_STATS_INTERVAL", "30s")

	cfg, err := LoadConfig()
	req.NoError(err)
	req.Equal([]string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	req.Equal(30*time.Second, cfg.StatsInterval)
}
