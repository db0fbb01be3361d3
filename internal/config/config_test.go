package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8008", cfg.Server.Addr)
	require.Equal(t, "atlas.db", cfg.Database.Path)
	require.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
}

func TestLoad_AllowedOriginsFromEnv(t *testing.T) {
	t.Setenv("ATLAS_ALLOWED_ORIGINS", "https://app.example.com,https://admin.example.com")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.AllowedOrigins)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atlas.yaml")
	body := []byte("server:\n  addr: \":9000\"\ndatabase:\n  path: /tmp/x.db\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	t.Setenv("ATLAS_DB_PATH", "/tmp/override.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Server.Addr)
	require.Equal(t, "/tmp/override.db", cfg.Database.Path)
}

func TestLoad_MissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("ATLAS_ADDR", ":7000")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, ":7000", cfg.Server.Addr)
}

func TestLoad_SecureCookieNeedsRealSecret(t *testing.T) {
	t.Setenv("ATLAS_SECURE_COOKIE", "true")
	_, err := Load("")
	require.ErrorIs(t, err, ErrInsecureSecret)

	t.Setenv("JWT_SECRET", "a-real-deployment-secret")
	cfg, err := Load("")
	require.NoError(t, err)
	require.False(t, cfg.InsecureSecret())
}

func TestInsecureSecret(t *testing.T) {
	var cfg Config
	require.True(t, cfg.InsecureSecret())
	cfg.Auth.JWTSecret = DefaultJWTSecret
	require.True(t, cfg.InsecureSecret())
	require.NoError(t, cfg.Validate())

	cfg.Auth.SecureCookie = true
	require.ErrorIs(t, cfg.Validate(), ErrInsecureSecret)
}
