package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func writeDotEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "./labquote.db", cfg.DBPath)
	assert.Equal(t, "", cfg.CatalogPath)
	assert.Equal(t, "dashboard", cfg.Profile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_ReadsDotEnvAndIgnoresNoise(t *testing.T) {
	clearEnv(t)

	path := writeDotEnv(t, `
# comment

PORT=9090
export DB_PATH=/tmp/lab.db
PRICING_PROFILE="console"
CATALOG_PATH='catalog with spaces.yaml'
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/tmp/lab.db", cfg.DBPath)
	assert.Equal(t, "console", cfg.Profile)
	assert.Equal(t, "catalog with spaces.yaml", cfg.CatalogPath)
}

func TestLoad_EnvironmentWinsOverDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("ENV", "production")

	path := writeDotEnv(t, "PORT=9090\nENV=development\n")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.False(t, cfg.IsDev())
}

func TestLoad_RejectsBadLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "loud")

	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Config{Port: "8080", Profile: "dashboard", LogLevel: "debug"}
	assert.NoError(t, cfg.Validate())

	cfg.Port = " "
	assert.Error(t, cfg.Validate())

	cfg.Port = "8080"
	cfg.Profile = ""
	assert.Error(t, cfg.Validate())
}
