package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "trainplan", cfg.Database.Name)
	assert.Equal(t, "program_days", cfg.Database.Collections.ProgramDays)
	assert.Equal(t, "set_logs", cfg.Database.Collections.SetLogs)
	assert.Equal(t, 3, cfg.Writer.Concurrency)
	assert.Equal(t, 6, cfg.Writer.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Writer.BaseDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.Writer.MaxJitter)
	assert.Equal(t, 20, cfg.Writer.PaceEvery)
	assert.Equal(t, 200*time.Millisecond, cfg.Writer.PacePause)
	assert.Equal(t, 10*time.Second, cfg.Writer.RequestTimeout)
	assert.Equal(t, 15*time.Minute, cfg.S3.URLExpiry)
	assert.Equal(t, "info", cfg.Log.Params().Level)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  address: ":9090"
database:
  name: plans
  collections:
    program_days: days_v2
writer:
  concurrency: 5
  base_delay: 250ms
  pace_every: 10
jwt:
  secret: from-file
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("S3_BUCKET_NAME=exports\n"), 0o600))
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("WRITER_MAX_ATTEMPTS", "8")
	t.Cleanup(func() { os.Unsetenv("S3_BUCKET_NAME") })

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "plans", cfg.Database.Name)
	assert.Equal(t, "days_v2", cfg.Database.Collections.ProgramDays)
	assert.Equal(t, "programs", cfg.Database.Collections.Programs)
	assert.Equal(t, 5, cfg.Writer.Concurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.Writer.BaseDelay)
	assert.Equal(t, 10, cfg.Writer.PaceEvery)
	assert.Equal(t, 8, cfg.Writer.MaxAttempts)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "exports", cfg.S3.BucketName)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o600))
	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
