package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 4, cfg.Sync.ApplyConcurrency)
	assert.Equal(t, 5*time.Minute, cfg.Sync.RunTimeout)
	assert.True(t, cfg.Sync.RecordMutations)
	assert.Equal(t, "noop", cfg.Mailer.Provider)
	assert.Equal(t, cfg.Store.AWSRegion, cfg.Mailer.SESRegion)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessionwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
store:
  driver: dynamodb
  dynamodb_table: from-file
source:
  url: https://portal.example.com/sessions
mailer:
  provider: ses
  recipients: [ops@example.com]
sync:
  apply_concurrency: 8
  run_timeout: 90s
`), 0o600))

	t.Setenv("GO_ENV", "production")
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DYNAMODB_TABLE", "from-env")
	t.Setenv("NOTIFY_RECIPIENTS", "a@example.com, b@example.com,")
	t.Setenv("STRICT_VALIDATION", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "dynamodb", cfg.Store.Driver)
	assert.Equal(t, "from-env", cfg.Store.DynamoDBTable)
	assert.Equal(t, "https://portal.example.com/sessions", cfg.Source.URL)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Mailer.Recipients)
	assert.Equal(t, 8, cfg.Sync.ApplyConcurrency)
	assert.Equal(t, 90*time.Second, cfg.Sync.RunTimeout)
	assert.True(t, cfg.Sync.StrictValidation)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing config file", env: map[string]string{"CONFIG_FILE": filepath.Join(t.TempDir(), "nope.yaml")}},
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "sqlite"}},
		{name: "bad concurrency", env: map[string]string{"APPLY_CONCURRENCY": "many"}},
		{name: "bad timeout", env: map[string]string{"RUN_TIMEOUT": "soon"}},
		{name: "bad bool", env: map[string]string{"RECORD_MUTATIONS": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GO_ENV", "production")
			t.Setenv("CONFIG_FILE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "production", "warn")
	logger.Info("hidden")
	logger.Warn("shown", "session_id", "A")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "A", line["session_id"])

	buf.Reset()
	newLogger(&buf, "development", "").Debug("hidden")
	assert.Empty(t, buf.String())
}
