package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, config.Http.Port)
	assert.Equal(t, "decision_tree", config.Model.Type)
	assert.Equal(t, "navy", config.UI.DefaultTheme)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
http:
  port: 9090
  timeout: 5s
model:
  type: logistic_regression
  path: /srv/models/lr.json
  watch: true
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("CEREBRO_DB_PATH", "/tmp/assessments.db")
	t.Setenv("CEREBRO_ALERT_WEBHOOK", "https://hooks.example/ops")

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, config.Http.Port)
	assert.Equal(t, 5*time.Second, config.Http.Timeout)
	assert.Equal(t, "logistic_regression", config.Model.Type)
	assert.True(t, config.Model.Watch)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "/tmp/assessments.db", config.Database.Path)
	assert.Equal(t, "https://hooks.example/ops", config.Alerts.WebhookURL)
	// untouched sections keep defaults
	assert.Equal(t, 1024, config.Session.Capacity)
	assert.Equal(t, []string{"*"}, config.Http.AllowedOrigins)
	assert.Equal(t, "error", config.Alerts.MinLevel)
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  port: 70000\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("http: [not, a, map"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)

	t.Setenv("CEREBRO_HTTP_PORT", "eighty")
	_, err = Load(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}
