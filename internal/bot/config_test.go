package bot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validConfig = `
telegram:
  token: "123:abc"
  admin_id: 42
  run_mode: longpoll
database:
  host: localhost
  port: "5432"
  user: u
  password: p
  name: leavebot
  sslmode: disable
report:
  font_path: assets/DejaVuSans.ttf
`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Core.Telegram.AdminID)
	assert.Equal(t, "leavebot", cfg.Database.Name)
	assert.Equal(t, "assets/DejaVuSans.ttf", cfg.Report.FontPath)
	assert.Same(t, &cfg.Core, cfg.CoreConfig())
}

func TestLoadConfigRequiresFontPath(t *testing.T) {
	body := `
telegram:
  token: "123:abc"
  admin_id: 42
`
	_, err := LoadConfig(writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "font_path")
}

func TestLoadConfigRequiresReviewer(t *testing.T) {
	body := `
telegram:
  token: "123:abc"
report:
  font_path: f.ttf
`
	_, err := LoadConfig(writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin_id")
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("REPORT_FONT_PATH", "/fonts/custom.ttf")

	cfg, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)
	assert.Equal(t, "/fonts/custom.ttf", cfg.Report.FontPath)
}
