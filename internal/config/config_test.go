package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/tithe/internal/common"
	"github.com/Veraticus/tithe/internal/sheets"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("TITHE_TEST_DIR", "/srv/ledger")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "church", "finance.db"), ExpandPath("~/church/finance.db"))
	assert.Equal(t, "/srv/ledger/finance.db", ExpandPath("$TITHE_TEST_DIR/finance.db"))
	assert.Equal(t, "relative.db", ExpandPath("relative.db"))
}

func TestDirectories_HonorXDG(t *testing.T) {
	data := t.TempDir()
	conf := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)
	t.Setenv("XDG_CONFIG_HOME", conf)

	assert.Equal(t, filepath.Join(data, AppName), DataDir())
	assert.Equal(t, filepath.Join(conf, AppName), ConfigDir())
	assert.Equal(t, filepath.Join(data, AppName, DefaultDatabaseFile), DefaultDatabasePath())
	assert.Equal(t, filepath.Join(data, AppName, "backups"), DefaultBackupDir())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TITHE_DOTENV_A=from-file\nTITHE_DOTENV_B=from-file\n"), 0600))

	t.Setenv("TITHE_DOTENV_B", "from-env")
	t.Setenv("TITHE_DOTENV_A", "")
	require.NoError(t, os.Unsetenv("TITHE_DOTENV_A"))

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("TITHE_DOTENV_A"))
	assert.Equal(t, "from-env", os.Getenv("TITHE_DOTENV_B"))
}

func clearSheetsEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
		"GOOGLE_SHEETS_SPREADSHEET_ID",
		"GOOGLE_SHEETS_SPREADSHEET_NAME",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadSheetsConfig(t *testing.T) {
	t.Run("viper wins over environment", func(t *testing.T) {
		clearSheetsEnv(t)
		t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "/env/key.json")
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "env-id")
		viper.Set("sheets.spreadsheet_id", "viper-id")

		cfg, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, "/env/key.json", cfg.ServiceAccountPath)
		assert.Equal(t, "viper-id", cfg.SpreadsheetID)
		assert.Equal(t, "교회 재정 보고", cfg.SpreadsheetName)
	})

	t.Run("oauth from environment", func(t *testing.T) {
		clearSheetsEnv(t)
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "client")
		t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "secret")
		t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "refresh")
		viper.Set("sheets.timezone", "UTC")

		cfg, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.True(t, cfg.HasOAuth())
		assert.Equal(t, "UTC", cfg.TimeZone)
	})

	t.Run("saved token supplies the refresh token", func(t *testing.T) {
		clearSheetsEnv(t)
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "client")
		t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "secret")

		tokenFile := filepath.Join(t.TempDir(), "token.json")
		viper.Set("sheets.token_file", tokenFile)
		require.NoError(t, saveTestToken(tokenFile, "saved-refresh"))

		cfg, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, "saved-refresh", cfg.RefreshToken)
	})

	t.Run("missing credentials", func(t *testing.T) {
		clearSheetsEnv(t)

		_, err := LoadSheetsConfig()
		assert.ErrorIs(t, err, common.ErrMissingConfig)
	})
}

func saveTestToken(path, refresh string) error {
	return sheets.SaveToken(path, &oauth2.Token{RefreshToken: refresh})
}
