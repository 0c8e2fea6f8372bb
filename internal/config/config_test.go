package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault_StaticTables(t *testing.T) {
	cfg := Default()
	require.Equal(t, "GGAL", cfg.ADRMap["GGAL.BA"])
	require.NotEmpty(t, cfg.Markets["merval"])
	require.NotEmpty(t, cfg.Markets["sp500"])
	require.Equal(t, "sp500", cfg.DefaultMarket)
	require.Len(t, cfg.Indices, 3)
}

func TestMarketSymbols_UnknownFallsBackToDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, cfg.Markets["sp500"], cfg.MarketSymbols("ftse"))
	require.Equal(t, cfg.Markets["merval"], cfg.MarketSymbols("merval"))
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"port":"9090","request_timeout_sec":3,"log_level":"debug"}}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, 3, cfg.Server.RequestTimeoutSec)
	// untouched sections keep defaults
	require.Equal(t, "https://dolarapi.com/v1/dolares", cfg.DolarAPI.URL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("YAHOO_BASE_URL", "http://localhost:1234")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "7070", cfg.Server.Port)
	require.Equal(t, "http://localhost:1234", cfg.Yahoo.BaseURL)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Server.Port)
}
