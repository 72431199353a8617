package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gobasket/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BASKET_CONFIG", "")
	t.Setenv("BASKET_FILE", "receipts.csv")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", config.Server.Port)
	assert.Equal(t, "receipts.csv", config.Data.File)
	assert.Equal(t, 0.01, config.Analysis.MinSupport)
	assert.Equal(t, "lift", config.Analysis.SortBy)
	assert.Equal(t, 10, config.Analysis.TopK)
	assert.False(t, config.Database.Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BASKET_CONFIG", "")
	t.Setenv("BASKET_FILE", "receipts.xlsx")
	t.Setenv("PORT", "9090")
	t.Setenv("MIN_SUPPORT", "0.05")
	t.Setenv("SORT_BY", "Conviction")
	t.Setenv("MINE_TIMEOUT", "30s")
	t.Setenv("DATABASE_URL", "file:runs.db")
	t.Setenv("DATABASE_DRIVER", "sqlite3")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", config.Server.Port)
	assert.Equal(t, 0.05, config.Analysis.MinSupport)
	assert.Equal(t, "conviction", config.Analysis.SortBy)
	assert.Equal(t, 30*time.Second, config.Analysis.MineTimeout)
	assert.True(t, config.Database.Enabled())
	assert.Equal(t, "sqlite3", config.Database.Driver)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basket.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data:
  file: pos.csv
  columns: item=sku,brand=Brand
analysis:
  min_support: 0.2
  top_k: 3
`), 0o644))
	t.Setenv("BASKET_CONFIG", path)
	t.Setenv("TOP_K", "5")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "pos.csv", config.Data.File)
	assert.Equal(t, "item=sku,brand=Brand", config.Data.Columns)
	assert.Equal(t, 0.2, config.Analysis.MinSupport)
	assert.Equal(t, 5, config.Analysis.TopK, "environment wins over the file")
	assert.Equal(t, 0.2, config.Analysis.MinConfidence, "unset keys keep defaults")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "no source", env: map[string]string{}, want: "File is required when APIURL is not set"},
		{name: "support above one", env: map[string]string{"BASKET_FILE": "a.csv", "MIN_SUPPORT": "1.5"}, want: "MinSupport must be at most 1"},
		{name: "unknown metric", env: map[string]string{"BASKET_FILE": "a.csv", "SORT_BY": "chi2"}, want: "SortBy must be one of"},
		{name: "api without fields", env: map[string]string{"BASKET_API_URL": "http://pos.local/receipts"}, want: "APIFields is required"},
		{name: "bad driver", env: map[string]string{"BASKET_FILE": "a.csv", "DATABASE_DRIVER": "mysql"}, want: "Driver must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BASKET_CONFIG", "")
			for _, key := range []string{"BASKET_FILE", "BASKET_API_URL", "MIN_SUPPORT", "SORT_BY", "DATABASE_DRIVER"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("BASKET_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.ErrorContains(t, err, "failed to load configuration file")
}
