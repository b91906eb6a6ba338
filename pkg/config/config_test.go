package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alimgiray/prdash/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("FETCH_MAX_CONCURRENCY", "")
	t.Setenv("DASHBOARD_REPOS", "")

	require.NoError(t, Load())

	assert.Equal(t, "8080", AppConfig.Server.Port)
	assert.Equal(t, 8, AppConfig.Fetch.MaxConcurrency)
	assert.Equal(t, 30, AppConfig.Fetch.TimeoutSeconds)
	assert.Equal(t, "/logo192.png", AppConfig.Notification.IconURL)
	assert.Empty(t, AppConfig.Dashboard.Repos)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FETCH_MAX_CONCURRENCY", "not-a-number")
	t.Setenv("DASHBOARD_REPOS", " acme/widgets, ,acme/gadgets ")

	require.NoError(t, Load())

	assert.Equal(t, "9090", AppConfig.Server.Port)
	assert.Equal(t, 8, AppConfig.Fetch.MaxConcurrency, "invalid ints fall back to the default")
	assert.Equal(t, []string{"acme/widgets", "acme/gadgets"}, AppConfig.Dashboard.Repos)
}

func TestLoadDashboardFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("Partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(dir, "dashboard.yaml")
		content := "repos:\n  - acme/widgets\n  - acme/widgets\n  - acme/gadgets\nshow_me_only: true\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		settings, err := LoadDashboardFile(path)
		require.NoError(t, err)

		assert.Equal(t, []string{"acme/widgets", "acme/gadgets"}, settings.Repos)
		assert.True(t, settings.ShowMeOnly)
		assert.Equal(t, models.GroupingByRepo, settings.Grouping)
		assert.Equal(t, models.DefaultAutoRefreshSeconds, settings.AutoRefreshSeconds)
	})

	t.Run("Invalid grouping", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("grouping: team\n"), 0o600))

		_, err := LoadDashboardFile(path)
		assert.Error(t, err)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadDashboardFile(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestSeedSettings(t *testing.T) {
	t.Run("Nothing configured", func(t *testing.T) {
		cfg := &Config{}
		settings, err := cfg.SeedSettings()
		require.NoError(t, err)
		assert.Nil(t, settings)
	})

	t.Run("Repos from environment", func(t *testing.T) {
		cfg := &Config{Dashboard: DashboardConfig{Repos: []string{"acme/widgets"}}}
		settings, err := cfg.SeedSettings()
		require.NoError(t, err)
		require.NotNil(t, settings)
		assert.Equal(t, []string{"acme/widgets"}, settings.Repos)
		assert.Equal(t, models.GroupingByRepo, settings.Grouping)
	})
}
