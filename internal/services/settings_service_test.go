package services

import (
	"context"
	"testing"

	"github.com/alimgiray/prdash/internal/models"
	"github.com/alimgiray/prdash/internal/repositories"
	"github.com/alimgiray/prdash/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKVRepository(t *testing.T) *repositories.KVRepository {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repositories.NewKVRepository(db)
}

func TestSettingsService(t *testing.T) {
	service := NewSettingsService(newTestKVRepository(t))

	t.Run("Defaults when nothing is stored", func(t *testing.T) {
		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, models.DefaultDashboardSettings(), settings)
	})

	t.Run("Invalid settings are rejected", func(t *testing.T) {
		err := service.Update(&models.DashboardSettings{Grouping: "team"})
		var validationErr *models.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "grouping", validationErr.Field)
	})

	t.Run("Update notifies listeners", func(t *testing.T) {
		var previous, current *models.DashboardSettings
		service.OnChange(func(p, c *models.DashboardSettings) {
			previous, current = p, c
		})

		require.NoError(t, service.Update(&models.DashboardSettings{
			Repos:                []string{" acme/widgets ", "acme/widgets", ""},
			Grouping:             models.GroupingByReviewer,
			AutoRefreshSeconds:   0,
			NotificationsEnabled: true,
		}))

		require.NotNil(t, current)
		assert.Empty(t, previous.Repos)
		assert.Equal(t, []string{"acme/widgets"}, current.Repos)

		stored, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, current, stored)
		assert.Zero(t, stored.AutoRefreshSeconds, "zero disables auto refresh")
	})

	t.Run("Seed does not overwrite", func(t *testing.T) {
		seeded, err := service.Seed(&models.DashboardSettings{Repos: []string{"acme/gadgets"}})
		require.NoError(t, err)
		assert.False(t, seeded)

		stored, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, []string{"acme/widgets"}, stored.Repos)
	})
}

func TestSettingsServiceSeed(t *testing.T) {
	service := NewSettingsService(newTestKVRepository(t))

	seeded, err := service.Seed(&models.DashboardSettings{Repos: []string{"acme/gadgets"}, AutoRefreshSeconds: 60})
	require.NoError(t, err)
	assert.True(t, seeded)

	stored, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, []string{"acme/gadgets"}, stored.Repos)
	assert.Equal(t, models.GroupingByRepo, stored.Grouping)
	assert.Equal(t, 60, stored.AutoRefreshSeconds)
}

func TestCredentialService(t *testing.T) {
	service := NewCredentialService(newTestKVRepository(t))

	var changes []string
	service.OnChange(func(token string) { changes = append(changes, token) })

	token, err := service.Get()
	require.NoError(t, err)
	assert.Empty(t, token)

	seeded, err := service.Seed("  env-token ")
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = service.Seed("other")
	require.NoError(t, err)
	assert.False(t, seeded)

	token, err = service.Get()
	require.NoError(t, err)
	assert.Equal(t, "env-token", token)

	var validationErr *models.ValidationError
	assert.ErrorAs(t, service.Set("   "), &validationErr)

	require.NoError(t, service.Set("new-token"))
	require.NoError(t, service.Clear())

	token, err = service.Get()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Equal(t, []string{"new-token", ""}, changes, "seeding does not notify")
}

func TestNotificationService(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repositories.NewNotificationRepository(db)
	service := NewNotificationService(repo, MultiSink{LogSink{}, NewStoreSink(repo)}, "/logo192.png")

	delivered, err := service.Deliver(context.Background(), models.NotificationEvent{
		Category: models.NotificationCategoryReview,
		Key:      "review:1",
		Title:    "APPROVED",
		Body:     "alice reviewed",
		ClickURL: "https://github.com/acme/widgets/pull/7#pullrequestreview-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "/logo192.png", delivered.IconURL)
	assert.NotEmpty(t, delivered.ID)

	recent, err := service.GetRecent(0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, delivered.ID, recent[0].ID)
	assert.False(t, recent[0].IsClicked())

	opened, err := service.Open(delivered.ID)
	require.NoError(t, err)
	assert.True(t, opened.IsClicked())
	assert.Equal(t, delivered.ClickURL, opened.ClickURL)

	_, err = service.Open("missing")
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}
