package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alimgiray/prdash/internal/middleware"
	"github.com/alimgiray/prdash/internal/models"
	"github.com/alimgiray/prdash/internal/repositories"
	"github.com/alimgiray/prdash/internal/services"
	"github.com/alimgiray/prdash/pkg/database"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFetcher serves one open PR per repository awaiting bob's review
type stubFetcher struct{}

func (stubFetcher) ListOpenPullRequests(_ context.Context, owner, repo string) ([]models.PullRequest, error) {
	return []models.PullRequest{{
		RepoFullName:       owner + "/" + repo,
		Number:             7,
		Title:              "Tidy " + repo,
		URL:                "https://github.com/" + owner + "/" + repo + "/pull/7",
		AuthorLogin:        "carol",
		State:              models.PullRequestStateOpen,
		RequestedReviewers: []string{"bob"},
		UpdatedAt:          time.Now(),
	}}, nil
}

func (stubFetcher) ListReviews(context.Context, string, string, int) ([]models.Review, error) {
	return nil, nil
}

func (stubFetcher) ListCommits(context.Context, string, string, int) ([]models.Commit, error) {
	return models.NewCommits("c1", "c2"), nil
}

func (stubFetcher) ListComments(context.Context, string, string, int) ([]models.Comment, error) {
	return nil, nil
}

func (stubFetcher) GetAuthenticatedUser(context.Context) (string, error) {
	return "bob", nil
}

type staticWorkers map[string]bool

func (s staticWorkers) GetWorkerStatus() map[string]bool {
	return s
}

type handlerFixture struct {
	router        *gin.Engine
	settings      *services.SettingsService
	credentials   *services.CredentialService
	builder       *services.SnapshotBuilder
	dashboard     *services.DashboardService
	scheduler     *services.SchedulerService
	notifications *services.NotificationService
	refreshes     atomic.Int32
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	kvRepo := repositories.NewKVRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	factory := func(string) services.PullRequestFetcher { return stubFetcher{} }

	f := &handlerFixture{
		settings:    services.NewSettingsService(kvRepo),
		credentials: services.NewCredentialService(kvRepo),
		builder:     services.NewSnapshotBuilder(factory, 4, time.Second),
	}
	f.notifications = services.NewNotificationService(notificationRepo, services.NewStoreSink(notificationRepo), "/logo192.png")

	f.dashboard, err = services.NewDashboardService(f.settings, f.credentials, f.builder,
		services.NewNotificationDiffEngine(), factory, "/logo192.png", 16)
	require.NoError(t, err)
	t.Cleanup(f.dashboard.Close)

	f.scheduler, err = services.NewSchedulerService(func() { f.refreshes.Add(1) })
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.scheduler.Shutdown() })

	dashboardHandler := NewDashboardHandler(f.dashboard, services.NewExportService(), f.scheduler)
	settingsHandler := NewSettingsHandler(f.settings, f.credentials)
	notificationHandler := NewNotificationHandler(f.notifications)

	f.router = gin.New()
	f.router.GET("/health", NewHealthHandler(staticWorkers{"refresh-1": true}).HealthCheck)
	f.router.PUT("/api/token", settingsHandler.SetToken)
	f.router.DELETE("/api/token", settingsHandler.ClearToken)
	api := f.router.Group("/api")
	api.Use(middleware.AuthRequired(f.dashboard))
	{
		api.GET("/user", dashboardHandler.CurrentUser)
		api.GET("/prs", dashboardHandler.PullRequests)
		api.GET("/prs/export.xlsx", dashboardHandler.Export)
		api.POST("/refresh", dashboardHandler.Refresh)
		api.GET("/settings", settingsHandler.GetSettings)
		api.PUT("/settings", settingsHandler.UpdateSettings)
		api.GET("/notifications", notificationHandler.ListNotifications)
	}
	f.router.GET("/notifications/:id/open", notificationHandler.OpenNotification)
	f.router.NoRoute(NewNotFoundHandler().NotFound)

	return f
}

// authenticate stores a token and waits for a settled snapshot of repos
func (f *handlerFixture) authenticate(t *testing.T, repos ...string) {
	t.Helper()
	require.NoError(t, f.settings.Update(&models.DashboardSettings{Repos: repos, AutoRefreshSeconds: 60}))
	require.NoError(t, f.credentials.Set("token"))
	require.NoError(t, f.dashboard.Refresh(context.Background()))
	f.builder.Wait()
}

func (f *handlerFixture) do(method, path string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	f.router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do("GET", "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Status  string          `json:"status"`
		Workers map[string]bool `json:"workers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, map[string]bool{"refresh-1": true}, response.Workers)
}

func TestNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do("GET", "/nope", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not found","path":"/nope"}`, w.Body.String())
}

func TestAPIRequiresCredential(t *testing.T) {
	f := newHandlerFixture(t)

	for _, path := range []string{"/api/user", "/api/prs", "/api/settings", "/api/notifications"} {
		w := f.do("GET", path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.JSONEq(t, `{"error":"not authenticated"}`, w.Body.String(), path)
	}
}

func TestCurrentUser(t *testing.T) {
	f := newHandlerFixture(t)
	f.authenticate(t, "acme/widgets")

	w := f.do("GET", "/api/user", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"login":"bob"}`, w.Body.String())
}

func TestPullRequests(t *testing.T) {
	f := newHandlerFixture(t)
	f.authenticate(t, "acme/widgets", "acme/gadgets")

	t.Run("Grouped by repository", func(t *testing.T) {
		w := f.do("GET", "/api/prs", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Settled bool                    `json:"settled"`
			Loading int                     `json:"loading"`
			Groups  []services.GroupSummary `json:"groups"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.Settled)
		assert.Zero(t, response.Loading)
		require.Len(t, response.Groups, 2)
		assert.Equal(t, "acme/gadgets", response.Groups[0].Label)
		assert.Equal(t, "acme/widgets", response.Groups[1].Label)

		pr := response.Groups[1].PullRequests[0]
		assert.Equal(t, 7, pr.Number)
		assert.Equal(t, models.LoadStatusReady, pr.Status)
		assert.Equal(t, []string{"bob"}, pr.PendingReviewers)
		assert.Equal(t, 2, pr.Commits)
	})

	t.Run("Grouped by reviewer", func(t *testing.T) {
		w := f.do("GET", "/api/prs?grouping=reviewer&show_me_only=true", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Groups []services.GroupSummary `json:"groups"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Groups, 1)
		assert.Equal(t, "bob", response.Groups[0].Label)
		assert.Len(t, response.Groups[0].PullRequests, 2)
	})

	t.Run("Invalid options", func(t *testing.T) {
		for _, query := range []string{"?grouping=team", "?show_me_only=maybe"} {
			w := f.do("GET", "/api/prs"+query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, query)
		}
	})
}

func TestExport(t *testing.T) {
	f := newHandlerFixture(t)
	f.authenticate(t, "acme/widgets")

	w := f.do("GET", "/api/prs/export.xlsx", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, exportContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "pull-requests.xlsx")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx files are zip archives")
}

func TestRefresh(t *testing.T) {
	f := newHandlerFixture(t)
	f.authenticate(t, "acme/widgets")
	require.NoError(t, f.scheduler.Start(0))
	require.Eventually(t, func() bool { return f.refreshes.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	w := f.do("POST", "/api/refresh", nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Eventually(t, func() bool { return f.refreshes.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestSettings(t *testing.T) {
	f := newHandlerFixture(t)
	f.authenticate(t, "acme/widgets")

	t.Run("Get", func(t *testing.T) {
		w := f.do("GET", "/api/settings", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var settings models.DashboardSettings
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
		assert.Equal(t, []string{"acme/widgets"}, settings.Repos)
		assert.Equal(t, 60, settings.AutoRefreshSeconds)
	})

	t.Run("Update normalizes repositories", func(t *testing.T) {
		body := []byte(`{"repos":[" acme/widgets ","acme/widgets","acme/gadgets"],"grouping":"assigned","autoRefreshSeconds":0}`)
		w := f.do("PUT", "/api/settings", body)
		require.Equal(t, http.StatusOK, w.Code)

		saved, err := f.settings.Get()
		require.NoError(t, err)
		assert.Equal(t, []string{"acme/widgets", "acme/gadgets"}, saved.Repos)
		assert.Equal(t, models.GroupingByAssignee, saved.Grouping)
		assert.Zero(t, saved.AutoRefreshSeconds)
	})

	t.Run("Update rejects invalid settings", func(t *testing.T) {
		testCases := []struct {
			name  string
			body  string
			field string
		}{
			{"Unknown grouping", `{"grouping":"team"}`, "grouping"},
			{"Negative interval", `{"autoRefreshSeconds":-5}`, "autoRefreshSeconds"},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				w := f.do("PUT", "/api/settings", []byte(tc.body))
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Contains(t, w.Body.String(), `"field":"`+tc.field+`"`)
			})
		}
	})

	t.Run("Malformed body", func(t *testing.T) {
		w := f.do("PUT", "/api/settings", []byte(`{"repos":`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestToken(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do("PUT", "/api/token", []byte(`{"token":"  "}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do("PUT", "/api/token", []byte(`{"token":"ghp_secret"}`))
	assert.Equal(t, http.StatusNoContent, w.Code)
	token, err := f.credentials.Get()
	require.NoError(t, err)
	assert.Equal(t, "ghp_secret", token)
	assert.True(t, f.dashboard.IsAuthenticated())

	w = f.do("DELETE", "/api/token", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, f.dashboard.IsAuthenticated())
}

func TestNotifications(t *testing.T) {
	f := newHandlerFixture(t)
	f.authenticate(t, "acme/widgets")

	notification, err := f.notifications.Deliver(context.Background(), models.NotificationEvent{
		Category: models.NotificationCategoryReadyForReview,
		Key:      "ready:acme/widgets#7",
		Title:    "PR ready",
		Body:     "Tidy widgets is ready for review",
		ClickURL: "https://github.com/acme/widgets/pull/7",
	})
	require.NoError(t, err)

	t.Run("List", func(t *testing.T) {
		w := f.do("GET", "/api/notifications?limit=5", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Notifications []models.Notification `json:"notifications"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Notifications, 1)
		assert.Equal(t, notification.ID, response.Notifications[0].ID)
		assert.Equal(t, "/logo192.png", response.Notifications[0].IconURL)
	})

	t.Run("Invalid limit", func(t *testing.T) {
		w := f.do("GET", "/api/notifications?limit=ten", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Open redirects and marks clicked", func(t *testing.T) {
		w := f.do("GET", "/notifications/"+notification.ID+"/open", nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://github.com/acme/widgets/pull/7", w.Header().Get("Location"))

		recent, err := f.notifications.GetRecent(1)
		require.NoError(t, err)
		assert.True(t, recent[0].IsClicked())
	})

	t.Run("Open unknown", func(t *testing.T) {
		w := f.do("GET", "/notifications/missing/open", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
