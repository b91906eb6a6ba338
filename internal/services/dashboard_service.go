package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/alimgiray/prdash/internal/models"
	"github.com/alimgiray/prdash/pkg/logger"
)

// GroupOptions overrides the saved grouping settings for one request
type GroupOptions struct {
	Grouping   *models.GroupingMode
	ShowMeOnly *bool
}

// DashboardService connects the stores, the snapshot builder and the diff
// engine. Diff events are queued on Events for delivery.
type DashboardService struct {
	settingsService   *SettingsService
	credentialService *CredentialService
	builder           *SnapshotBuilder
	engine            *NotificationDiffEngine
	newFetcher        FetcherFactory
	iconURL           string

	ctx    context.Context
	cancel context.CancelFunc
	events chan models.NotificationEvent

	mu         sync.Mutex
	settings   *models.DashboardSettings
	login      string
	loginToken string
}

func NewDashboardService(
	settingsService *SettingsService,
	credentialService *CredentialService,
	builder *SnapshotBuilder,
	engine *NotificationDiffEngine,
	newFetcher FetcherFactory,
	iconURL string,
	queueSize int,
) (*DashboardService, error) {
	settings, err := settingsService.Get()
	if err != nil {
		return nil, err
	}
	if queueSize <= 0 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &DashboardService{
		settingsService:   settingsService,
		credentialService: credentialService,
		builder:           builder,
		engine:            engine,
		newFetcher:        newFetcher,
		iconURL:           iconURL,
		ctx:               ctx,
		cancel:            cancel,
		events:            make(chan models.NotificationEvent, queueSize),
		settings:          settings,
	}

	builder.Subscribe(d.onSnapshot)
	settingsService.OnChange(d.onSettingsChange)
	credentialService.OnChange(d.onCredentialChange)

	return d, nil
}

// Events returns the queue of notification events found by the diff engine
func (d *DashboardService) Events() <-chan models.NotificationEvent {
	return d.events
}

// Settings returns the settings the dashboard currently runs with
func (d *DashboardService) Settings() *models.DashboardSettings {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settings.Clone()
}

// Refresh starts a new refresh of every configured repository. It returns
// ErrNotAuthenticated when there is no usable credential.
func (d *DashboardService) Refresh(ctx context.Context) error {
	settings := d.Settings()

	token, err := d.credentialService.Get()
	if err != nil {
		return err
	}
	if token == "" {
		d.builder.Invalidate(settings.Repos)
		return ErrNotAuthenticated
	}

	if _, err := d.currentUser(ctx, token); err != nil {
		if IsAuthFailure(err) {
			d.builder.Invalidate(settings.Repos)
			return fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
		}
		logger.WithError(err).Warn("Failed to resolve the current user, notifications are paused")
	}

	d.builder.Refresh(d.ctx, settings.Repos, token, RefreshOptions{
		FetchComments: settings.NotificationsEnabled && settings.NotifyForComments,
	})
	return nil
}

// CurrentUser returns the login of the stored credential
func (d *DashboardService) CurrentUser(ctx context.Context) (string, error) {
	token, err := d.credentialService.Get()
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNotAuthenticated
	}

	login, err := d.currentUser(ctx, token)
	if IsAuthFailure(err) {
		return "", fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	return login, err
}

// currentUser resolves the login for token once and caches it
func (d *DashboardService) currentUser(ctx context.Context, token string) (string, error) {
	d.mu.Lock()
	if d.loginToken == token && d.login != "" {
		login := d.login
		d.mu.Unlock()
		return login, nil
	}
	d.mu.Unlock()

	login, err := d.newFetcher(token).GetAuthenticatedUser(ctx)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	d.login = login
	d.loginToken = token
	d.mu.Unlock()

	logger.WithField("login", login).Info("Resolved current user")
	return login, nil
}

// IsAuthenticated checks if a credential is stored and was not rejected
func (d *DashboardService) IsAuthenticated() bool {
	token, err := d.credentialService.Get()
	if err != nil || token == "" {
		return false
	}
	return !d.builder.Snapshot().Unauthenticated
}

// Snapshot returns a copy of the current snapshot
func (d *DashboardService) Snapshot() models.Snapshot {
	return d.builder.Snapshot()
}

// Groups groups the current snapshot using the saved settings and opts
func (d *DashboardService) Groups(opts GroupOptions) ([]models.PRGroup, models.Snapshot, error) {
	snap := d.builder.Snapshot()
	if snap.Unauthenticated {
		return nil, snap, ErrNotAuthenticated
	}

	settings := d.Settings()
	grouping := settings.Grouping
	if opts.Grouping != nil {
		grouping = *opts.Grouping
	}
	showMeOnly := settings.ShowMeOnly
	if opts.ShowMeOnly != nil {
		showMeOnly = *opts.ShowMeOnly
	}

	return Group(snap.Flatten(), grouping, d.cachedLogin(), showMeOnly), snap, nil
}

// Close cancels running fetches
func (d *DashboardService) Close() {
	d.cancel()
	d.builder.Stop()
}

func (d *DashboardService) cachedLogin() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.login
}

func (d *DashboardService) onSnapshot(snap models.Snapshot) {
	d.mu.Lock()
	opts := DiffOptions{
		Login:                d.login,
		NotificationsEnabled: d.settings.NotificationsEnabled,
		NotifyForComments:    d.settings.NotifyForComments,
		IconURL:              d.iconURL,
	}
	d.mu.Unlock()

	for _, event := range d.engine.Observe(snap, opts) {
		select {
		case d.events <- event:
		default:
			logger.WithField("key", event.Key).Warn("Notification queue is full, dropping event")
		}
	}
}

func (d *DashboardService) onSettingsChange(_, current *models.DashboardSettings) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.settings = current.Clone()
}

func (d *DashboardService) onCredentialChange(string) {
	d.mu.Lock()
	d.login = ""
	d.loginToken = ""
	d.mu.Unlock()

	d.engine.Reset()
}
