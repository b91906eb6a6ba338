package models

import (
	"strings"
)

// DefaultAutoRefreshSeconds is the polling interval used when nothing is configured
const DefaultAutoRefreshSeconds = 300

// DashboardSettings is the persisted configuration record of the dashboard
type DashboardSettings struct {
	Repos                []string     `json:"repos" yaml:"repos"`
	Grouping             GroupingMode `json:"grouping" yaml:"grouping"`
	AutoRefreshSeconds   int          `json:"autoRefreshSeconds" yaml:"auto_refresh_seconds"`
	ShowMeOnly           bool         `json:"showMeOnly" yaml:"show_me_only"`
	NotificationsEnabled bool         `json:"notificationsEnabled" yaml:"notifications_enabled"`
	NotifyForComments    bool         `json:"notifyForComments" yaml:"notify_for_comments"`
}

// DefaultDashboardSettings returns the settings used before anything is saved
func DefaultDashboardSettings() *DashboardSettings {
	return &DashboardSettings{
		Repos:              []string{},
		Grouping:           GroupingByRepo,
		AutoRefreshSeconds: DefaultAutoRefreshSeconds,
	}
}

// Normalize trims repository names and drops blank and duplicate entries
func (s *DashboardSettings) Normalize() {
	seen := make(map[string]bool, len(s.Repos))
	repos := make([]string, 0, len(s.Repos))
	for _, repo := range s.Repos {
		repo = strings.TrimSpace(repo)
		if repo == "" || seen[repo] {
			continue
		}
		seen[repo] = true
		repos = append(repos, repo)
	}
	s.Repos = repos
	if s.Grouping == "" {
		s.Grouping = GroupingByRepo
	}
}

// Validate validates the DashboardSettings fields
func (s *DashboardSettings) Validate() error {
	if !s.Grouping.IsValid() {
		return &ValidationError{Field: "grouping", Message: "Grouping must be one of repo, assigned, reviewer"}
	}
	if s.AutoRefreshSeconds < 0 {
		return &ValidationError{Field: "autoRefreshSeconds", Message: "Auto refresh must be zero or a positive number of seconds"}
	}
	return nil
}

// Clone returns a copy of the settings
func (s *DashboardSettings) Clone() *DashboardSettings {
	out := *s
	out.Repos = append([]string{}, s.Repos...)
	return &out
}

// ReposEqual checks if both settings track the same repositories in the same order
func (s *DashboardSettings) ReposEqual(other *DashboardSettings) bool {
	if len(s.Repos) != len(other.Repos) {
		return false
	}
	for i := range s.Repos {
		if s.Repos[i] != other.Repos[i] {
			return false
		}
	}
	return true
}

// ValidationError reports an invalid field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
