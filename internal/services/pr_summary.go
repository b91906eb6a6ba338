package services

import (
	"sort"
	"time"

	"github.com/alimgiray/prdash/internal/models"
)

// ReviewSummary is a reviewer's current verdict as shown on the dashboard
type ReviewSummary struct {
	Login       string              `json:"login"`
	AvatarURL   string              `json:"avatar_url"`
	State       models.ReviewStatus `json:"state"`
	SubmittedAt time.Time           `json:"submitted_at"`
	URL         string              `json:"url"`
	// NewCommits counts commits pushed after the reviewed one
	NewCommits int `json:"new_commits"`
}

// PRSummary is the display form of a snapshot entry
type PRSummary struct {
	Repo             string            `json:"repo"`
	Number           int               `json:"number"`
	Title            string            `json:"title"`
	URL              string            `json:"url"`
	Author           string            `json:"author"`
	AuthorAvatarURL  string            `json:"author_avatar_url"`
	Assignee         string            `json:"assignee,omitempty"`
	Draft            bool              `json:"draft"`
	UpdatedAt        time.Time         `json:"updated_at"`
	Status           models.LoadStatus `json:"status"`
	Error            string            `json:"error,omitempty"`
	Reviews          []ReviewSummary   `json:"reviews"`
	PendingReviewers []string          `json:"pending_reviewers"`
	Commits          int               `json:"commits"`
	Comments         int               `json:"comments"`
}

// GroupSummary is a labeled list of summaries
type GroupSummary struct {
	Label        string      `json:"label"`
	PullRequests []PRSummary `json:"pull_requests"`
}

// Summarize builds the display form of d. Reviews are ordered by submission,
// then by login.
func Summarize(d models.PrData) PRSummary {
	summary := PRSummary{
		Repo:             d.PR.RepoFullName,
		Number:           d.PR.Number,
		Title:            d.PR.Title,
		URL:              d.PR.URL,
		Author:           d.PR.AuthorLogin,
		AuthorAvatarURL:  d.PR.AuthorAvatarURL,
		Draft:            d.PR.Draft,
		UpdatedAt:        d.PR.UpdatedAt,
		Status:           d.Status,
		Error:            d.Error,
		Reviews:          []ReviewSummary{},
		PendingReviewers: []string{},
	}
	if d.PR.AssigneeLogin != nil {
		summary.Assignee = *d.PR.AssigneeLogin
	}

	if !d.IsReady() {
		return summary
	}

	for _, review := range d.Reviews {
		review := review
		summary.Reviews = append(summary.Reviews, ReviewSummary{
			Login:       review.ReviewerLogin,
			AvatarURL:   review.ReviewerAvatarURL,
			State:       review.State,
			SubmittedAt: review.SubmittedAt,
			URL:         review.HTMLURL,
			NewCommits:  NewCommitsSinceReview(&review, d.Commits),
		})
	}
	sort.SliceStable(summary.Reviews, func(i, j int) bool {
		a, b := summary.Reviews[i], summary.Reviews[j]
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return a.Login < b.Login
	})

	summary.PendingReviewers = PendingReviewers(&d.PR, d.Reviews)
	summary.Commits = len(d.Commits)
	summary.Comments = len(d.Comments)
	return summary
}

// SummarizeGroups converts grouped entries to their display form
func SummarizeGroups(groups []models.PRGroup) []GroupSummary {
	out := make([]GroupSummary, 0, len(groups))
	for _, group := range groups {
		summaries := make([]PRSummary, 0, len(group.Data))
		for _, d := range group.Data {
			summaries = append(summaries, Summarize(d))
		}
		out = append(out, GroupSummary{Label: group.Label, PullRequests: summaries})
	}
	return out
}

// CountByState counts current reviews with state
func (s PRSummary) CountByState(state models.ReviewStatus) int {
	count := 0
	for _, review := range s.Reviews {
		if review.State == state {
			count++
		}
	}
	return count
}
