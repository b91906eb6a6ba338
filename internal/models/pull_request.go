package models

import (
	"fmt"
	"time"
)

const (
	PullRequestStateOpen   = "open"
	PullRequestStateClosed = "closed"
)

// PRKey identifies a pull request across all tracked repositories
type PRKey struct {
	RepoFullName string `json:"repo_full_name"`
	Number       int    `json:"number"`
}

func (k PRKey) String() string {
	return fmt.Sprintf("%s#%d", k.RepoFullName, k.Number)
}

// PullRequest represents an open GitHub pull request as shown on the dashboard
type PullRequest struct {
	RepoFullName       string     `json:"repo_full_name"`
	Number             int        `json:"number"`
	Title              string     `json:"title"`
	URL                string     `json:"url"`
	AuthorLogin        string     `json:"author_login"`
	AuthorAvatarURL    string     `json:"author_avatar_url"`
	AssigneeLogin      *string    `json:"assignee_login"`
	Draft              bool       `json:"draft"`
	State              string     `json:"state"`
	MergedAt           *time.Time `json:"merged_at"`
	RequestedReviewers []string   `json:"requested_reviewers"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Key returns the identity of the pull request
func (pr *PullRequest) Key() PRKey {
	return PRKey{RepoFullName: pr.RepoFullName, Number: pr.Number}
}

// OwnerLogin returns the assignee login, falling back to the author
func (pr *PullRequest) OwnerLogin() string {
	if pr.AssigneeLogin != nil && *pr.AssigneeLogin != "" {
		return *pr.AssigneeLogin
	}
	return pr.AuthorLogin
}

// IsOpen checks if the pull request is open
func (pr *PullRequest) IsOpen() bool {
	return pr.State == PullRequestStateOpen
}

// IsMerged checks if the pull request has been merged
func (pr *PullRequest) IsMerged() bool {
	return pr.MergedAt != nil
}

// IsReviewerRequested checks if login is among the requested reviewers
func (pr *PullRequest) IsReviewerRequested(login string) bool {
	for _, reviewer := range pr.RequestedReviewers {
		if reviewer == login {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the pull request
func (pr PullRequest) Clone() PullRequest {
	if pr.AssigneeLogin != nil {
		assignee := *pr.AssigneeLogin
		pr.AssigneeLogin = &assignee
	}
	if pr.MergedAt != nil {
		mergedAt := *pr.MergedAt
		pr.MergedAt = &mergedAt
	}
	if pr.RequestedReviewers != nil {
		reviewers := make([]string, len(pr.RequestedReviewers))
		copy(reviewers, pr.RequestedReviewers)
		pr.RequestedReviewers = reviewers
	}
	return pr
}
