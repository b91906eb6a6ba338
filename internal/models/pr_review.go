package models

import (
	"time"
)

// ReviewStatus is the verdict recorded by a review
type ReviewStatus string

const (
	ReviewStatusApproved         ReviewStatus = "APPROVED"
	ReviewStatusChangesRequested ReviewStatus = "CHANGES_REQUESTED"
	ReviewStatusCommented        ReviewStatus = "COMMENTED"
	ReviewStatusDismissed        ReviewStatus = "DISMISSED"
	ReviewStatusPending          ReviewStatus = "PENDING"
)

// Review represents a GitHub pull request review
type Review struct {
	ID                int64        `json:"id"`
	ReviewerLogin     string       `json:"reviewer_login"`
	ReviewerAvatarURL string       `json:"reviewer_avatar_url"`
	State             ReviewStatus `json:"state"`
	SubmittedAt       time.Time    `json:"submitted_at"`
	CommitID          string       `json:"commit_id"`
	Body              *string      `json:"body"`
	HTMLURL           string       `json:"html_url"`
}

// BodyText returns the review body or an empty string
func (r *Review) BodyText() string {
	if r.Body == nil {
		return ""
	}
	return *r.Body
}

// ReviewState maps a reviewer login to that reviewer's most recent review
type ReviewState map[string]Review

// Logins returns the reviewer logins present in the state
func (s ReviewState) Logins() []string {
	logins := make([]string, 0, len(s))
	for login := range s {
		logins = append(logins, login)
	}
	return logins
}

// HasChangesRequested checks if any current review requests changes
func (s ReviewState) HasChangesRequested() bool {
	for _, review := range s {
		if review.State == ReviewStatusChangesRequested {
			return true
		}
	}
	return false
}

// Clone returns a copy of the state
func (s ReviewState) Clone() ReviewState {
	if s == nil {
		return nil
	}
	out := make(ReviewState, len(s))
	for login, review := range s {
		if review.Body != nil {
			body := *review.Body
			review.Body = &body
		}
		out[login] = review
	}
	return out
}
