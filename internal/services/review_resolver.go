package services

import (
	"github.com/alimgiray/prdash/internal/models"
)

// ResolveReviews collapses a pull request's review history into the current
// review per reviewer. Reviews by the author and by deleted accounts are
// ignored. For equal SubmittedAt the later review in input order wins.
func ResolveReviews(reviews []models.Review, authorLogin string) models.ReviewState {
	state := make(models.ReviewState)

	for _, review := range reviews {
		login := review.ReviewerLogin
		if login == "" || login == authorLogin {
			continue
		}

		current, ok := state[login]
		if !ok || !review.SubmittedAt.Before(current.SubmittedAt) {
			state[login] = review
		}
	}

	return state
}

// PendingReviewers returns requested reviewers that have not submitted a review yet
func PendingReviewers(pr *models.PullRequest, state models.ReviewState) []string {
	pending := []string{}
	for _, login := range pr.RequestedReviewers {
		if login == pr.AuthorLogin {
			continue
		}
		if _, reviewed := state[login]; reviewed {
			continue
		}
		pending = append(pending, login)
	}
	return pending
}

// NewCommitsSinceReview counts commits pushed after the commit a review refers to.
// When the commit is no longer part of the pull request (history rewritten by a
// force-push) every commit counts as new.
func NewCommitsSinceReview(review *models.Review, commits []models.Commit) int {
	index := models.IndexOfCommit(commits, review.CommitID)
	if index < 0 {
		return len(commits)
	}
	return len(commits) - index - 1
}
