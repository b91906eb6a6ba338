package services

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alimgiray/prdash/internal/models"
)

// DiffOptions carries the per-user settings a diff depends on
type DiffOptions struct {
	Login                string
	NotificationsEnabled bool
	NotifyForComments    bool
	// IconURL is used when the event has no avatar
	IconURL string
}

// NotificationDiffEngine compares each newly settled snapshot with the last
// settled one and reports facts that were not there before
type NotificationDiffEngine struct {
	mu       sync.Mutex
	baseline *models.Snapshot
	stable   bool
}

func NewNotificationDiffEngine() *NotificationDiffEngine {
	return &NotificationDiffEngine{}
}

// Observe feeds a published snapshot to the engine. Events are only returned
// when the snapshot settles; the first settled snapshot only becomes the
// baseline.
func (e *NotificationDiffEngine) Observe(snap models.Snapshot, opts DiffOptions) []models.NotificationEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !snap.IsSettled() {
		e.stable = false
		return nil
	}
	if e.stable {
		return nil
	}
	e.stable = true

	current := snap.Clone()
	if e.baseline != nil {
		current = inheritKnownData(current, *e.baseline)
	}

	var events []models.NotificationEvent
	if e.baseline != nil && opts.NotificationsEnabled && opts.Login != "" {
		events = Diff(*e.baseline, current, opts)
	}
	e.baseline = &current
	return events
}

// Reset forgets the baseline, e.g. when the credential changes
func (e *NotificationDiffEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.baseline = nil
	e.stable = false
}

// Baseline returns a copy of the last settled snapshot
func (e *NotificationDiffEngine) Baseline() (models.Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.baseline == nil {
		return models.Snapshot{}, false
	}
	return e.baseline.Clone(), true
}

// Diff returns one event per fact present in cur but absent in prev
func Diff(prev, cur models.Snapshot, opts DiffOptions) []models.NotificationEvent {
	prevData := prev.Flatten()
	curData := cur.Flatten()

	var events []models.NotificationEvent

	wasReviewable := make(map[models.PRKey]bool)
	for i := range prevData {
		if isNewlyReviewable(&prevData[i], opts.Login) {
			wasReviewable[prevData[i].Key()] = true
		}
	}
	for i := range curData {
		d := &curData[i]
		if isNewlyReviewable(d, opts.Login) && !wasReviewable[d.Key()] {
			events = append(events, readyForReviewEvent(d, opts))
		}
	}

	seenReviews := make(map[int64]bool)
	for _, r := range reviewsOnMyPRs(prevData, opts.Login) {
		seenReviews[r.ID] = true
	}
	for _, r := range reviewsOnMyPRs(curData, opts.Login) {
		if !seenReviews[r.ID] {
			events = append(events, reviewEvent(r, opts))
		}
	}

	if opts.NotifyForComments {
		// nil comments mean they were not fetched, so nothing on that PR is new yet
		unknownComments := make(map[models.PRKey]bool)
		for i := range prevData {
			if prevData[i].Comments == nil {
				unknownComments[prevData[i].Key()] = true
			}
		}
		seenComments := make(map[int64]bool)
		for _, c := range commentsForMe(prevData, opts.Login) {
			seenComments[c.ID] = true
		}
		for i := range curData {
			if unknownComments[curData[i].Key()] {
				continue
			}
			for _, c := range commentsForMe(curData[i:i+1], opts.Login) {
				if !seenComments[c.ID] {
					events = append(events, commentEvent(c, opts))
				}
			}
		}
	}

	return events
}

// isNewlyReviewable checks if someone else's open PR is waiting for review.
// Outstanding change requests only hide it when login was not asked to review.
func isNewlyReviewable(d *models.PrData, login string) bool {
	if !d.IsReady() {
		return false
	}
	pr := &d.PR
	if !pr.IsOpen() || pr.Draft || pr.IsMerged() || pr.AuthorLogin == login {
		return false
	}
	return !d.Reviews.HasChangesRequested() || pr.IsReviewerRequested(login)
}

func isOpenAndUnmerged(d *models.PrData) bool {
	return d.IsReady() && d.PR.IsOpen() && !d.PR.IsMerged()
}

// reviewsOnMyPRs returns the current reviews by others on PRs authored by login
func reviewsOnMyPRs(data []models.PrData, login string) []models.Review {
	var out []models.Review
	for i := range data {
		d := &data[i]
		if !isOpenAndUnmerged(d) || d.PR.AuthorLogin != login {
			continue
		}
		reviews := make([]models.Review, 0, len(d.Reviews))
		for reviewer, r := range d.Reviews {
			if reviewer != login {
				reviews = append(reviews, r)
			}
		}
		sort.Slice(reviews, func(i, j int) bool {
			if !reviews[i].SubmittedAt.Equal(reviews[j].SubmittedAt) {
				return reviews[i].SubmittedAt.Before(reviews[j].SubmittedAt)
			}
			return reviews[i].ID < reviews[j].ID
		})
		out = append(out, reviews...)
	}
	return out
}

// commentsForMe returns others' comments on PRs authored by login, and on
// other PRs only those replying to login or mentioning @login
func commentsForMe(data []models.PrData, login string) []models.Comment {
	var out []models.Comment
	for i := range data {
		d := &data[i]
		if !isOpenAndUnmerged(d) || d.Comments == nil {
			continue
		}

		mine := d.PR.AuthorLogin == login
		myComments := make(map[int64]bool)
		for _, c := range d.Comments {
			if c.AuthorLogin == login {
				myComments[c.ID] = true
			}
		}
		var myReview int64 = -1
		if r, ok := d.Reviews[login]; ok {
			myReview = r.ID
		}

		for _, c := range d.Comments {
			if c.AuthorLogin == login {
				continue
			}
			if mine ||
				(c.ReviewID != nil && *c.ReviewID == myReview) ||
				(c.InReplyToID != nil && myComments[*c.InReplyToID]) ||
				c.Mentions(login) {
				out = append(out, c)
			}
		}
	}
	return out
}

func iconOr(avatar string, opts DiffOptions) string {
	if avatar != "" {
		return avatar
	}
	return opts.IconURL
}

func readyForReviewEvent(d *models.PrData, opts DiffOptions) models.NotificationEvent {
	return models.NotificationEvent{
		Category: models.NotificationCategoryReadyForReview,
		Key:      "ready:" + d.Key().String(),
		Title:    "PR ready",
		Body:     fmt.Sprintf("%s is ready for review", d.PR.Title),
		ClickURL: d.PR.URL,
		IconURL:  iconOr(d.PR.AuthorAvatarURL, opts),
	}
}

func reviewEvent(r models.Review, opts DiffOptions) models.NotificationEvent {
	body := fmt.Sprintf("%s reviewed", r.ReviewerLogin)
	if text := r.BodyText(); text != "" {
		body += ": " + text
	}
	return models.NotificationEvent{
		Category: models.NotificationCategoryReview,
		Key:      fmt.Sprintf("review:%d", r.ID),
		Title:    string(r.State),
		Body:     body,
		ClickURL: r.HTMLURL,
		IconURL:  iconOr(r.ReviewerAvatarURL, opts),
	}
}

func commentEvent(c models.Comment, opts DiffOptions) models.NotificationEvent {
	return models.NotificationEvent{
		Category: models.NotificationCategoryComment,
		Key:      fmt.Sprintf("comment:%d", c.ID),
		Title:    "New comment",
		Body:     fmt.Sprintf("%s commented: %s", c.AuthorLogin, c.Body),
		ClickURL: c.HTMLURL,
		IconURL:  iconOr(c.AuthorAvatarURL, opts),
	}
}

// inheritKnownData fills gaps in cur from the baseline so a transient
// failure neither hides nor re-announces what was already known. Failed
// entries and failed repository lists take the baseline's data; ready entries
// whose comments were not fetched take the baseline's comments.
func inheritKnownData(cur, baseline models.Snapshot) models.Snapshot {
	for repo := range cur.RepoErrors {
		if entries, ok := baseline.Entries[repo]; ok {
			copied := make([]models.PrData, len(entries))
			for i, d := range entries {
				copied[i] = d.Clone()
			}
			cur.Entries[repo] = copied
		}
	}

	known := make(map[models.PRKey]models.PrData)
	for _, entries := range baseline.Entries {
		for _, d := range entries {
			if d.IsReady() {
				known[d.Key()] = d
			}
		}
	}

	for repo, entries := range cur.Entries {
		for i := range entries {
			last, ok := known[entries[i].Key()]
			if !ok {
				continue
			}
			switch {
			case entries[i].IsFailed():
				entries[i] = last.Clone()
			case entries[i].IsReady() && entries[i].Comments == nil && last.Comments != nil:
				entries[i].Comments = last.Clone().Comments
			}
		}
		cur.Entries[repo] = entries
	}
	return cur
}
