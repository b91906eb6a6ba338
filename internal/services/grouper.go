package services

import (
	"sort"
	"strings"

	"github.com/alimgiray/prdash/internal/models"
)

// groupKeys returns the group labels a pull request belongs to under mode
func groupKeys(mode models.GroupingMode, d *models.PrData) []string {
	switch mode {
	case models.GroupingByAssignee:
		return []string{d.PR.OwnerLogin()}
	case models.GroupingByReviewer:
		return reviewerLogins(d)
	default:
		return []string{d.PR.RepoFullName}
	}
}

// reviewerLogins is the deduplicated union of reviewers and requested reviewers
func reviewerLogins(d *models.PrData) []string {
	seen := make(map[string]bool)
	var logins []string

	reviewed := d.Reviews.Logins()
	sort.Strings(reviewed)
	for _, login := range append(reviewed, d.PR.RequestedReviewers...) {
		if login == "" || seen[login] {
			continue
		}
		seen[login] = true
		logins = append(logins, login)
	}
	return logins
}

// involves checks if login is the owner, a reviewer or a requested reviewer
func involves(d *models.PrData, login string) bool {
	if d.PR.OwnerLogin() == login {
		return true
	}
	if _, ok := d.Reviews[login]; ok {
		return true
	}
	return d.PR.IsReviewerRequested(login)
}

// Group filters and groups snapshot entries for display. The group labeled
// login comes first, the rest follow by case-insensitive label. Within a
// group ready-for-review entries precede drafts, most recently updated first.
func Group(data []models.PrData, mode models.GroupingMode, login string, showMeOnly bool) []models.PRGroup {
	groups := make(map[string]*models.PRGroup)
	var labels []string

	for i := range data {
		d := &data[i]
		if showMeOnly && !involves(d, login) {
			continue
		}
		for _, label := range groupKeys(mode, d) {
			group, ok := groups[label]
			if !ok {
				group = &models.PRGroup{Label: label}
				groups[label] = group
				labels = append(labels, label)
			}
			group.Data = append(group.Data, d.Clone())
		}
	}

	sort.SliceStable(labels, func(i, j int) bool {
		if labels[i] == login || labels[j] == login {
			return labels[i] == login && labels[j] != login
		}
		return strings.ToLower(labels[i]) < strings.ToLower(labels[j])
	})

	out := make([]models.PRGroup, 0, len(labels))
	for _, label := range labels {
		group := groups[label]
		sortGroupEntries(group.Data)
		out = append(out, *group)
	}
	return out
}

func sortGroupEntries(entries []models.PrData) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].PR, entries[j].PR
		if a.Draft != b.Draft {
			return !a.Draft
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})
}
