package models

// GroupingMode selects how pull requests are grouped for display
type GroupingMode string

const (
	GroupingByRepo     GroupingMode = "repo"
	GroupingByAssignee GroupingMode = "assigned"
	GroupingByReviewer GroupingMode = "reviewer"
)

// IsValid checks if the grouping mode is one of the known modes
func (g GroupingMode) IsValid() bool {
	switch g {
	case GroupingByRepo, GroupingByAssignee, GroupingByReviewer:
		return true
	}
	return false
}

// PRGroup is a labeled, ordered group of snapshot entries
type PRGroup struct {
	Label string   `json:"label"`
	Data  []PrData `json:"data"`
}
