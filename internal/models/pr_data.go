package models

// LoadStatus represents how far the detail fetches of a pull request got
type LoadStatus string

const (
	LoadStatusLoading LoadStatus = "loading"
	LoadStatusError   LoadStatus = "error"
	LoadStatusReady   LoadStatus = "ready"
)

// PrData is one snapshot entry. Reviews, Commits and Comments are only
// populated when Status is ready; Error is only populated when Status is error.
type PrData struct {
	PR       PullRequest `json:"pr"`
	Status   LoadStatus  `json:"status"`
	Error    string      `json:"error,omitempty"`
	Reviews  ReviewState `json:"reviews,omitempty"`
	Commits  []Commit    `json:"commits,omitempty"`
	Comments []Comment   `json:"comments,omitempty"`
}

// NewLoadingPrData creates an entry whose detail fetches are still running
func NewLoadingPrData(pr PullRequest) PrData {
	return PrData{PR: pr, Status: LoadStatusLoading}
}

// NewErrorPrData creates an entry whose detail fetches failed
func NewErrorPrData(pr PullRequest, reason string) PrData {
	return PrData{PR: pr, Status: LoadStatusError, Error: reason}
}

// NewReadyPrData creates an entry with resolved review state and commits.
// comments may be nil when they were not fetched.
func NewReadyPrData(pr PullRequest, reviews ReviewState, commits []Commit, comments []Comment) PrData {
	if reviews == nil {
		reviews = ReviewState{}
	}
	if commits == nil {
		commits = []Commit{}
	}
	return PrData{
		PR:       pr,
		Status:   LoadStatusReady,
		Reviews:  reviews,
		Commits:  commits,
		Comments: comments,
	}
}

// Key returns the identity of the underlying pull request
func (d PrData) Key() PRKey {
	return d.PR.Key()
}

// IsLoading checks if the entry is still waiting on detail fetches
func (d PrData) IsLoading() bool {
	return d.Status == LoadStatusLoading
}

// IsReady checks if the entry has review and commit data
func (d PrData) IsReady() bool {
	return d.Status == LoadStatusReady
}

// IsFailed checks if the entry's detail fetches failed
func (d PrData) IsFailed() bool {
	return d.Status == LoadStatusError
}

// Clone returns a deep copy of the entry
func (d PrData) Clone() PrData {
	d.PR = d.PR.Clone()
	d.Reviews = d.Reviews.Clone()
	if d.Commits != nil {
		commits := make([]Commit, len(d.Commits))
		copy(commits, d.Commits)
		d.Commits = commits
	}
	if d.Comments != nil {
		comments := make([]Comment, len(d.Comments))
		copy(comments, d.Comments)
		d.Comments = comments
	}
	return d
}
