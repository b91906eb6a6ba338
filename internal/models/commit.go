package models

// Commit represents a commit in a pull request's commit sequence
type Commit struct {
	SHA      string `json:"sha"`
	Position int    `json:"position"`
}

// NewCommits builds the commit sequence from shas in API order, oldest first
func NewCommits(shas ...string) []Commit {
	commits := make([]Commit, len(shas))
	for i, sha := range shas {
		commits[i] = Commit{SHA: sha, Position: i}
	}
	return commits
}

// IndexOfCommit returns the position of sha in commits or -1 if absent
func IndexOfCommit(commits []Commit, sha string) int {
	for i, commit := range commits {
		if commit.SHA == sha {
			return i
		}
	}
	return -1
}
