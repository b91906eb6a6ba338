package models

// Snapshot is the complete in-memory picture of all tracked pull requests.
// Repos keeps configuration order; Entries keeps API order per repository.
type Snapshot struct {
	Epoch           uint64              `json:"epoch"`
	Repos           []string            `json:"repos"`
	Entries         map[string][]PrData `json:"entries"`
	Pending         map[string]bool     `json:"pending"`
	RepoErrors      map[string]string   `json:"repo_errors"`
	Unauthenticated bool                `json:"unauthenticated"`
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() Snapshot {
	return Snapshot{
		Repos:      []string{},
		Entries:    make(map[string][]PrData),
		Pending:    make(map[string]bool),
		RepoErrors: make(map[string]string),
	}
}

// Flatten returns all entries in repository configuration order
func (s Snapshot) Flatten() []PrData {
	var out []PrData
	for _, repo := range s.Repos {
		for _, d := range s.Entries[repo] {
			out = append(out, d.Clone())
		}
	}
	return out
}

// IsSettled checks that no repository list is pending and no entry is loading
func (s Snapshot) IsSettled() bool {
	if s.Unauthenticated || len(s.Pending) > 0 {
		return false
	}
	for _, entries := range s.Entries {
		for i := range entries {
			if entries[i].IsLoading() {
				return false
			}
		}
	}
	return true
}

// LoadingCount returns the number of entries still loading
func (s Snapshot) LoadingCount() int {
	count := 0
	for _, entries := range s.Entries {
		for i := range entries {
			if entries[i].IsLoading() {
				count++
			}
		}
	}
	return count
}

// Clone returns a deep copy of the snapshot
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Epoch:           s.Epoch,
		Repos:           append([]string{}, s.Repos...),
		Entries:         make(map[string][]PrData, len(s.Entries)),
		Pending:         make(map[string]bool, len(s.Pending)),
		RepoErrors:      make(map[string]string, len(s.RepoErrors)),
		Unauthenticated: s.Unauthenticated,
	}
	for repo, entries := range s.Entries {
		copied := make([]PrData, len(entries))
		for i, d := range entries {
			copied[i] = d.Clone()
		}
		out.Entries[repo] = copied
	}
	for repo, pending := range s.Pending {
		out.Pending[repo] = pending
	}
	for repo, reason := range s.RepoErrors {
		out.RepoErrors[repo] = reason
	}
	return out
}
