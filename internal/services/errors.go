package services

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthFailure is returned when the hosting API rejects the credential
	ErrAuthFailure = errors.New("github credential rejected")
	// ErrNotAuthenticated is returned when there is no usable credential
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrMalformedRepo is returned for repository names not in the form owner/name
	ErrMalformedRepo = errors.New("repository must be in the form of 'owner/name'")
	// ErrNotificationNotFound is returned for unknown inbox entries
	ErrNotificationNotFound = errors.New("notification not found")
)

// FetchError is a transient failure of a single hosting API call
type FetchError struct {
	Op     string
	Repo   string
	Number int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Number > 0 {
		return fmt.Sprintf("%s %s#%d: %v", e.Op, e.Repo, e.Number, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Repo, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
