// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"errors"
	"time"
)

// DateLayout is the layout of the dates accepted on the command line.
const DateLayout = "2006-01-02"

// ErrInvalidRange is returned when the end of a query lies before its start.
var ErrInvalidRange = errors.New("end date is before start date")

// Query describes which pull requests to look for.
type Query struct {
	User  string
	Start time.Time
	End   time.Time
	Label string
}

// NewQuery parses the start and end dates (YYYY-MM-DD) and builds a Query.
func NewQuery(user, start, end, label string) (Query, error) {
	startTime, err := time.Parse(DateLayout, start)
	if err != nil {
		return Query{}, err
	}
	endTime, err := time.Parse(DateLayout, end)
	if err != nil {
		return Query{}, err
	}
	if endTime.Before(startTime) {
		return Query{}, ErrInvalidRange
	}
	return Query{User: user, Start: startTime, End: endTime, Label: label}, nil
}

// SearchItem is a single hit of the issue search. URL points at the full
// pull request resource and is empty for plain issues.
type SearchItem struct {
	ID     int64
	Number int
	URL    string
}

// PullRequest holds the details of one pull request shown in the report.
// It is the core domain entity of this application.
type PullRequest struct {
	Repository    string
	RepositoryURL string
	Title         string
	URL           string
	CreatedAt     time.Time
	MergedAt      *time.Time
}

// Merged reports whether the pull request has been merged.
func (p PullRequest) Merged() bool {
	return p.MergedAt != nil
}

// TimeToMerge returns the time between creation and merge.
func (p PullRequest) TimeToMerge() (time.Duration, bool) {
	if p.MergedAt == nil {
		return 0, false
	}
	return p.MergedAt.Sub(p.CreatedAt), true
}
