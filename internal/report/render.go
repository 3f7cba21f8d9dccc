package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/naka-gawa/github-pr-stats/internal/domain"
)

// NotMerged is printed in place of a merge date.
const NotMerged = "Not merged yet"

// NoResults is printed when the search found nothing to report.
const NoResults = "No PRs found for the given user and filters."

var separator = strings.Repeat("─", 60)

// Report is everything needed to render the output for one run.
type Report struct {
	User   string
	Label  string
	Groups []Group
}

// New groups prs and returns the report for user and label.
func New(user, label string, prs []domain.PullRequest) Report {
	return Report{User: user, Label: label, Groups: GroupByRepository(prs)}
}

// Total returns the number of pull requests in the report.
func (r Report) Total() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.PullRequests)
	}
	return n
}

// printer remembers the first write error so rendering code stays linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// Render writes the report to w.
func Render(w io.Writer, r Report) error {
	p := &printer{w: w}
	if r.Total() == 0 {
		p.printf("%s\n", NoResults)
		return p.err
	}

	header := "GitHub PR Stats for user: " + r.User
	if r.Label != "" {
		header += " | Label: " + r.Label
	}
	p.printf("\n%s\n%s\n", header, separator)

	merged := 0
	for _, g := range r.Groups {
		merged += g.Merged()
		p.printf("Repository: %s (%s)\n", g.Repository, g.RepositoryURL)
		p.printf("   Total PRs: %d\n", len(g.PullRequests))
		if hours, ok := g.MedianHoursToMerge(); ok {
			p.printf("   Merged: %d (median time to merge: %s)\n", g.Merged(), formatHours(hours))
		} else {
			p.printf("   Merged: 0\n")
		}
		for i, pr := range g.PullRequests {
			p.printf("   %d. %s\n", i+1, pr.Title)
			p.printf("      Raised: %s\n", pr.CreatedAt.Format(domain.DateLayout))
			p.printf("      Merged: %s\n", mergedDate(pr))
			p.printf("      PR: %s\n", pr.URL)
		}
		p.printf("%s\n", separator)
	}
	p.printf("Total: %d PRs across %d repositories, %d merged\n", r.Total(), len(r.Groups), merged)
	return p.err
}

func mergedDate(pr domain.PullRequest) string {
	if pr.MergedAt == nil {
		return NotMerged
	}
	return pr.MergedAt.Format(domain.DateLayout)
}

func formatHours(hours float64) string {
	if hours < 48 {
		return fmt.Sprintf("%.1f hours", hours)
	}
	return fmt.Sprintf("%.1f days", hours/24)
}
