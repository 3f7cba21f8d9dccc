// Package report groups collected pull requests by repository and renders
// them as a plain-text report.
package report

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/github-pr-stats/internal/domain"
)

// Group holds the pull requests of one repository, oldest first.
type Group struct {
	Repository    string
	RepositoryURL string
	PullRequests  []domain.PullRequest
}

// GroupByRepository groups prs by repository. Groups keep the order in which
// their repository first appears; pull requests inside a group are sorted by
// creation time.
func GroupByRepository(prs []domain.PullRequest) []Group {
	index := make(map[string]int)
	groups := make([]Group, 0)
	for _, pr := range prs {
		i, ok := index[pr.Repository]
		if !ok {
			i = len(groups)
			index[pr.Repository] = i
			groups = append(groups, Group{Repository: pr.Repository, RepositoryURL: pr.RepositoryURL})
		}
		groups[i].PullRequests = append(groups[i].PullRequests, pr)
	}

	for i := range groups {
		list := groups[i].PullRequests
		sort.SliceStable(list, func(a, b int) bool {
			if !list[a].CreatedAt.Equal(list[b].CreatedAt) {
				return list[a].CreatedAt.Before(list[b].CreatedAt)
			}
			return list[a].URL < list[b].URL
		})
	}
	return groups
}

// Merged returns how many pull requests in the group were merged.
func (g Group) Merged() int {
	n := 0
	for _, pr := range g.PullRequests {
		if pr.Merged() {
			n++
		}
	}
	return n
}

// MedianHoursToMerge returns the median time from creation to merge, in
// hours, over the merged pull requests of the group.
func (g Group) MedianHoursToMerge() (float64, bool) {
	return medianHoursToMerge(g.PullRequests)
}

func medianHoursToMerge(prs []domain.PullRequest) (float64, bool) {
	var hours stats.Float64Data
	for _, pr := range prs {
		if d, ok := pr.TimeToMerge(); ok {
			hours = append(hours, d.Hours())
		}
	}
	if hours.Len() == 0 {
		return 0, false
	}
	median, err := hours.Median()
	if err != nil {
		return 0, false
	}
	return median, true
}
