package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-github/v62/github"
	"go.uber.org/zap"

	"github.com/naka-gawa/github-pr-stats/internal/domain"
)

const searchPageSize = 100

// buildSearchQuery constructs the issue search query for a user's pull
// requests created inside the query window.
func buildSearchQuery(q domain.Query) string {
	start := q.Start.Format(domain.DateLayout) + "T00:00:00Z"
	end := q.End.Format(domain.DateLayout) + "T23:59:59Z"
	parts := []string{
		"author:" + q.User,
		"type:pr",
		fmt.Sprintf("created:%s..%s", start, end),
	}
	if q.Label != "" {
		label := q.Label
		if strings.ContainsAny(label, " \t") {
			label = strconv.Quote(label)
		}
		parts = append(parts, "label:"+label)
	}
	return strings.Join(parts, " ")
}

func searchPageURL(query string, page int) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("per_page", strconv.Itoa(searchPageSize))
	params.Set("page", strconv.Itoa(page))
	return "search/issues?" + params.Encode()
}

// SearchPullRequests pages through the issue search until a short or failed page.
func (g *GitHubGateway) SearchPullRequests(ctx context.Context, q domain.Query) []domain.SearchItem {
	query := buildSearchQuery(q)
	g.logger.Info("searching pull requests", zap.String("query", query))

	items := []domain.SearchItem{}
	for page := 1; ; page++ {
		var result github.IssuesSearchResult
		if err := g.fetch(ctx, searchPageURL(query, page), &result); err != nil {
			g.logger.Debug("search stopped", zap.Int("page", page), zap.Error(err))
			break
		}
		if result.Issues == nil {
			g.logger.Warn("search response has no items", zap.Int("page", page))
			break
		}
		if page == 1 {
			g.logger.Info("search matched", zap.Int("total_count", result.GetTotal()))
		}
		if result.GetIncompleteResults() {
			g.logger.Warn("search results are incomplete", zap.Int("page", page))
		}

		for _, issue := range result.Issues {
			items = append(items, domain.SearchItem{
				ID:     issue.GetID(),
				Number: issue.GetNumber(),
				URL:    issue.GetPullRequestLinks().GetURL(),
			})
		}
		if len(result.Issues) < searchPageSize {
			break
		}
		g.logger.Debug("fetching next page of search results", zap.Int("page", page+1))
	}

	g.logger.Info("completed search", zap.Int("items", len(items)))
	return items
}

var _ Fetcher = (*GitHubGateway)(nil)
