package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v62/github"
	"go.uber.org/zap"

	"github.com/naka-gawa/github-pr-stats/internal/domain"
)

// FetchPullRequest loads and validates the pull request behind a search hit.
func (g *GitHubGateway) FetchPullRequest(ctx context.Context, item domain.SearchItem) (domain.PullRequest, bool) {
	if item.URL == "" {
		g.logger.Debug("search item is not a pull request", zap.Int64("id", item.ID))
		return domain.PullRequest{}, false
	}

	var pr github.PullRequest
	if err := g.fetch(ctx, item.URL, &pr); err != nil {
		return domain.PullRequest{}, false
	}

	record, err := toPullRequest(&pr)
	if err != nil {
		g.logger.Warn("dropping pull request", zap.String("url", item.URL), zap.Error(err))
		return domain.PullRequest{}, false
	}
	return record, true
}

// toPullRequest converts the API payload, rejecting it when a required field is missing.
func toPullRequest(pr *github.PullRequest) (domain.PullRequest, error) {
	repo := pr.GetBase().GetRepo()
	var missing []string
	if repo.GetFullName() == "" {
		missing = append(missing, "base.repo.full_name")
	}
	if repo.GetHTMLURL() == "" {
		missing = append(missing, "base.repo.html_url")
	}
	if pr.GetTitle() == "" {
		missing = append(missing, "title")
	}
	if pr.CreatedAt == nil {
		missing = append(missing, "created_at")
	}
	if pr.GetHTMLURL() == "" {
		missing = append(missing, "html_url")
	}
	if len(missing) > 0 {
		return domain.PullRequest{}, fmt.Errorf("%w: missing %s", ErrMalformedPayload, strings.Join(missing, ", "))
	}

	record := domain.PullRequest{
		Repository:    repo.GetFullName(),
		RepositoryURL: repo.GetHTMLURL(),
		Title:         pr.GetTitle(),
		URL:           pr.GetHTMLURL(),
		CreatedAt:     pr.GetCreatedAt().Time.UTC(),
	}
	if pr.MergedAt != nil {
		merged := pr.GetMergedAt().Time.UTC()
		record.MergedAt = &merged
	}
	return record, nil
}
