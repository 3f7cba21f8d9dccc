// Package gateway provides a gateway to the GitHub REST API: the issue
// search, pull request details, and the retry policy wrapped around both.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/naka-gawa/github-pr-stats/internal/domain"
)

// Fetcher defines the behavior of a gateway for fetching pull requests from GitHub.
// Failures are logged inside the gateway and never returned.
type Fetcher interface {
	// SearchPullRequests returns every search hit for the query, following pagination.
	SearchPullRequests(ctx context.Context, q domain.Query) []domain.SearchItem
	// FetchPullRequest loads the full pull request behind a search hit.
	// The boolean is false when the details could not be retrieved.
	FetchPullRequest(ctx context.Context, item domain.SearchItem) (domain.PullRequest, bool)
}

// Options configures NewGitHubGateway.
type Options struct {
	BaseURL   string
	Token     string
	UserAgent string
	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration
	// SecondaryLimitWait is the longest single sleep spent on a secondary rate limit.
	SecondaryLimitWait time.Duration
	Policy             RetryPolicy
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient *github.Client
	policy     RetryPolicy
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *zap.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(opts Options, logger *zap.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil,
		github_ratelimit.WithSingleSleepLimit(opts.SecondaryLimitWait, func(cbCtx *github_ratelimit.CallbackContext) {
			logger.Warn("secondary rate limit wait exceeds limit, not waiting",
				zap.Duration("limit", opts.SecondaryLimitWait))
		}),
		github_ratelimit.WithLimitDetectedCallback(func(cbCtx *github_ratelimit.CallbackContext) {
			fields := []zap.Field{}
			if cbCtx.SleepUntil != nil {
				fields = append(fields, zap.Time("sleep_until", *cbCtx.SleepUntil))
			}
			logger.Warn("secondary rate limit detected, waiting", fields...)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var transport http.RoundTripper = rateLimitWaiter
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
		}
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
	}

	restClient := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		baseURL, err := parseBaseURL(opts.BaseURL)
		if err != nil {
			return nil, err
		}
		restClient.BaseURL = baseURL
	}
	if opts.UserAgent != "" {
		restClient.UserAgent = opts.UserAgent
	}

	return newGitHubGateway(restClient, opts.Policy, logger), nil
}

func newGitHubGateway(restClient *github.Client, policy RetryPolicy, logger *zap.Logger) *GitHubGateway {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &GitHubGateway{
		restClient: restClient,
		policy:     policy,
		sleep:      sleepContext,
		logger:     logger,
	}
}

// parseBaseURL makes sure the API root ends with a slash, which go-github
// requires to resolve relative paths.
func parseBaseURL(raw string) (*url.URL, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", raw, err)
	}
	return u, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
