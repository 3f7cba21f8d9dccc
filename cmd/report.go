package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/naka-gawa/github-pr-stats/internal/config"
	"github.com/naka-gawa/github-pr-stats/internal/domain"
	"github.com/naka-gawa/github-pr-stats/internal/gateway"
	"github.com/naka-gawa/github-pr-stats/internal/logger"
	"github.com/naka-gawa/github-pr-stats/internal/report"
	"github.com/naka-gawa/github-pr-stats/internal/usecase"
)

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("user", "u", "", "GitHub username to fetch PRs for (required)")
	cmd.Flags().String("start", "", "Start date (YYYY-MM-DD, required)")
	cmd.Flags().String("end", "", "End date (YYYY-MM-DD, required)")
	cmd.Flags().StringP("label", "l", "", "Only include PRs carrying this label")
	cmd.Flags().StringP("config", "c", "", "Path to a YAML config file")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	verbose, _ := cmd.Flags().GetBool("verbose")
	user, _ := cmd.Flags().GetString("user")
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	label, _ := cmd.Flags().GetString("label")
	configPath, _ := cmd.Flags().GetString("config")

	query, err := domain.NewQuery(user, start, end, label)
	if err != nil {
		return fmt.Errorf("invalid date range (use YYYY-MM-DD): %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// Arguments are valid from here on; later failures are not usage errors.
	cmd.SilenceUsage = true

	stderr := cmd.ErrOrStderr()
	log := logger.New(stderr, verbose)
	defer func() { _ = log.Sync() }()
	log.Debug("configuration loaded",
		zap.String("api_url", cfg.GitHub.APIURL),
		zap.Bool("token", cfg.GitHub.Token != ""),
		zap.Int("workers", cfg.Fetch.Workers))

	// Inject dependencies and run the main business logic.
	fetcher, err := gateway.NewGitHubGateway(gateway.Options{
		BaseURL:            cfg.GitHub.APIURL,
		Token:              cfg.GitHub.Token,
		UserAgent:          cfg.GitHub.UserAgent,
		Timeout:            cfg.Fetch.RequestTimeout,
		SecondaryLimitWait: cfg.Fetch.SecondaryLimitWait,
		Policy: gateway.RetryPolicy{
			MaxAttempts: cfg.Fetch.MaxAttempts,
			BackoffUnit: gateway.DefaultRetryPolicy().BackoffUnit,
			FixedDelay:  cfg.Fetch.RetryDelay,
			PaceDelay:   cfg.Fetch.PaceDelay,
			PaceJitter:  cfg.Fetch.PaceJitter,
		},
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create GitHub gateway: %w", err)
	}

	collector := usecase.NewCollector(fetcher, cfg.Fetch.Workers, log)
	collector.OnProgress(progressPrinter(stderr))

	fmt.Fprintf(stderr, "Fetching PRs for %s...\n", user)
	prs, err := collector.Collect(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to collect pull requests: %w", err)
	}

	return report.Render(cmd.OutOrStdout(), report.New(user, label, prs))
}

// progressPrinter keeps a single progress line updated on w.
func progressPrinter(w io.Writer) usecase.ProgressFunc {
	return func(done, total int) {
		fmt.Fprintf(w, "\rProcessing PRs... %d/%d", done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	}
}
