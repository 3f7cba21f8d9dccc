package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

const acceptHeader = "application/vnd.github+json"

var (
	// ErrRetriesExhausted is returned when every attempt hit a retryable failure.
	ErrRetriesExhausted = errors.New("retries exhausted")
	// ErrRequestFailed is returned for non-retryable HTTP statuses.
	ErrRequestFailed = errors.New("request failed")
	// ErrMalformedPayload is returned when a successful response cannot be decoded.
	ErrMalformedPayload = errors.New("malformed payload")
)

// fetch GETs urlStr and decodes the JSON body into v, retrying according to
// the gateway's policy. urlStr may be relative to the API base URL.
func (g *GitHubGateway) fetch(ctx context.Context, urlStr string, v any) error {
	var lastErr error
	for attempt := 0; attempt < g.policy.MaxAttempts; attempt++ {
		req, err := g.restClient.NewRequest(http.MethodGet, urlStr, nil)
		if err != nil {
			return fmt.Errorf("failed to build request for %s: %w", urlStr, err)
		}
		req.Header.Set("Accept", acceptHeader)

		resp, err := g.restClient.Do(ctx, req, v)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		outcome := Outcome{Err: err}
		if resp != nil && resp.Response != nil {
			outcome.StatusCode = resp.StatusCode
		}

		action := g.policy.Classify(outcome)
		switch action {
		case ActionSucceed:
			return g.sleep(ctx, g.policy.Pace())
		case ActionFail:
			if outcome.StatusCode >= 200 && outcome.StatusCode < 300 {
				g.logger.Warn("failed to decode response", zap.String("url", urlStr), zap.Error(err))
				return fmt.Errorf("%w: %s: %w", ErrMalformedPayload, urlStr, err)
			}
			g.logger.Warn("request failed", zap.String("url", urlStr), zap.Int("status", outcome.StatusCode))
			return fmt.Errorf("%w: %s returned status %d", ErrRequestFailed, urlStr, outcome.StatusCode)
		}

		lastErr = err
		if attempt == g.policy.MaxAttempts-1 {
			break
		}
		delay := g.policy.Delay(action, attempt)
		g.logger.Info("retrying request",
			zap.String("url", urlStr),
			zap.Int("status", outcome.StatusCode),
			zap.Stringer("action", action),
			zap.Duration("delay", delay),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", g.policy.MaxAttempts),
			zap.Error(err))
		if err := g.sleep(ctx, delay); err != nil {
			return err
		}
	}

	g.logger.Warn("giving up on request",
		zap.String("url", urlStr),
		zap.Int("attempts", g.policy.MaxAttempts),
		zap.Error(lastErr))
	return fmt.Errorf("%w: %s after %d attempts: %w", ErrRetriesExhausted, urlStr, g.policy.MaxAttempts, lastErr)
}
