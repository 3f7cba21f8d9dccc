package gateway

import (
	"math/rand/v2"
	"net/http"
	"time"
)

// Action is what the fetch loop does after an attempt.
type Action int

const (
	// ActionSucceed returns the decoded payload.
	ActionSucceed Action = iota
	// ActionRetryBackoff retries after an exponentially growing delay.
	ActionRetryBackoff
	// ActionRetryFixed retries after RetryPolicy.FixedDelay.
	ActionRetryFixed
	// ActionFail gives up without retrying.
	ActionFail
)

func (a Action) String() string {
	switch a {
	case ActionSucceed:
		return "succeed"
	case ActionRetryBackoff:
		return "retry-backoff"
	case ActionRetryFixed:
		return "retry-fixed"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Outcome describes one finished attempt. StatusCode is zero when no HTTP
// response was received.
type Outcome struct {
	StatusCode int
	Err        error
}

// RetryPolicy decides how failed requests are retried and how successful
// ones are paced.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// BackoffUnit is multiplied by 2^attempt for rate-limited responses.
	BackoffUnit time.Duration
	// FixedDelay is used for server and network errors.
	FixedDelay time.Duration
	// PaceDelay and PaceJitter throttle successful requests.
	PaceDelay  time.Duration
	PaceJitter time.Duration
}

// DefaultRetryPolicy returns the policy used when nothing is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BackoffUnit: time.Second,
		FixedDelay:  2 * time.Second,
		PaceDelay:   400 * time.Millisecond,
		PaceJitter:  300 * time.Millisecond,
	}
}

// Classify maps an attempt outcome to an action.
//
//	2xx, decoded           -> succeed
//	2xx, decode error      -> fail
//	403, 429               -> retry with backoff
//	>= 500                 -> retry after fixed delay
//	no response            -> retry after fixed delay
//	anything else          -> fail
func (p RetryPolicy) Classify(o Outcome) Action {
	switch code := o.StatusCode; {
	case code == 0:
		if o.Err == nil {
			return ActionSucceed
		}
		return ActionRetryFixed
	case code >= 200 && code < 300:
		if o.Err != nil {
			return ActionFail
		}
		return ActionSucceed
	case code == http.StatusForbidden, code == http.StatusTooManyRequests:
		return ActionRetryBackoff
	case code >= http.StatusInternalServerError:
		return ActionRetryFixed
	default:
		return ActionFail
	}
}

// Delay returns how long to wait before the attempt following attempt
// (zero-based) when the previous one ended with action.
func (p RetryPolicy) Delay(action Action, attempt int) time.Duration {
	switch action {
	case ActionRetryBackoff:
		return p.BackoffUnit << attempt
	case ActionRetryFixed:
		return p.FixedDelay
	default:
		return 0
	}
}

// Pace returns the randomized pause taken after a successful request.
func (p RetryPolicy) Pace() time.Duration {
	if p.PaceJitter <= 0 {
		return p.PaceDelay
	}
	return p.PaceDelay + rand.N(p.PaceJitter)
}
