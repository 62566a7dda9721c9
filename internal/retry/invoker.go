package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"autopost/internal/config"
	"autopost/internal/logging"
)

const (
	defaultAttempts = 3
	snippetLimit    = 512
)

// ErrExhausted matches every *ExhaustedError.
var ErrExhausted = errors.New("retries exhausted")

// ExhaustedError reports that every attempt of an operation failed.
type ExhaustedError struct {
	Op         string
	Attempts   int
	StatusCode int
	Body       string
	Err        error
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d attempts failed", e.Op, e.Attempts)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": last status %d", e.StatusCode)
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		fmt.Fprintf(&b, ": %s", body)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Thunk issues one HTTP request. It is called once per attempt, so request
// bodies must be rebuilt inside it.
type Thunk func(ctx context.Context) (*http.Response, error)

// Invoker runs outbound HTTP calls with bounded retry.
type Invoker struct {
	attempts int
	policy   Policy
	sleeper  func(time.Duration)
	logger   *slog.Logger
}

// Option customizes the invoker.
type Option func(*Invoker)

// WithAttempts sets the total number of calls, including the first one.
func WithAttempts(attempts int) Option {
	return func(i *Invoker) { i.attempts = attempts }
}

// WithPolicy replaces the backoff policy.
func WithPolicy(policy Policy) Option {
	return func(i *Invoker) { i.policy = policy }
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(i *Invoker) { i.sleeper = sleeper }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Invoker) { i.logger = logging.NewComponentLogger(logger, "retry") }
}

// New returns an invoker with three attempts and a constant two second delay
// unless options say otherwise.
func New(opts ...Option) *Invoker {
	inv := &Invoker{
		attempts: defaultAttempts,
		policy:   ConstantPolicy(defaultBaseDelay),
		logger:   logging.NewComponentLogger(nil, "retry"),
	}
	for _, opt := range opts {
		opt(inv)
	}
	if inv.attempts < 1 {
		inv.attempts = 1
	}
	return inv
}

// NewFromConfig builds an invoker from the retry section.
func NewFromConfig(cfg config.Retry, logger *slog.Logger) (*Invoker, error) {
	strategy, err := ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	policy := Policy{
		Strategy: strategy,
		Base:     time.Duration(cfg.DelayMillis) * time.Millisecond,
		Max:      time.Duration(cfg.MaxDelayMillis) * time.Millisecond,
	}
	return New(WithAttempts(cfg.Attempts), WithPolicy(policy), WithLogger(logger)), nil
}

// Attempts returns the configured number of calls per operation.
func (i *Invoker) Attempts() int {
	return i.attempts
}

type callOptions struct {
	success func(*http.Response) bool
}

// CallOption customizes a single Do call.
type CallOption func(*callOptions)

// ExpectStatus accepts only the listed status codes as success.
func ExpectStatus(codes ...int) CallOption {
	return func(o *callOptions) {
		o.success = func(resp *http.Response) bool {
			for _, code := range codes {
				if resp.StatusCode == code {
					return true
				}
			}
			return false
		}
	}
}

// WithSuccess installs a custom success predicate.
func WithSuccess(pred func(*http.Response) bool) CallOption {
	return func(o *callOptions) {
		if pred != nil {
			o.success = pred
		}
	}
}

// IsSuccess is the default predicate: any 2xx status.
func IsSuccess(resp *http.Response) bool {
	return resp != nil && resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Do calls thunk until the response satisfies the success predicate or the
// attempt budget runs out. On success the caller owns the response body. A
// transport error counts as a failed attempt. Context cancellation stops the
// loop and is returned as is.
func (i *Invoker) Do(ctx context.Context, op string, thunk Thunk, opts ...CallOption) (*http.Response, error) {
	co := callOptions{success: IsSuccess}
	for _, opt := range opts {
		opt(&co)
	}
	logger := logging.WithContext(ctx, i.logger)

	var (
		lastStatus int
		lastBody   string
		lastErr    error
	)
	for attempt := 1; attempt <= i.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := thunk(ctx)
		var retryAfter time.Duration
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastStatus, lastBody, lastErr = 0, "", err
		case resp == nil:
			lastStatus, lastBody, lastErr = 0, "", errors.New("nil response")
		case co.success(resp):
			if attempt > 1 {
				logger.Info("request succeeded after retry",
					logging.String(logging.FieldOperation, op),
					logging.Int(logging.FieldAttempt, attempt))
			}
			return resp, nil
		default:
			lastStatus = resp.StatusCode
			lastBody = drain(resp)
			lastErr = nil
			retryAfter = retryAfterDelay(resp)
		}

		logging.WarnWithContext(logger, "request attempt failed", "http_attempt_failed",
			logging.String(logging.FieldOperation, op),
			logging.Int(logging.FieldAttempt, attempt),
			logging.Int("max_attempts", i.attempts),
			logging.Int("status", lastStatus),
			logging.String("body", lastBody),
			logging.Any("error", lastErr),
			logging.String(logging.FieldErrorHint, "check the remote service status and credentials"),
			logging.String(logging.FieldImpact, "request will be retried until attempts are exhausted"))

		if attempt == i.attempts {
			break
		}
		delay := i.policy.Delay(attempt)
		if retryAfter > 0 {
			delay = i.policy.Cap(retryAfter)
		}
		if err := i.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, &ExhaustedError{
		Op:         op,
		Attempts:   i.attempts,
		StatusCode: lastStatus,
		Body:       lastBody,
		Err:        lastErr,
	}
}

func (i *Invoker) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if i.sleeper != nil {
		i.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func drain(resp *http.Response) string {
	if resp.Body == nil {
		return ""
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, snippetLimit))
	_, _ = io.Copy(io.Discard, resp.Body)
	return strings.TrimSpace(string(data))
}

func retryAfterDelay(resp *http.Response) time.Duration {
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
		return 0
	}
	value := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay
		}
	}
	return 0
}
