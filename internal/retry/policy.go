package retry

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Strategy names a backoff shape.
type Strategy string

const (
	StrategyConstant          Strategy = "constant"
	StrategyExponential       Strategy = "exponential"
	StrategyExponentialJitter Strategy = "exponential_jitter"
)

const (
	defaultBaseDelay = 2 * time.Second
	defaultMaxDelay  = 30 * time.Second
)

// Policy computes the wait before the next attempt.
type Policy struct {
	Strategy Strategy
	Base     time.Duration
	Max      time.Duration

	// jitter returns a value in [0, n). Tests replace it for determinism.
	jitter func(n int64) int64
}

// ParseStrategy maps a configuration value onto a Strategy.
func ParseStrategy(value string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(value))) {
	case "", StrategyConstant:
		return StrategyConstant, nil
	case StrategyExponential:
		return StrategyExponential, nil
	case StrategyExponentialJitter:
		return StrategyExponentialJitter, nil
	default:
		return "", fmt.Errorf("unknown retry strategy %q", value)
	}
}

// ConstantPolicy waits the same delay between every attempt.
func ConstantPolicy(delay time.Duration) Policy {
	return Policy{Strategy: StrategyConstant, Base: delay, Max: delay}
}

// Delay returns the wait after the given 1-based failed attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := p.Base
	if base < 0 {
		base = 0
	}
	maxDelay := p.Max
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}
	if maxDelay < base {
		maxDelay = base
	}

	switch p.Strategy {
	case StrategyExponential, StrategyExponentialJitter:
		// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
		delay := base
		for i := 1; i < attempt; i++ {
			if delay > maxDelay/2 {
				delay = maxDelay
				break
			}
			delay *= 2
		}
		if delay > maxDelay {
			delay = maxDelay
		}
		if p.Strategy == StrategyExponentialJitter && delay > 0 {
			jitter := p.jitter
			if jitter == nil {
				jitter = rand.Int64N
			}
			return time.Duration(jitter(int64(delay) + 1))
		}
		return delay
	default:
		return base
	}
}

// Cap bounds an externally suggested delay (Retry-After) by the policy maximum.
func (p Policy) Cap(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	maxDelay := p.Max
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}
