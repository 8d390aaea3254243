package resilience

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/logging"
	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/metrics"
)

// Breaker wraps gobreaker and reports state changes to metrics and logs.
type Breaker struct {
	cb      *gobreaker.CircuitBreaker
	name    string
	metrics *metrics.Metrics
}

type BreakerSettings struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	MinRequests uint32
	FailRatio   float64
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		MinRequests: 3,
		FailRatio:   0.6,
	}
}

func NewBreaker(name string, s BreakerSettings, m *metrics.Metrics, logger logging.Logger) *Breaker {
	if logger == nil {
		logger = logging.Noop{}
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailRatio
		},
		OnStateChange: func(cbName string, from gobreaker.State, to gobreaker.State) {
			m.SetBreakerState(cbName, stateValue(to))
			logger.Info("circuit breaker state changed", map[string]any{
				"circuit": cbName,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	m.SetBreakerState(name, 0)

	return &Breaker{cb: cb, name: name, metrics: m}
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() string { return b.cb.State().String() }

// Execute runs fn through the breaker on behalf of callers that want a
// typed result.
func Execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		b.metrics.IncBreakerFailure(b.name)
		var zero T
		return zero, formatError(b.name, err)
	}
	v, _ := out.(T)
	return v, nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

func formatError(name string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) {
		return fmt.Errorf("circuit breaker %s is open: %w", name, err)
	}
	if errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("circuit breaker %s: too many requests in half-open state: %w", name, err)
	}
	return err
}
