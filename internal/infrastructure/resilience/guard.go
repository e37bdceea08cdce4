// Package resilience shapes traffic to the advisor: a token-bucket rate
// limit in front of a circuit breaker. There is deliberately no retry loop,
// the orchestrator treats a failed advisor call as a terminal fallback
// signal for that request.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

type Config struct {
	RateLimitRPS float64
	RateBurst    int

	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

func DefaultConfig() Config {
	return Config{
		RateLimitRPS:            5,
		RateBurst:               5,
		BreakerMinRequests:      5,
		BreakerFailureRatio:     0.6,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 1,
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.RateLimitRPS <= 0 {
		c.RateLimitRPS = def.RateLimitRPS
	}
	if c.RateBurst <= 0 {
		c.RateBurst = def.RateBurst
	}
	if c.BreakerMinRequests == 0 {
		c.BreakerMinRequests = def.BreakerMinRequests
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		c.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if c.BreakerOpenTimeout <= 0 {
		c.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if c.BreakerHalfOpenMaxCalls == 0 {
		c.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}
	return c
}

// RecordFailure reports whether an error should count against the breaker.
// Context cancellation is the caller's doing, not the dependency's.
type FailureClassifier func(err error) bool

type Guard struct {
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[any]
	classifier FailureClassifier
}

func NewGuard(name string, cfg Config, classifier FailureClassifier) *Guard {
	cfg = cfg.normalize()
	if classifier == nil {
		classifier = func(err error) bool { return err != nil }
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.BreakerHalfOpenMaxCalls,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classifier(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "guard", name, "from", from.String(), "to", to.String())
		},
	}

	return &Guard{
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateBurst),
		breaker:    gobreaker.NewCircuitBreaker[any](settings),
		classifier: classifier,
	}
}

// Do runs fn once behind the limiter and breaker.
func (g *Guard) Do(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("resilience: operation callback is nil")
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	_, err := g.breaker.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	return err
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
