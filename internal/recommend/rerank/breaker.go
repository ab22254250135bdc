// Savora - AI Restaurant Recommendation Service
// Copyright 2026 Raghav B. (raghavbk)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/raghavbk/savora

package rerank

import (
	"errors"
	"fmt"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/raghavbk/savora/internal/logging"
	"github.com/raghavbk/savora/internal/metrics"
)

// ErrBreakerOpen is returned when the circuit breaker rejects a call
// before any I/O is attempted.
var ErrBreakerOpen = errors.New("rerank: circuit breaker open")

// BreakerConfig configures the LLM circuit breaker.
type BreakerConfig struct {
	// Name identifies the breaker in logs and metrics.
	Name string `koanf:"name"`

	// FailureThreshold is the number of consecutive failures that opens
	// the circuit.
	FailureThreshold uint32 `koanf:"failure_threshold"`

	// Cooldown is the base open duration before a half-open trial.
	Cooldown time.Duration `koanf:"cooldown"`

	// MaxCooldown caps the exponential cooldown growth on repeated
	// trips.
	MaxCooldown time.Duration `koanf:"max_cooldown"`
}

// DefaultBreakerConfig returns the default breaker configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "llm-reranker",
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		MaxCooldown:      5 * time.Minute,
	}
}

// Validate checks configuration invariants.
func (c BreakerConfig) Validate() error {
	if c.FailureThreshold == 0 {
		return fmt.Errorf("breaker failure_threshold must be positive")
	}
	if c.Cooldown <= 0 {
		return fmt.Errorf("breaker cooldown must be positive")
	}
	if c.MaxCooldown < c.Cooldown {
		return fmt.Errorf("breaker max_cooldown must be >= cooldown")
	}
	return nil
}

// Breaker guards the LLM call path. It wraps sony/gobreaker for the
// CLOSED/OPEN/HALF_OPEN state machine (consecutive-failure trip, single
// trial call while half-open) and adds bounded-exponential cooldown
// escalation: each consecutive trip doubles the open period up to
// MaxCooldown, and a successful trial resets it.
//
// Breaker is the sole process-wide mutable state of the pipeline. It is
// an explicitly injected object rather than a package singleton so tests
// can construct isolated instances. State does not survive process
// restart; a new Breaker starts CLOSED.
//
// DETERMINISM NOTE: gobreaker uses real time for its open-to-half-open
// transition. The escalated deadline check uses the injectable clock,
// which unit tests override; transition timing tests use short cooldowns
// and real waits.
type Breaker struct {
	cfg BreakerConfig
	cb  *gobreaker.CircuitBreaker[any]

	mu        sync.Mutex
	trips     uint32
	openUntil time.Time

	// now is the clock; replaced in tests.
	now func() time.Time
}

// NewBreaker creates a circuit breaker in the CLOSED state.
func NewBreaker(cfg BreakerConfig) *Breaker {
	b := &Breaker{
		cfg: cfg,
		now: time.Now,
	}

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0) // 0 = closed

	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1, // single trial call in half-open
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: b.onStateChange,
	})

	return b
}

// onStateChange tracks trips for cooldown escalation and reports
// transitions.
func (b *Breaker) onStateChange(name string, from, to gobreaker.State) {
	logging.Info().
		Str("breaker", name).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("circuit breaker state transition")

	metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
	metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))

	b.mu.Lock()
	defer b.mu.Unlock()

	switch to {
	case gobreaker.StateOpen:
		b.trips++
		cooldown := b.cooldownFor(b.trips)
		b.openUntil = b.now().Add(cooldown)
		logging.Warn().
			Str("breaker", name).
			Uint32("consecutive_trips", b.trips).
			Dur("cooldown", cooldown).
			Msg("circuit breaker opened")
	case gobreaker.StateClosed:
		b.trips = 0
		b.openUntil = time.Time{}
	case gobreaker.StateHalfOpen:
		// Trial window; nothing to track.
	}
}

// cooldownFor computes the escalated cooldown for the given consecutive
// trip count: base doubled per extra trip, capped at MaxCooldown.
// Caller holds mu.
func (b *Breaker) cooldownFor(trips uint32) time.Duration {
	cooldown := b.cfg.Cooldown
	for i := uint32(1); i < trips; i++ {
		cooldown *= 2
		if cooldown >= b.cfg.MaxCooldown {
			return b.cfg.MaxCooldown
		}
	}
	if cooldown > b.cfg.MaxCooldown {
		return b.cfg.MaxCooldown
	}
	return cooldown
}

// Allow reports whether a call may proceed right now. It rejects while
// the escalated cooldown deadline has not passed, without touching the
// underlying state machine.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.now().Before(b.openUntil)
}

// Execute runs fn under breaker protection. It returns ErrBreakerOpen
// without invoking fn when the circuit is open or a half-open trial is
// already in flight; otherwise fn's result and error are passed through
// and counted.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	if !b.Allow() {
		return nil, ErrBreakerOpen
	}

	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrBreakerOpen
		}
		return nil, err
	}
	return result, nil
}

// State returns the current state as "closed", "half-open" or "open".
func (b *Breaker) State() string {
	b.mu.Lock()
	openUntil := b.openUntil
	b.mu.Unlock()

	if b.now().Before(openUntil) {
		return gobreaker.StateOpen.String()
	}
	return b.cb.State().String()
}

// Failures returns the total failure count of the current counting
// window.
func (b *Breaker) Failures() uint32 {
	return b.cb.Counts().TotalFailures
}

// stateToFloat maps breaker states to gauge values.
func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
