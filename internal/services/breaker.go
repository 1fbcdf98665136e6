package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"fundmatch/ai-fund-matcher/internal/cache"
)

type CircuitState string

const (
	CircuitClosed   CircuitState = "CLOSED"
	CircuitOpen     CircuitState = "OPEN"
	CircuitHalfOpen CircuitState = "HALF_OPEN"
)

// CircuitBreaker gatekeeps the upstream LLM. Callers must Admit() before
// every upstream attempt and ReportResult() exactly once afterwards, timeouts
// and cancellations included.
type CircuitBreaker interface {
	// Admit returns false when the caller must fast-fail to the fallback
	// generator. While half-open, at most one caller is admitted until its
	// probe resolves.
	Admit(ctx context.Context) bool

	ReportResult(ctx context.Context, success bool)

	State(ctx context.Context) CircuitState
}

// breakerState is the JSON document stored in the shared cache. The breaker
// has no in-process state at all, so any number of engine instances share
// one logical breaker through compare-and-swap on this document.
type breakerState struct {
	State CircuitState `json:"state"`
	// Failures holds unix-millisecond timestamps inside the rolling window.
	Failures      []int64 `json:"failures,omitempty"`
	OpenedAt      int64   `json:"opened_at,omitempty"`
	ProbeInFlight bool    `json:"probe_in_flight,omitempty"`
	ChangedAt     int64   `json:"changed_at,omitempty"`
}

const breakerCASRetries = 4

type BreakerConfig struct {
	FailureThreshold int
	Window           time.Duration
	CoolDown         time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		Window:           60 * time.Second,
		CoolDown:         30 * time.Second,
	}
}

type cacheCircuitBreaker struct {
	cache  cache.Cache
	key    string
	cfg    BreakerConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewCircuitBreaker(c cache.Cache, cfg BreakerConfig, logger *zap.Logger) CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 60 * time.Second
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = 30 * time.Second
	}
	return &cacheCircuitBreaker{
		cache:  c,
		key:    "ai:breaker",
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (b *cacheCircuitBreaker) load(ctx context.Context) (breakerState, string, error) {
	raw, found, err := b.cache.Get(ctx, b.key)
	if err != nil {
		return breakerState{}, "", err
	}
	if !found {
		return breakerState{State: CircuitClosed}, "", nil
	}

	var state breakerState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		// A corrupt document means starting over closed; the window refills
		// quickly if the upstream is still failing.
		b.logger.Warn("breaker state corrupt, resetting", zap.Error(err))
		return breakerState{State: CircuitClosed}, raw, nil
	}
	return state, raw, nil
}

func (b *cacheCircuitBreaker) store(ctx context.Context, old string, state breakerState) (bool, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return false, err
	}
	return b.cache.CompareAndSwap(ctx, b.key, old, string(payload), 0)
}

// Admit implements CircuitBreaker.
func (b *cacheCircuitBreaker) Admit(ctx context.Context) bool {
	now := b.now()

	for attempt := 0; attempt < breakerCASRetries; attempt++ {
		state, raw, err := b.load(ctx)
		if err != nil {
			// The breaker must never add latency or failure modes of its
			// own; with the cache unreachable, admit and let the upstream
			// result speak.
			b.logger.Warn("breaker cache unavailable, admitting", zap.Error(err))
			return true
		}

		switch state.State {
		case CircuitClosed:
			return true

		case CircuitOpen:
			if now.Sub(time.UnixMilli(state.OpenedAt)) < b.cfg.CoolDown {
				return false
			}
			// Cool-down elapsed: try to claim the half-open probe slot. The
			// CAS makes the claim atomic across instances; losers are
			// rejected until the probe resolves.
			next := breakerState{
				State:         CircuitHalfOpen,
				ProbeInFlight: true,
				ChangedAt:     now.UnixMilli(),
			}
			ok, err := b.store(ctx, raw, next)
			if err != nil {
				b.logger.Warn("breaker state write failed, admitting", zap.Error(err))
				return true
			}
			if ok {
				b.logger.Info("circuit breaker half-open, probe claimed")
				return true
			}
			// Someone else transitioned first; re-read.

		case CircuitHalfOpen:
			if state.ProbeInFlight {
				return false
			}
			next := state
			next.ProbeInFlight = true
			next.ChangedAt = now.UnixMilli()
			ok, err := b.store(ctx, raw, next)
			if err != nil {
				b.logger.Warn("breaker state write failed, admitting", zap.Error(err))
				return true
			}
			if ok {
				return true
			}

		default:
			return true
		}
	}

	// Contention exhausted the retry budget; reject rather than risk a
	// second concurrent probe.
	return false
}

// ReportResult implements CircuitBreaker.
func (b *cacheCircuitBreaker) ReportResult(ctx context.Context, success bool) {
	now := b.now()

	for attempt := 0; attempt < breakerCASRetries; attempt++ {
		state, raw, err := b.load(ctx)
		if err != nil {
			b.logger.Warn("breaker cache unavailable, dropping result", zap.Error(err))
			return
		}

		var next breakerState
		switch state.State {
		case CircuitHalfOpen:
			if success {
				next = breakerState{State: CircuitClosed, ChangedAt: now.UnixMilli()}
				b.logger.Info("circuit breaker closed after successful probe")
			} else {
				next = breakerState{State: CircuitOpen, OpenedAt: now.UnixMilli(), ChangedAt: now.UnixMilli()}
				b.logger.Warn("circuit breaker re-opened after failed probe")
			}

		case CircuitClosed:
			failures := pruneFailures(state.Failures, now, b.cfg.Window)
			if success {
				if len(failures) == len(state.Failures) {
					return
				}
				next = state
				next.Failures = failures
			} else {
				failures = append(failures, now.UnixMilli())
				if len(failures) >= b.cfg.FailureThreshold {
					next = breakerState{State: CircuitOpen, OpenedAt: now.UnixMilli(), ChangedAt: now.UnixMilli()}
					b.logger.Warn("circuit breaker opened",
						zap.Int("failures", len(failures)),
						zap.Duration("window", b.cfg.Window))
				} else {
					next = state
					next.Failures = failures
				}
			}

		case CircuitOpen:
			// A late result from a call admitted before the trip. The open
			// state already reflects the outage; nothing to record.
			return

		default:
			return
		}

		ok, err := b.store(ctx, raw, next)
		if err != nil {
			b.logger.Warn("breaker state write failed", zap.Error(err))
			return
		}
		if ok {
			return
		}
	}
}

// State implements CircuitBreaker. For observability only; admission must go
// through Admit so the half-open slot is claimed atomically.
func (b *cacheCircuitBreaker) State(ctx context.Context) CircuitState {
	state, _, err := b.load(ctx)
	if err != nil {
		return CircuitClosed
	}
	return state.State
}

func pruneFailures(failures []int64, now time.Time, window time.Duration) []int64 {
	cutoff := now.Add(-window).UnixMilli()
	kept := make([]int64, 0, len(failures))
	for _, ts := range failures {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	return kept
}
