package executor

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/agentfarm/orchestrator/internal/farm"
)

// RetryConfig configures exponential backoff retry behavior.
type RetryConfig struct {
	InitialInterval     time.Duration // Initial retry interval (default 100ms)
	MaxInterval         time.Duration // Maximum retry interval (default 10s)
	MaxElapsedTime      time.Duration // Maximum total retry time (default 2min)
	Multiplier          float64       // Backoff multiplier (default 2.0)
	RandomizationFactor float64       // Jitter factor (default 0.5)
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval:     100 * time.Millisecond,
		MaxInterval:         10 * time.Second,
		MaxElapsedTime:      2 * time.Minute,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
	}
}

// BreakerRegistry manages per-task-type circuit breakers, so a capability
// whose executions keep failing stops being hammered while other task types
// proceed normally.
type BreakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakerRegistry creates an empty breaker registry.
func NewBreakerRegistry() *BreakerRegistry {
	return &BreakerRegistry{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Get returns the circuit breaker for the given task type, creating it on
// first use.
func (r *BreakerRegistry) Get(taskType string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[taskType]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        taskType,
		MaxRequests: 3,                // Allow 3 test requests in half-open state
		Interval:    0,                // Don't clear counts automatically
		Timeout:     30 * time.Second, // Stay open for 30s before testing recovery
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %q: %s -> %s", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			// Don't count caller cancellation as an executor failure
			if err == nil {
				return true
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return true
			}
			return false
		},
	})

	r.breakers[taskType] = cb
	return cb
}

// Resilient wraps an executor delegate with exponential backoff retry and
// per-task-type circuit breaker protection. Only errors returned by the
// inner delegate are retried; a result with failure status is a definitive
// outcome and passes through untouched.
type Resilient struct {
	inner    farm.Executor
	retryCfg RetryConfig
	breakers *BreakerRegistry
}

// NewResilient wraps the given executor.
func NewResilient(inner farm.Executor, retryCfg RetryConfig) *Resilient {
	return &Resilient{
		inner:    inner,
		retryCfg: retryCfg,
		breakers: NewBreakerRegistry(),
	}
}

// Execute runs the inner delegate with retry and circuit breaker protection.
func (r *Resilient) Execute(ctx context.Context, task *farm.Task, agentID, outputFile string) (*farm.Result, error) {
	cb := r.breakers.Get(task.Type)
	var result *farm.Result

	operation := func() error {
		// Fail fast if the caller cancelled
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		out, err := cb.Execute(func() (interface{}, error) {
			return r.inner.Execute(ctx, task, agentID, outputFile)
		})
		if err != nil {
			// Circuit open: retrying immediately changes nothing
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}

		result = out.(*farm.Result)
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.retryCfg.InitialInterval
	policy.MaxInterval = r.retryCfg.MaxInterval
	policy.MaxElapsedTime = r.retryCfg.MaxElapsedTime
	policy.Multiplier = r.retryCfg.Multiplier
	policy.RandomizationFactor = r.retryCfg.RandomizationFactor

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return result, nil
}
