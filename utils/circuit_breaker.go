package utils

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned when calls are rejected without being
// attempted because the breaker has tripped.
var ErrBreakerOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// CircuitBreaker guards a flaky downstream (the realtime notifier).
// It trips after a run of consecutive failures and probes again after
// a cool-off timeout.
type CircuitBreaker struct {
	name        string
	maxFailures uint32
	timeout     time.Duration

	mutex    sync.Mutex
	state    State
	failures uint32
	expiry   time.Time
}

func NewCircuitBreaker(name string) *CircuitBreaker {
	return &CircuitBreaker{
		name:        name,
		maxFailures: 5,
		timeout:     30 * time.Second,
		state:       StateClosed,
	}
}

// Do runs op through the breaker. While the breaker is open, op is not
// invoked and ErrBreakerOpen is returned immediately.
func (cb *CircuitBreaker) Do(op func() error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := op()
	cb.afterRequest(err == nil)
	return err
}

func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.currentState(time.Now())
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.currentState(time.Now()) == StateOpen {
		return ErrBreakerOpen
	}
	return nil
}

func (cb *CircuitBreaker) afterRequest(success bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	state := cb.currentState(time.Now())

	if success {
		cb.failures = 0
		if state == StateHalfOpen {
			cb.state = StateClosed
		}
		return
	}

	cb.failures++
	if state == StateHalfOpen || cb.failures >= cb.maxFailures {
		cb.state = StateOpen
		cb.expiry = time.Now().Add(cb.timeout)
	}
}

// currentState must be called with the mutex held.
func (cb *CircuitBreaker) currentState(now time.Time) State {
	if cb.state == StateOpen && cb.expiry.Before(now) {
		cb.state = StateHalfOpen
		cb.failures = 0
	}
	return cb.state
}
