// Package runstate implements the session run-status machine that gates new
// submissions and recovers automatically from errors.
package runstate

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultRecoveryDelay is how long the machine stays in StatusError before
// returning to StatusIdle on its own.
const DefaultRecoveryDelay = 3000 * time.Millisecond

// ErrInvalidTransition is returned when a transition is not allowed from the
// current status.
var ErrInvalidTransition = errors.New("runstate: invalid transition")

// Status is the process-wide run status of a session.
type Status int

const (
	StatusIdle    Status = iota // Ready to accept a submission
	StatusRunning               // An engine call is in flight
	StatusError                 // The last run failed; recovering
)

// validTransitions defines the allowed Status transitions.
var validTransitions = map[Status][]Status{
	StatusIdle:    {StatusRunning},
	StatusRunning: {StatusIdle, StatusError},
	StatusError:   {StatusIdle, StatusRunning},
}

// CanTransitionTo reports whether transitioning from s to next is valid.
func (s Status) CanTransitionTo(next Status) bool {
	for _, valid := range validTransitions[s] {
		if valid == next {
			return true
		}
	}
	return false
}

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Label returns a capitalised label for status bars.
func (s Status) Label() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusRunning:
		return "Running"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = StatusIdle
	case "running":
		*s = StatusRunning
	case "error":
		*s = StatusError
	default:
		return fmt.Errorf("runstate: unknown status %q", b)
	}
	return nil
}

// Timer is the part of *time.Timer the machine needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ChangeFunc observes a transition. It is called without the machine's lock
// held, so it may read the machine but must not block for long.
type ChangeFunc func(from, to Status)

// Machine tracks {idle, running, error}. The zero value is not usable; call New.
type Machine struct {
	mu        sync.Mutex
	status    Status
	delay     time.Duration
	gen       uint64
	pending   Timer
	afterFunc AfterFunc
	onChange  ChangeFunc
}

// Option configures a Machine.
type Option func(*Machine)

// WithRecoveryDelay overrides DefaultRecoveryDelay.
func WithRecoveryDelay(d time.Duration) Option {
	return func(m *Machine) { m.delay = d }
}

// WithAfterFunc replaces the scheduler used for auto-recovery.
func WithAfterFunc(f AfterFunc) Option {
	return func(m *Machine) { m.afterFunc = f }
}

// WithOnChange registers a transition observer.
func WithOnChange(f ChangeFunc) Option {
	return func(m *Machine) { m.onChange = f }
}

// New creates a Machine in StatusIdle.
func New(opts ...Option) *Machine {
	m := &Machine{
		status:    StatusIdle,
		delay:     DefaultRecoveryDelay,
		afterFunc: stdAfterFunc,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status returns the current status.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// RecoveryDelay returns the configured auto-recovery delay.
func (m *Machine) RecoveryDelay() time.Duration {
	return m.delay
}

// Begin moves idle or error to running and returns the status it left. A
// pending auto-recovery is superseded.
func (m *Machine) Begin() (Status, error) {
	return m.transition(StatusRunning)
}

// Succeed moves running to idle.
func (m *Machine) Succeed() error {
	_, err := m.transition(StatusIdle, StatusRunning)
	return err
}

// Fail moves running to error and schedules the return to idle.
func (m *Machine) Fail() error {
	_, err := m.transition(StatusError)
	return err
}

// Stop cancels any pending auto-recovery. The status is left unchanged.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.cancelPending()
}

// transition moves to next. If from is given, the current status must be
// one of them in addition to the transition table allowing it.
func (m *Machine) transition(next Status, from ...Status) (Status, error) {
	m.mu.Lock()
	prev := m.status
	if !prev.CanTransitionTo(next) || (len(from) > 0 && !contains(from, prev)) {
		m.mu.Unlock()
		return prev, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev, next)
	}
	m.gen++
	m.cancelPending()
	m.status = next
	if next == StatusError {
		gen := m.gen
		m.pending = m.afterFunc(m.delay, func() { m.recover(gen) })
	}
	onChange := m.onChange
	m.mu.Unlock()

	if onChange != nil {
		onChange(prev, next)
	}
	return prev, nil
}

// recover fires from the auto-recovery timer. A timer from an older
// generation is ignored so it can never interrupt a later run.
func (m *Machine) recover(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.status != StatusError {
		m.mu.Unlock()
		return
	}
	m.gen++
	m.pending = nil
	m.status = StatusIdle
	onChange := m.onChange
	m.mu.Unlock()

	if onChange != nil {
		onChange(StatusError, StatusIdle)
	}
}

func (m *Machine) cancelPending() {
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
}

func contains(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
