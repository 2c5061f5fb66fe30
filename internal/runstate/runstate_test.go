package runstate

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeScheduler captures scheduled callbacks so tests can fire them on demand.
type fakeScheduler struct {
	mu      sync.Mutex
	delays  []time.Duration
	funcs   []func()
	stopped []bool
}

type fakeTimer struct {
	s *fakeScheduler
	i int
}

func (t fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	was := !t.s.stopped[t.i]
	t.s.stopped[t.i] = true
	return was
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.funcs = append(s.funcs, f)
	s.stopped = append(s.stopped, false)
	return fakeTimer{s: s, i: len(s.funcs) - 1}
}

// fire runs callback i even if it was stopped, mimicking a timer that had
// already fired when Stop was called.
func (s *fakeScheduler) fire(i int) {
	s.mu.Lock()
	f := s.funcs[i]
	s.mu.Unlock()
	f()
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusIdle, StatusRunning, true},
		{StatusIdle, StatusError, false},
		{StatusIdle, StatusIdle, false},
		{StatusRunning, StatusIdle, true},
		{StatusRunning, StatusError, true},
		{StatusRunning, StatusRunning, false},
		{StatusError, StatusIdle, true},
		{StatusError, StatusRunning, true},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestHappyPath(t *testing.T) {
	m := New()
	if m.Status() != StatusIdle {
		t.Fatalf("initial status: got %s", m.Status())
	}
	from, err := m.Begin()
	if err != nil {
		t.Fatal(err)
	}
	if from != StatusIdle {
		t.Errorf("Begin left %s, want idle", from)
	}
	if m.Status() != StatusRunning {
		t.Errorf("after Begin: got %s", m.Status())
	}
	if err := m.Succeed(); err != nil {
		t.Fatal(err)
	}
	if m.Status() != StatusIdle {
		t.Errorf("after Succeed: got %s", m.Status())
	}
}

func TestBeginWhileRunningRejected(t *testing.T) {
	m := New()
	_, _ = m.Begin()
	_, err := m.Begin()
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSucceedFromErrorRejected(t *testing.T) {
	fs := &fakeScheduler{}
	m := New(WithAfterFunc(fs.AfterFunc))
	_, _ = m.Begin()
	_ = m.Fail()
	if err := m.Succeed(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestFailSchedulesRecovery(t *testing.T) {
	fs := &fakeScheduler{}
	m := New(WithAfterFunc(fs.AfterFunc))

	_, _ = m.Begin()
	if err := m.Fail(); err != nil {
		t.Fatal(err)
	}
	if m.Status() != StatusError {
		t.Fatalf("after Fail: got %s", m.Status())
	}
	if len(fs.delays) != 1 || fs.delays[0] != DefaultRecoveryDelay {
		t.Fatalf("expected one recovery scheduled at %s, got %v", DefaultRecoveryDelay, fs.delays)
	}

	fs.fire(0)
	if m.Status() != StatusIdle {
		t.Errorf("after recovery: got %s", m.Status())
	}
}

func TestBeginPreemptsRecovery(t *testing.T) {
	fs := &fakeScheduler{}
	m := New(WithAfterFunc(fs.AfterFunc))

	_, _ = m.Begin()
	_ = m.Fail()
	from, err := m.Begin()
	if err != nil {
		t.Fatalf("Begin from error: %v", err)
	}
	if from != StatusError {
		t.Errorf("Begin left %s, want error", from)
	}
	if !fs.stopped[0] {
		t.Error("expected pending recovery to be stopped")
	}

	// A timer that raced past Stop must not knock the new run back to idle.
	fs.fire(0)
	if m.Status() != StatusRunning {
		t.Errorf("stale recovery changed status to %s", m.Status())
	}
}

func TestStaleRecoveryAfterSecondFailure(t *testing.T) {
	fs := &fakeScheduler{}
	m := New(WithAfterFunc(fs.AfterFunc))

	_, _ = m.Begin()
	_ = m.Fail()
	_, _ = m.Begin()
	_ = m.Fail()

	fs.fire(0)
	if m.Status() != StatusError {
		t.Errorf("first timer recovered the second failure early: %s", m.Status())
	}
	fs.fire(1)
	if m.Status() != StatusIdle {
		t.Errorf("second timer: got %s", m.Status())
	}
}

func TestOnChange(t *testing.T) {
	fs := &fakeScheduler{}
	var got [][2]Status
	m := New(WithAfterFunc(fs.AfterFunc), WithOnChange(func(from, to Status) {
		got = append(got, [2]Status{from, to})
	}))

	_, _ = m.Begin()
	_ = m.Fail()
	fs.fire(0)

	want := [][2]Status{
		{StatusIdle, StatusRunning},
		{StatusRunning, StatusError},
		{StatusError, StatusIdle},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d transitions, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRealTimerRecovery(t *testing.T) {
	m := New(WithRecoveryDelay(20 * time.Millisecond))
	_, _ = m.Begin()
	_ = m.Fail()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Status() == StatusIdle {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("status did not recover, still %s", m.Status())
}

func TestStopCancelsRecovery(t *testing.T) {
	fs := &fakeScheduler{}
	m := New(WithAfterFunc(fs.AfterFunc))
	_, _ = m.Begin()
	_ = m.Fail()
	m.Stop()
	fs.fire(0)
	if m.Status() != StatusError {
		t.Errorf("expected status to stay error after Stop, got %s", m.Status())
	}
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{StatusIdle, StatusRunning, StatusError} {
		b, _ := s.MarshalText()
		var back Status
		if err := back.UnmarshalText(b); err != nil {
			t.Fatal(err)
		}
		if back != s {
			t.Errorf("got %s, want %s", back, s)
		}
	}
	var s Status
	if err := s.UnmarshalText([]byte("paused")); err == nil {
		t.Error("expected error for unknown status")
	}
}
