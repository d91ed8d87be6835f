package game

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

type TimerState int

const (
	TimerIdle TimerState = iota
	TimerRunning
	TimerExpired
	TimerCancelled
)

func (s TimerState) String() string {
	switch s {
	case TimerIdle:
		return "idle"
	case TimerRunning:
		return "running"
	case TimerExpired:
		return "expired"
	case TimerCancelled:
		return "cancelled"
	}
	return "unknown"
}

// TimerEvent is emitted once per second while a run is active. Remaining == 0
// is the expiry notification and is emitted at most once per run.
type TimerEvent struct {
	Run       uint64
	Remaining int
}

func (e TimerEvent) Expired() bool {
	return e.Remaining == 0
}

// Countdown is the part of Timer the room state machine depends on.
type Countdown interface {
	Start(seconds int) uint64
	Cancel() bool
}

// Timer counts down in one-second steps and hands every step to emit. Each
// Start begins a new run with a fresh id so consumers can discard events from
// runs that were cancelled after the event was already in flight.
type Timer struct {
	tickers PeriodicTickerCreator
	emit    func(TimerEvent)

	l     deadlock.Mutex
	state TimerState
	run   uint64
	stop  chan struct{}
}

func NewTimer(tickers PeriodicTickerCreator, emit func(TimerEvent)) *Timer {
	return &Timer{tickers: tickers, emit: emit}
}

// Start cancels any active run and begins a new one.
func (t *Timer) Start(seconds int) uint64 {
	if seconds < 1 {
		seconds = 1
	}

	t.l.Lock()
	defer t.l.Unlock()

	if t.state == TimerRunning {
		close(t.stop)
	}
	t.run++
	t.state = TimerRunning
	t.stop = make(chan struct{})

	go t.countdown(t.run, seconds, t.stop)
	return t.run
}

// Cancel stops the active run. It returns false when no run is active.
func (t *Timer) Cancel() bool {
	t.l.Lock()
	defer t.l.Unlock()

	if t.state != TimerRunning {
		return false
	}
	t.state = TimerCancelled
	close(t.stop)
	return true
}

func (t *Timer) State() TimerState {
	t.l.Lock()
	defer t.l.Unlock()
	return t.state
}

func (t *Timer) Run() uint64 {
	t.l.Lock()
	defer t.l.Unlock()
	return t.run
}

func (t *Timer) countdown(run uint64, seconds int, stop chan struct{}) {
	ticker := t.tickers.Create(time.Second)
	defer ticker.Stop()

	for remaining := seconds; remaining > 0; {
		select {
		case <-stop:
			return
		case <-ticker.C():
		}
		remaining--

		if remaining == 0 && !t.expire(run) {
			return
		}

		select {
		case <-stop:
			if remaining > 0 {
				return
			}
		default:
		}
		t.emit(TimerEvent{Run: run, Remaining: remaining})
	}
}

func (t *Timer) expire(run uint64) bool {
	t.l.Lock()
	defer t.l.Unlock()

	if t.run != run || t.state != TimerRunning {
		return false
	}
	t.state = TimerExpired
	return true
}
