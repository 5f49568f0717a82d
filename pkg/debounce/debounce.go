// Package debounce delays a callback until its input has been quiet for a
// fixed interval. A Controller owns at most one pending timer: every new
// input cancels the previous timer, so only the latest input can fire.
package debounce

import (
	"strings"
	"sync"
	"time"
)

// DefaultDelay is the quiet period before the callback fires.
const DefaultDelay = 300 * time.Millisecond

// State of a Controller.
type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Timer is the subset of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

// Scheduler starts timers. The zero Controller uses the runtime clock.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type runtimeScheduler struct{}

func (runtimeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Controller debounces text input. OnFire receives the trimmed latest text
// once input has been quiet for the delay; OnClear runs synchronously when
// the input becomes empty or Clear is called.
type Controller struct {
	mu        sync.Mutex
	delay     time.Duration
	scheduler Scheduler
	onFire    func(text string)
	onClear   func()

	timer  Timer
	gen    uint64
	latest string
	closed bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithDelay overrides DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithScheduler replaces the timer source (tests use ManualScheduler).
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// New creates an idle controller. onClear may be nil.
func New(onFire func(text string), onClear func(), opts ...Option) *Controller {
	c := &Controller{
		delay:     DefaultDelay,
		scheduler: runtimeScheduler{},
		onFire:    onFire,
		onClear:   onClear,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Change records new input. Any pending timer is cancelled. Non-empty input
// schedules a fresh timer; empty input clears immediately.
func (c *Controller) Change(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopLocked()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		c.latest = ""
		c.mu.Unlock()
		c.clear()
		return
	}

	c.latest = trimmed
	gen := c.gen
	c.timer = c.scheduler.AfterFunc(c.delay, func() { c.fire(gen) })
	c.mu.Unlock()
}

// Clear cancels any pending timer and resets results synchronously.
func (c *Controller) Clear() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopLocked()
	c.latest = ""
	c.mu.Unlock()
	c.clear()
}

// Take cancels the pending timer and returns its input so the caller can
// act on it right away (e.g. on Enter). ok is false when nothing is pending.
func (c *Controller) Take() (text string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.timer == nil {
		return "", false
	}
	c.stopLocked()
	return c.latest, true
}

// Close cancels any pending timer. The controller ignores all later calls.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.closed = true
}

// State reports whether a timer is pending.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		return Pending
	}
	return Idle
}

// Latest returns the most recent non-empty input still in effect.
func (c *Controller) Latest() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// stopLocked cancels the pending timer. Bumping gen also disarms a timer
// whose callback already started but has not yet taken the lock.
func (c *Controller) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.gen++
	text := c.latest
	c.mu.Unlock()
	c.onFire(text)
}

func (c *Controller) clear() {
	if c.onClear != nil {
		c.onClear()
	}
}
