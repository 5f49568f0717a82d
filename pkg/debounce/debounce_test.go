package debounce

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	fired  []string
	clears int
}

func (r *recorder) fire(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, text)
}

func (r *recorder) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

func (r *recorder) snapshot() ([]string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.fired...), r.clears
}

func newTestController(t *testing.T) (*Controller, *ManualScheduler, *recorder) {
	t.Helper()
	rec := &recorder{}
	sched := NewManualScheduler()
	c := New(rec.fire, rec.clear, WithScheduler(sched))
	return c, sched, rec
}

func TestTypingBurstFiresOnceWithFinalText(t *testing.T) {
	c, sched, rec := newTestController(t)

	c.Change("a")
	sched.Advance(100 * time.Millisecond)
	c.Change("ab")
	sched.Advance(100 * time.Millisecond)
	c.Change("abc")

	if c.State() != Pending {
		t.Fatalf("expected pending state")
	}
	sched.Advance(299 * time.Millisecond)
	if fired, _ := rec.snapshot(); len(fired) != 0 {
		t.Fatalf("fired before quiet period elapsed: %v", fired)
	}

	sched.Advance(1 * time.Millisecond)
	fired, _ := rec.snapshot()
	if len(fired) != 1 || fired[0] != "abc" {
		t.Fatalf("expected exactly one fire with abc, got %v", fired)
	}
	if c.State() != Idle {
		t.Fatalf("expected idle after firing")
	}
	if sched.Pending() != 0 {
		t.Fatalf("superseded timers must be stopped, %d pending", sched.Pending())
	}
}

func TestChangeTrimsInput(t *testing.T) {
	c, sched, rec := newTestController(t)

	c.Change("  smith  ")
	sched.Advance(DefaultDelay)

	fired, _ := rec.snapshot()
	if len(fired) != 1 || fired[0] != "smith" {
		t.Fatalf("expected trimmed text, got %v", fired)
	}
}

func TestEmptyInputClearsWithoutScheduling(t *testing.T) {
	c, sched, rec := newTestController(t)

	c.Change("abc")
	c.Change("   ")

	if c.State() != Idle {
		t.Fatalf("empty input must leave controller idle")
	}
	sched.Advance(time.Second)

	fired, clears := rec.snapshot()
	if len(fired) != 0 {
		t.Fatalf("no fire expected, got %v", fired)
	}
	if clears != 1 {
		t.Fatalf("expected one clear, got %d", clears)
	}
}

func TestClearCancelsPendingTimer(t *testing.T) {
	c, sched, rec := newTestController(t)

	c.Change("smith")
	c.Clear()
	sched.Advance(time.Second)

	fired, clears := rec.snapshot()
	if len(fired) != 0 {
		t.Fatalf("cleared timer fired: %v", fired)
	}
	if clears != 1 {
		t.Fatalf("expected synchronous clear, got %d", clears)
	}
	if c.Latest() != "" {
		t.Fatalf("latest should reset, got %q", c.Latest())
	}
}

func TestCloseCancelsAndIgnoresLaterInput(t *testing.T) {
	c, sched, rec := newTestController(t)

	c.Change("smith")
	c.Close()
	sched.Advance(time.Second)
	c.Change("jones")
	c.Clear()
	sched.Advance(time.Second)

	fired, clears := rec.snapshot()
	if len(fired) != 0 || clears != 0 {
		t.Fatalf("closed controller must not call back: fired=%v clears=%d", fired, clears)
	}
}

func TestTakeReturnsPendingInput(t *testing.T) {
	c, sched, rec := newTestController(t)

	if _, ok := c.Take(); ok {
		t.Fatalf("take with nothing pending must report false")
	}

	c.Change("visit")
	text, ok := c.Take()
	if !ok || text != "visit" {
		t.Fatalf("expected pending input visit, got %q (%v)", text, ok)
	}
	if c.State() != Idle {
		t.Fatalf("expected idle after take, got %s", c.State())
	}
	sched.Advance(time.Second)

	if fired, _ := rec.snapshot(); len(fired) != 0 {
		t.Fatalf("taken input must not fire later, got %v", fired)
	}
	if _, ok := c.Take(); ok {
		t.Fatalf("second take must report false")
	}
}

func TestRuntimeSchedulerFires(t *testing.T) {
	done := make(chan string, 1)
	c := New(func(text string) { done <- text }, nil, WithDelay(10*time.Millisecond))
	defer c.Close()

	c.Change("a")
	c.Change("ab")

	select {
	case got := <-done:
		if got != "ab" {
			t.Fatalf("expected ab, got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timer never fired")
	}
}
