package search

import (
	"context"
	"sync"
	"time"

	"github.com/rubiojr/estatedesk/pkg/core"
	"github.com/rubiojr/estatedesk/pkg/debounce"
)

// Update is what a Session delivers to its consumer.
type Update struct {
	// Seq increases with every search or clear the session starts.
	Seq     uint64
	Query   string
	Results core.ResultSet
	// Cleared marks a reset to the empty result set.
	Cleared bool
	// Err is set when the caller's permissions could not be resolved; no
	// entity type was searched.
	Err error
}

// PermissionSource resolves the caller's searchable entity types. A
// Session calls it before every search so revocations apply to the next
// keystroke.
type PermissionSource func(ctx context.Context) (PermissionMap, error)

// StaticPermissions returns a PermissionSource that always yields perms.
func StaticPermissions(perms PermissionMap) PermissionSource {
	return func(context.Context) (PermissionMap, error) { return perms, nil }
}

// SessionOptions configures a Session.
type SessionOptions struct {
	Limit       int
	Delay       time.Duration
	Permissions PermissionSource
	// Scheduler overrides the debounce timer source (tests).
	Scheduler debounce.Scheduler
}

// Session is a live search for a single consumer. Keystrokes go through a
// debounce controller; when it fires the session searches and hands the
// result to the sink. Starting a search cancels the one still in flight,
// and a result is only delivered if no newer search or clear has started
// since, so a slow early response can never overwrite a later one.
type Session struct {
	service *Service
	limit   int
	perms   PermissionSource
	sink    func(Update)
	ctrl    *debounce.Controller
	wg      sync.WaitGroup

	mu     sync.Mutex
	base   context.Context
	seq    uint64
	cancel context.CancelFunc
	closed bool
}

// NewSession binds a session to ctx; cancelling ctx has the same effect on
// in-flight searches as Close.
func NewSession(ctx context.Context, service *Service, opts SessionOptions, sink func(Update)) *Session {
	s := &Session{
		service: service,
		limit:   opts.Limit,
		perms:   opts.Permissions,
		sink:    sink,
		base:    ctx,
	}
	if s.perms == nil {
		s.perms = StaticPermissions(nil)
	}
	ctrlOpts := []debounce.Option{debounce.WithDelay(opts.Delay)}
	if opts.Scheduler != nil {
		ctrlOpts = append(ctrlOpts, debounce.WithScheduler(opts.Scheduler))
	}
	s.ctrl = debounce.New(s.run, s.reset, ctrlOpts...)
	return s
}

// Type feeds the current contents of the search box.
func (s *Session) Type(text string) {
	s.ctrl.Change(text)
}

// Submit runs the pending search right away. The sequence number is taken
// before Submit returns and the search itself runs in the background, so a
// Clear or Type that follows supersedes it.
func (s *Session) Submit() {
	text, ok := s.ctrl.Take()
	if !ok {
		return
	}
	seq, ctx, ok := s.begin(true)
	if !ok {
		return
	}
	go func() {
		defer s.wg.Done()
		s.search(ctx, seq, text)
	}()
}

// Clear empties the search box and the results.
func (s *Session) Clear() {
	s.ctrl.Clear()
}

// Close stops the debounce timer and cancels any in-flight search. No
// update is delivered after Close returns.
func (s *Session) Close() {
	s.ctrl.Close()
	s.mu.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// wait blocks until submitted searches have finished.
func (s *Session) wait() {
	s.wg.Wait()
}

// begin issues a new sequence number and cancels the previous search.
// tracked searches are counted for Close under the same lock that marks the
// session closed.
func (s *Session) begin(tracked bool) (uint64, context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, nil, false
	}
	if tracked {
		s.wg.Add(1)
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	ctx, cancel := context.WithCancel(s.base)
	s.cancel = cancel
	return s.seq, ctx, true
}

func (s *Session) run(text string) {
	seq, ctx, ok := s.begin(false)
	if !ok {
		return
	}
	s.search(ctx, seq, text)
}

func (s *Session) search(ctx context.Context, seq uint64, text string) {
	perms, err := s.perms(ctx)
	if err != nil {
		s.deliver(Update{Seq: seq, Query: text, Results: core.NewResultSet(), Err: err})
		return
	}
	results := s.service.Search(ctx, text, s.limit, perms)
	s.deliver(Update{Seq: seq, Query: text, Results: results})
}

func (s *Session) reset() {
	seq, _, ok := s.begin(false)
	if !ok {
		return
	}
	s.deliver(Update{Seq: seq, Results: core.NewResultSet(), Cleared: true})
}

// deliver hands u to the sink unless the session moved on. The lock is held
// while the sink runs so deliveries are never reordered.
func (s *Session) deliver(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || u.Seq != s.seq {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.sink(u)
}
