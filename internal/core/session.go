package core

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Ticket tracks one validation run started by a Session.
type Ticket struct {
	ID   string
	File string

	cancel context.CancelFunc
	done   chan struct{}
	result Result

	mu         sync.Mutex
	superseded bool
}

// Done is closed once the run has finished.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Result returns the run's result once it has finished.
func (t *Ticket) Result() (Result, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return Result{}, false
	}
}

// Wait blocks until the run finishes or ctx is done.
func (t *Ticket) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Superseded reports whether a newer selection replaced this run.
// A superseded run's result must be ignored by the caller.
func (t *Ticket) Superseded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.superseded
}

func (t *Ticket) supersede() {
	t.mu.Lock()
	t.superseded = true
	t.mu.Unlock()
	t.cancel()
}

// Session follows a single file selection slot, such as the file field of an
// import form. Each new selection supersedes the previous one: the old run is
// cancelled, its streams stop reading, and its result is never published.
type Session struct {
	validator *Validator

	mu      sync.Mutex
	current *Ticket
	latest  *Result
}

// NewSession creates a Session that validates with v.
func NewSession(v *Validator) *Session {
	return &Session{validator: v}
}

// Select starts validating src in the background and makes it the current
// selection.
func (s *Session) Select(ctx context.Context, src Source) *Ticket {
	runCtx, cancel := context.WithCancel(ctx)
	t := &Ticket{
		ID:     uuid.NewString(),
		File:   src.Name(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	prev := s.current
	s.current = t
	s.latest = nil
	s.mu.Unlock()

	if prev != nil {
		prev.supersede()
	}

	go func() {
		defer cancel()

		res := s.validator.Validate(runCtx, src)
		t.result = res

		s.mu.Lock()
		if s.current == t {
			s.latest = &res
		}
		s.mu.Unlock()

		close(t.done)
	}()

	return t
}

// Clear cancels any in-flight run and forgets the selection.
func (s *Session) Clear() {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.latest = nil
	s.mu.Unlock()

	if prev != nil {
		prev.supersede()
	}
}

// Current returns the ticket of the current selection, if any.
func (s *Session) Current() *Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Latest returns the result of the current selection once it is available.
func (s *Session) Latest() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return Result{}, false
	}
	return *s.latest, true
}
