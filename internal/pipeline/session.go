package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrSuperseded is returned by Session runs whose result was discarded
// because a newer run began or the session was reset meanwhile.
var ErrSuperseded = errors.New("superseded by a newer upload")

// Ticket identifies one run against a Session.
type Ticket uint64

// Session holds the single current profiling result. Results are installed
// only by the most recently started run, so a slow earlier upload can never
// overwrite a later one.
type Session struct {
	mu      sync.Mutex
	seq     uint64
	current *Output
}

// Begin starts a run and returns its ticket.
func (s *Session) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return Ticket(s.seq)
}

// Commit installs out as the current result if t is still the newest ticket.
// It reports whether out was installed.
func (s *Session) Commit(t Ticket, out *Output) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint64(t) != s.seq {
		return false
	}
	s.current = out
	return true
}

// Current returns the installed result, or nil.
func (s *Session) Current() *Output {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Reset clears the current result and invalidates every outstanding ticket.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.current = nil
}

// Run profiles in and installs the result. A failed run leaves the current
// result untouched.
func (s *Session) Run(ctx context.Context, in Input, opt Options) (*Output, error) {
	t := s.Begin()
	out, err := Profile(ctx, in, opt)
	return s.finish(t, out, err)
}

// RunReader is Run for streamed content.
func (s *Session) RunReader(ctx context.Context, name string, r io.Reader, opt Options) (*Output, error) {
	t := s.Begin()
	out, err := ProfileReader(ctx, name, r, opt)
	return s.finish(t, out, err)
}

func (s *Session) finish(t Ticket, out *Output, err error) (*Output, error) {
	if err != nil {
		return nil, err
	}
	if !s.Commit(t, out) {
		return out, ErrSuperseded
	}
	return out, nil
}
