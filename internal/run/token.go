// Package run hosts the execution contracts for long-running operations:
// the progress reporter callback, cooperative cancellation tokens, and
// the background runner that drives task executors.
package run

import "sync"

// Token is a cooperative cancellation signal. Long-running loops poll it
// at bounded intervals (per page fetched, per file processed) and stop
// promptly when it fires. Cancellation is never preemptive.
type Token struct {
	once sync.Once
	done chan struct{}
}

// NewToken returns an unset token.
func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel sets the token. Safe to call multiple times and from multiple
// goroutines.
func (t *Token) Cancel() {
	t.once.Do(func() { close(t.done) })
}

// Cancelled reports whether the token has been set.
func (t *Token) Cancelled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed on cancellation, for select-based loops.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Source hands out per-task tokens. It is injected into whatever owns
// task execution rather than living in process globals, so tests can
// build independent instances without cross-test leakage.
type Source struct {
	mu     sync.Mutex
	tokens map[string]*Token
}

// NewSource returns an empty token source.
func NewSource() *Source {
	return &Source{tokens: make(map[string]*Token)}
}

// Token returns the token for the given task id, creating it if needed.
func (s *Source) Token(taskID string) *Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.tokens[taskID]
	if !ok {
		tok = NewToken()
		s.tokens[taskID] = tok
	}
	return tok
}

// Cancel sets the token for a specific task id. Returns false if no
// token was ever handed out for that id.
func (s *Source) Cancel(taskID string) bool {
	s.mu.Lock()
	tok, ok := s.tokens[taskID]
	s.mu.Unlock()

	if !ok {
		return false
	}
	tok.Cancel()
	return true
}

// CancelAll sets every outstanding token. Used for process-wide
// interrupts that should cancel all in-flight tasks.
func (s *Source) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tok := range s.tokens {
		tok.Cancel()
	}
}

// Release forgets the token for a finished task.
func (s *Source) Release(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, taskID)
}
