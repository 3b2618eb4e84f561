package navigator

import "sync"

// History is the platform's back/forward capability. A browser binding
// would map Push/Replace to pushState/replaceState and call
// Navigator.Restore from its popstate listener.
type History interface {
	Push(url string)
	Replace(url string)
	Back() (string, bool)
	Forward() (string, bool)
	Entries() []string
	Len() int
}

// Stack is an in-memory History with a cursor. Pushing while the cursor is
// not at the top drops the forward branch.
type Stack struct {
	mu      sync.Mutex
	entries []string
	cursor  int
}

// NewStack returns an empty Stack.
func NewStack() *Stack {
	return &Stack{cursor: -1}
}

// Push implements History.
func (s *Stack) Push(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries[:s.cursor+1], url)
	s.cursor = len(s.entries) - 1
}

// Replace implements History. On an empty stack it records the initial entry.
func (s *Stack) Replace(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor < 0 {
		s.entries = []string{url}
		s.cursor = 0
		return
	}
	s.entries[s.cursor] = url
}

// Back implements History.
func (s *Stack) Back() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor <= 0 {
		return "", false
	}
	s.cursor--
	return s.entries[s.cursor], true
}

// Forward implements History.
func (s *Stack) Forward() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor >= len(s.entries)-1 {
		return "", false
	}
	s.cursor++
	return s.entries[s.cursor], true
}

// Entries implements History.
func (s *Stack) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.entries...)
}

// Len implements History.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
