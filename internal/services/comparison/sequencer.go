package comparison

import "sync"

// Token identifies one request of a logical operation.
type Token struct {
	Op  string
	Seq uint64
}

// Sequencer hands out increasing tokens per operation so that only the
// response to the most recent request of each operation is applied.
type Sequencer struct {
	mu     sync.Mutex
	latest map[string]uint64
}

// Next issues a token for op that supersedes every earlier token for op.
func (s *Sequencer) Next(op string) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		s.latest = make(map[string]uint64)
	}
	s.latest[op]++
	return Token{Op: op, Seq: s.latest[op]}
}

// IsLatest reports whether t is still the newest token issued for its op.
func (s *Sequencer) IsLatest(t Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[t.Op] == t.Seq
}
