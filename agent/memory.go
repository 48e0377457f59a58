package agent

import "sync"

// Memory is a bounded conversation buffer. The newest maxTurns exchanges
// are kept and handed to prompts as history.
type Memory struct {
	mu       sync.Mutex
	turns    []Message
	maxTurns int
}

const defaultMaxTurns = 20

func NewMemory(maxTurns int) *Memory {
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &Memory{maxTurns: maxTurns}
}

// Record appends one user/assistant exchange, evicting the oldest turns
// past the cap.
func (m *Memory) Record(input, output string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns,
		Message{Role: "user", Content: input},
		Message{Role: "assistant", Content: output},
	)
	if over := len(m.turns) - m.maxTurns*2; over > 0 {
		m.turns = m.turns[over:]
	}
}

// History returns a copy of the buffered turns, oldest first.
func (m *Memory) History() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.turns))
	copy(out, m.turns)
	return out
}

// Clear drops all buffered turns.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}
