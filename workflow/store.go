package workflow

import (
	"sort"
	"sync"
)

type store struct {
	mu        sync.Mutex
	workflows map[string]*Workflow
}

func newStore() *store {
	return &store{workflows: make(map[string]*Workflow)}
}

func (s *store) set(w *Workflow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[w.ID] = w
}

func (s *store) get(workflowID, userID string) (*Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workflows[workflowID]
	if !ok {
		return nil, ErrNotFound
	}
	if w.UserID != userID {
		return nil, ErrForbidden
	}
	return w, nil
}

// snapshot returns a detached copy of w taken under the store lock.
func (s *store) snapshot(w *Workflow) *Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return w.clone()
}

func (s *store) delete(workflowID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workflows, workflowID)
}

func (s *store) list(userID string) []*Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Workflow
	for _, w := range s.workflows {
		if w.UserID == userID {
			out = append(out, w.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}
