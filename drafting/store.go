package drafting

import (
	"sort"
	"sync"
)

// store keeps drafts in memory behind a mutex. Services take the lock for
// state mutation and release it around model calls.
type store struct {
	mu     sync.Mutex
	drafts map[string]*DocumentDraft
}

func newStore() *store {
	return &store{drafts: make(map[string]*DocumentDraft)}
}

func (s *store) set(d *DocumentDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ID] = d
}

// get enforces ownership: a wrong user gets ErrForbidden, a missing or
// deleted draft ErrNotFound.
func (s *store) get(draftID, userID string) (*DocumentDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[draftID]
	if !ok || d.Status == DraftDeleted {
		return nil, ErrNotFound
	}
	if d.UserID != userID {
		return nil, ErrForbidden
	}
	return d, nil
}

// snapshot returns a detached copy of d taken under the store lock.
func (s *store) snapshot(d *DocumentDraft) *DocumentDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return d.clone()
}

func (s *store) list(userID string) []*DocumentDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*DocumentDraft
	for _, d := range s.drafts {
		if d.UserID == userID && d.Status != DraftDeleted {
			out = append(out, d.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}
