// Package research runs legal-research queries and keeps a per-user history.
package research

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"wakili_legal_assistant/agent"
)

// Response is one answered research query.
type Response struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Sources   []string  `json:"sources"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service answers queries through the research agent and remembers them.
// History lives in memory, newest first, capped per user.
type Service struct {
	mu      sync.Mutex
	agent   *agent.ResearchAgent
	history map[string][]Response
	maxKeep int
}

const defaultMaxHistory = 100

func NewService(ra *agent.ResearchAgent) *Service {
	return &Service{
		agent:   ra,
		history: make(map[string][]Response),
		maxKeep: defaultMaxHistory,
	}
}

func (s *Service) Query(ctx context.Context, userID, question string) (Response, error) {
	res, err := s.agent.Query(ctx, question, nil)
	if err != nil {
		return Response{}, err
	}
	if res.Sources == nil {
		res.Sources = []string{}
	}
	resp := Response{
		ID:        uuid.NewString(),
		Question:  question,
		Answer:    res.Answer,
		Sources:   res.Sources,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entries := append([]Response{resp}, s.history[userID]...)
	if len(entries) > s.maxKeep {
		entries = entries[:s.maxKeep]
	}
	s.history[userID] = entries
	return resp, nil
}

// History returns the user's past responses, newest first.
func (s *Service) History(userID string) []Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Response, len(s.history[userID]))
	copy(out, s.history[userID])
	return out
}
