// Package chat holds per-user conversations and routes messages through the
// intent orchestrator.
package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wakili_legal_assistant/agent"
)

var ErrNotFound = errors.New("chat not found")

// ChatMessage is one stored turn of a conversation.
type ChatMessage struct {
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	Intent    agent.Intent `json:"intent,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Chat is one conversation owned by a single user.
type Chat struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`

	memory *agent.Memory
}

// clone copies the chat and its message slice so callers can serialize it
// after the store lock is released. Memory stays with the live record.
func (c *Chat) clone() *Chat {
	cp := *c
	cp.Messages = make([]ChatMessage, len(c.Messages))
	copy(cp.Messages, c.Messages)
	cp.memory = nil
	return &cp
}

type store struct {
	mu    sync.Mutex
	chats map[string]*Chat
}

func newStore() *store {
	return &store{chats: make(map[string]*Chat)}
}

// Service owns the chat store and the orchestrator that answers messages.
type Service struct {
	store *store
	orch  *agent.Orchestrator
}

func NewService(orch *agent.Orchestrator) *Service {
	return &Service{store: newStore(), orch: orch}
}

// Create opens a new conversation for the user.
func (s *Service) Create(userID, title string) *Chat {
	if title == "" {
		title = "Conversation " + time.Now().Format("2006-01-02 15:04")
	}
	c := &Chat{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		memory:    agent.NewMemory(0),
	}
	s.store.mu.Lock()
	s.store.chats[c.ID] = c
	s.store.mu.Unlock()
	return c.clone()
}

// lookup returns the live record. Callers must take the store lock before
// touching its messages.
func (s *Service) lookup(chatID, userID string) (*Chat, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	c, ok := s.store.chats[chatID]
	if !ok || c.UserID != userID {
		return nil, ErrNotFound
	}
	return c, nil
}

// Get returns a detached copy of the chat when it exists and belongs to the
// user.
func (s *Service) Get(chatID, userID string) (*Chat, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	c, ok := s.store.chats[chatID]
	if !ok || c.UserID != userID {
		return nil, ErrNotFound
	}
	return c.clone(), nil
}

// List returns copies of the user's chats, most recently updated first.
func (s *Service) List(userID string) []*Chat {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	var out []*Chat
	for _, c := range s.store.chats {
		if c.UserID == userID {
			out = append(out, c.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

// Send routes one user message through the orchestrator and stores both
// sides of the exchange.
func (s *Service) Send(ctx context.Context, chatID, userID, message string) (agent.Reply, error) {
	c, err := s.lookup(chatID, userID)
	if err != nil {
		return agent.Reply{}, err
	}

	reply, err := s.orch.HandleMessage(ctx, c.memory, message)
	if err != nil {
		return agent.Reply{}, err
	}

	now := time.Now()
	s.store.mu.Lock()
	c.Messages = append(c.Messages,
		ChatMessage{Role: "user", Content: message, CreatedAt: now},
		ChatMessage{Role: "assistant", Content: reply.Content, Intent: reply.Intent, CreatedAt: now},
	)
	c.UpdatedAt = now
	s.store.mu.Unlock()
	return reply, nil
}

// Transcript renders the conversation as role-prefixed lines, the format
// the analyzer and drafting context consume.
func (s *Service) Transcript(chatID, userID string) (string, error) {
	c, err := s.Get(chatID, userID)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, m := range c.Messages {
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// ParseTranscript parses raw pasted chat content where lines are prefixed
// with a role marker ("user:", "assistant:", and their aliases). Unprefixed
// lines continue the current message.
func ParseTranscript(content string) []ChatMessage {
	var (
		messages []ChatMessage
		role     string
		body     []string
	)
	flush := func() {
		if role != "" && len(body) > 0 {
			messages = append(messages, ChatMessage{
				Role:    role,
				Content: strings.TrimSpace(strings.Join(body, "\n")),
			})
		}
		body = nil
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case hasRolePrefix(lower, "user:", "human:", "client:"):
			flush()
			role = "user"
			body = []string{afterColon(line)}
		case hasRolePrefix(lower, "assistant:", "ai:", "bot:", "wakili:"):
			flush()
			role = "assistant"
			body = []string{afterColon(line)}
		default:
			if role != "" {
				body = append(body, line)
			}
		}
	}
	flush()
	return messages
}

func hasRolePrefix(line string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func afterColon(line string) string {
	if i := strings.Index(line, ":"); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	return ""
}

// TranscriptText flattens parsed messages back into analyzer input.
func TranscriptText(messages []ChatMessage) string {
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
