package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wakili_legal_assistant/agent"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	calls := 0
	llm := agent.MockLLM{Respond: func(agent.Prompt) (string, error) {
		calls++
		if calls%2 == 1 {
			return `{"intent": "general-chat"}`, nil
		}
		return "Understood.", nil
	}}
	orch, err := agent.NewOrchestrator(llm)
	require.NoError(t, err)
	return NewService(orch)
}

func TestCreateAndGet(t *testing.T) {
	svc := newTestService(t)

	c := svc.Create("u1", "")
	assert.NotEmpty(t, c.ID)
	assert.NotEmpty(t, c.Title)

	got, err := svc.Get(c.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = svc.Get(c.ID, "someone-else")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get("missing", "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSendStoresBothTurns(t *testing.T) {
	svc := newTestService(t)
	c := svc.Create("u1", "Case intake")

	reply, err := svc.Send(context.Background(), c.ID, "u1", "hello")
	require.NoError(t, err)
	assert.Equal(t, agent.IntentGeneralChat, reply.Intent)
	assert.Equal(t, "Understood.", reply.Content)

	got, err := svc.Get(c.ID, "u1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[0].Content)
	assert.Equal(t, "assistant", got.Messages[1].Role)

	transcript, err := svc.Transcript(c.ID, "u1")
	require.NoError(t, err)
	assert.Contains(t, transcript, "user: hello")
	assert.Contains(t, transcript, "assistant: Understood.")
}

func TestGetReturnsDetachedCopy(t *testing.T) {
	svc := newTestService(t)
	c := svc.Create("u1", "intake")

	before, err := svc.Get(c.ID, "u1")
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), c.ID, "u1", "hello")
	require.NoError(t, err)

	// The earlier copy does not see the new turns, and writing to it does
	// not leak back into the store.
	assert.Empty(t, before.Messages)
	before.Title = "tampered"

	after, err := svc.Get(c.ID, "u1")
	require.NoError(t, err)
	assert.Len(t, after.Messages, 2)
	assert.Equal(t, "intake", after.Title)
}

func TestListOrdersByUpdate(t *testing.T) {
	svc := newTestService(t)
	first := svc.Create("u1", "first")
	second := svc.Create("u1", "second")
	svc.Create("u2", "other user")

	_, err := svc.Send(context.Background(), first.ID, "u1", "bump")
	require.NoError(t, err)

	chats := svc.List("u1")
	require.Len(t, chats, 2)
	assert.Equal(t, first.ID, chats[0].ID)
	assert.Equal(t, second.ID, chats[1].ID)
}

func TestParseTranscript(t *testing.T) {
	content := `
User: I was dismissed without notice.
It happened last Friday.
Wakili: That may be unfair termination.
client: can you draft a demand letter?
`
	msgs := ParseTranscript(content)
	require.Len(t, msgs, 3)

	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "I was dismissed without notice.\nIt happened last Friday.", msgs[0].Content)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, "That may be unfair termination.", msgs[1].Content)
	assert.Equal(t, "user", msgs[2].Role)

	text := TranscriptText(msgs)
	assert.Contains(t, text, "dismissed without notice")
	assert.Contains(t, text, "demand letter")
}

func TestParseTranscriptIgnoresLeadingNoise(t *testing.T) {
	msgs := ParseTranscript("some preamble without a role\nuser: actual message")
	require.Len(t, msgs, 1)
	assert.Equal(t, "actual message", msgs[0].Content)
}
