package research

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wakili_legal_assistant/agent"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	llm := agent.MockLLM{Respond: func(p agent.Prompt) (string, error) {
		return `{"answer": "The limitation period is six years.", "sources": ["Limitation of Actions Act, Cap 22"]}`, nil
	}}
	ra, err := agent.NewResearchAgent(llm)
	require.NoError(t, err)
	return NewService(ra)
}

func TestQueryRecordsHistory(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.Query(context.Background(), "u1", "limitation period for contracts?")
	require.NoError(t, err)
	assert.Equal(t, "The limitation period is six years.", first.Answer)
	assert.Equal(t, []string{"Limitation of Actions Act, Cap 22"}, first.Sources)
	assert.NotEmpty(t, first.ID)

	second, err := svc.Query(context.Background(), "u1", "and for torts?")
	require.NoError(t, err)

	history := svc.History("u1")
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID, "newest first")
	assert.Equal(t, first.ID, history[1].ID)
}

func TestHistoryIsPerUser(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Query(context.Background(), "u1", "q")
	require.NoError(t, err)

	assert.Len(t, svc.History("u1"), 1)
	assert.Empty(t, svc.History("u2"))
}

func TestHistoryCap(t *testing.T) {
	svc := newTestService(t)
	svc.maxKeep = 3

	for i := 0; i < 5; i++ {
		_, err := svc.Query(context.Background(), "u1", "q")
		require.NoError(t, err)
	}
	assert.Len(t, svc.History("u1"), 3)
}

func TestVerbatimFallback(t *testing.T) {
	llm := agent.MockLLM{Respond: func(agent.Prompt) (string, error) {
		return "Plain prose answer with no structure.", nil
	}}
	ra, err := agent.NewResearchAgent(llm)
	require.NoError(t, err)
	svc := NewService(ra)

	resp, err := svc.Query(context.Background(), "u1", "q")
	require.NoError(t, err)
	assert.Equal(t, "Plain prose answer with no structure.", resp.Answer)
	assert.Empty(t, resp.Sources)
}
