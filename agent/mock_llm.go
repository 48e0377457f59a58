package agent

import (
	"context"
	"strings"
)

// MockLLM is a local stand-in that never calls an external model. The
// optional Respond hook lets tests script exact outputs per prompt; without
// it the mock produces a minimal plausible document.
type MockLLM struct {
	Respond func(prompt Prompt) (string, error)
}

func (m MockLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if m.Respond != nil {
		return m.Respond(prompt)
	}
	var sb strings.Builder
	sb.WriteString("# Generated Document\n\n")
	sb.WriteString("This is a locally generated placeholder response.\n\n")
	sb.WriteString("```\n")
	sb.WriteString(prompt.User)
	sb.WriteString("\n```\n")
	return sb.String(), nil
}
