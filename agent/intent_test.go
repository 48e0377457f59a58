package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyFromModelJSON(t *testing.T) {
	llm := MockLLM{Respond: func(Prompt) (string, error) {
		return `{"intent": "research", "reasoning": "asks about case law"}`, nil
	}}
	r := NewIntentRouter(llm)

	got := r.Classify(context.Background(), "What does Kenyan case law say about wrongful dismissal?", nil)
	assert.Equal(t, IntentResearch, got)
}

func TestClassifyUnknownLabelFallsBackToKeywords(t *testing.T) {
	llm := MockLLM{Respond: func(Prompt) (string, error) {
		return `{"intent": "something-else"}`, nil
	}}
	r := NewIntentRouter(llm)

	got := r.Classify(context.Background(), "Please draft a demand letter for my client", nil)
	assert.Equal(t, IntentDrafting, got)
}

func TestClassifyModelErrorFallsBackToKeywords(t *testing.T) {
	llm := MockLLM{Respond: func(Prompt) (string, error) {
		return "", errors.New("upstream down")
	}}
	r := NewIntentRouter(llm)

	got := r.Classify(context.Background(), "research precedent on adverse possession", nil)
	assert.Equal(t, IntentResearch, got)
}

func TestClassifyByKeywords(t *testing.T) {
	cases := []struct {
		message string
		want    Intent
	}{
		{"Please draft an employment contract", IntentDrafting},
		{"write a demand letter to the landlord", IntentDrafting},
		{"summarize this document for me", IntentExtraction},
		{"extract the parties from the uploaded pdf", IntentExtraction},
		{"find cases on constructive dismissal", IntentResearch},
		{"review this evidence for admissibility", IntentEvidenceReview},
		{"hello there", IntentGeneralChat},
		{"draft something", IntentGeneralChat}, // no document noun paired
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classifyByKeywords(tc.message), "message: %s", tc.message)
	}
}
