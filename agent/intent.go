package agent

import (
	"context"
	"log"
	"strings"

	"github.com/tidwall/gjson"
)

// IntentRouter classifies one user message into exactly one intent label.
// Classification is a single model call; when the model output cannot be
// parsed, keyword heuristics take over, and general-chat is the floor.
type IntentRouter struct {
	llm LLMClient
}

func NewIntentRouter(llm LLMClient) *IntentRouter {
	return &IntentRouter{llm: llm}
}

// Classify returns one label from KnownIntents. It never returns an error:
// every failure mode degrades to a usable intent.
func (r *IntentRouter) Classify(ctx context.Context, message string, history []Message) Intent {
	raw, err := r.llm.Complete(ctx, BuildIntentPrompt(message, history))
	if err != nil {
		log.Printf("[intent] model call failed, using heuristics: %v", err)
		return classifyByKeywords(message)
	}

	if doc := ExtractJSON(raw); doc != "" {
		label := gjson.Get(doc, "intent").String()
		for _, it := range KnownIntents {
			if string(it) == label {
				return it
			}
		}
	}
	return classifyByKeywords(message)
}

var intentKeywords = []struct {
	intent Intent
	any    []string
	paired []string
}{
	{
		intent: IntentExtraction,
		any:    []string{"extract", "summarize", "summarise", "parse"},
		paired: []string{"document", "pdf", "docx", "file", "upload"},
	},
	{
		intent: IntentDrafting,
		any:    []string{"draft", "write", "prepare", "generate", "create"},
		paired: []string{"letter", "document", "plaint", "brief", "affidavit", "contract", "agreement"},
	},
	{
		intent: IntentResearch,
		any:    []string{"research", "case law", "statute", "precedent", "authority", "find cases"},
	},
	{
		intent: IntentEvidenceReview,
		any:    []string{"review", "check", "examine", "verify", "compliance", "evidence"},
	},
}

// classifyByKeywords mirrors the routing a human dispatcher would do from
// surface vocabulary. Order matters: extraction before drafting, since
// "summarize this document" contains drafting vocabulary too.
func classifyByKeywords(message string) Intent {
	lower := strings.ToLower(message)
	for _, rule := range intentKeywords {
		if !containsAny(lower, rule.any) {
			continue
		}
		if len(rule.paired) > 0 && !containsAny(lower, rule.paired) {
			continue
		}
		return rule.intent
	}
	return IntentGeneralChat
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
