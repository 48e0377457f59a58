package agent

import (
	"context"
	"errors"

	"github.com/tidwall/gjson"
)

// DraftingAgent generates and revises legal documents. Whether it drafts or
// revises is decided by the presence of a previous body in the context.
type DraftingAgent struct {
	llm LLMClient
}

func NewDraftingAgent(llm LLMClient) (*DraftingAgent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &DraftingAgent{llm: llm}, nil
}

func (a *DraftingAgent) Draft(ctx context.Context, docType string, dc DraftContext) (DraftResult, error) {
	var prompt Prompt
	if dc.PreviousBody == "" {
		prompt = BuildInitialDraftPrompt(docType, dc)
	} else {
		prompt = BuildRevisionPrompt(docType, dc)
	}

	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return DraftResult{}, err
	}
	return PostProcessDraft(raw)
}

// ResearchAgent answers legal-research questions with citations.
type ResearchAgent struct {
	llm LLMClient
}

func NewResearchAgent(llm LLMClient) (*ResearchAgent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &ResearchAgent{llm: llm}, nil
}

// Query returns the model's answer with its cited sources. A non-JSON
// response is kept verbatim as the answer with no sources.
func (a *ResearchAgent) Query(ctx context.Context, question string, history []Message) (ResearchResult, error) {
	raw, err := a.llm.Complete(ctx, BuildResearchPrompt(question, history))
	if err != nil {
		return ResearchResult{}, err
	}
	doc := ExtractJSON(raw)
	if doc == "" {
		return ResearchResult{Answer: raw}, nil
	}
	res := ResearchResult{Answer: gjson.Get(doc, "answer").String()}
	for _, s := range gjson.Get(doc, "sources").Array() {
		res.Sources = append(res.Sources, s.String())
	}
	if res.Answer == "" {
		res.Answer = raw
	}
	return res, nil
}

// ExtractionAgent turns raw document text into structured JSON.
type ExtractionAgent struct {
	llm LLMClient
}

func NewExtractionAgent(llm LLMClient) (*ExtractionAgent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &ExtractionAgent{llm: llm}, nil
}

// Extract returns a JSON document with parties, dates, key_terms and
// summary fields.
func (a *ExtractionAgent) Extract(ctx context.Context, text string) (string, error) {
	raw, err := a.llm.Complete(ctx, BuildExtractionPrompt(text))
	if err != nil {
		return "", err
	}
	doc := ExtractJSON(raw)
	if doc == "" {
		return "", errors.New("extraction model returned no parseable JSON")
	}
	return doc, nil
}

// ReviewAgent assesses documents for compliance and evidentiary issues.
type ReviewAgent struct {
	llm LLMClient
}

func NewReviewAgent(llm LLMClient) (*ReviewAgent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &ReviewAgent{llm: llm}, nil
}

func (a *ReviewAgent) Review(ctx context.Context, text string, history []Message) (string, error) {
	return a.llm.Complete(ctx, BuildReviewPrompt(text, history))
}
