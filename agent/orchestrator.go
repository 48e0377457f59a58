package agent

import (
	"context"
	"errors"
)

// Reply is what a routed message comes back as: the detected intent and the
// dispatched agent's answer.
type Reply struct {
	Intent  Intent `json:"intent"`
	Content string `json:"content"`
}

// Orchestrator routes a user message to the agent matching its intent and
// records the exchange in conversation memory.
type Orchestrator struct {
	router     *IntentRouter
	drafting   *DraftingAgent
	research   *ResearchAgent
	extraction *ExtractionAgent
	review     *ReviewAgent
	llm        LLMClient
}

func NewOrchestrator(llm LLMClient) (*Orchestrator, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	drafting, err := NewDraftingAgent(llm)
	if err != nil {
		return nil, err
	}
	research, err := NewResearchAgent(llm)
	if err != nil {
		return nil, err
	}
	extraction, err := NewExtractionAgent(llm)
	if err != nil {
		return nil, err
	}
	review, err := NewReviewAgent(llm)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		router:     NewIntentRouter(llm),
		drafting:   drafting,
		research:   research,
		extraction: extraction,
		review:     review,
		llm:        llm,
	}, nil
}

// Agent accessors let the services that own their own state (drafting,
// workflow, documents) reuse the orchestrator's agents.
func (o *Orchestrator) Drafting() *DraftingAgent     { return o.drafting }
func (o *Orchestrator) Research() *ResearchAgent     { return o.research }
func (o *Orchestrator) Extraction() *ExtractionAgent { return o.extraction }
func (o *Orchestrator) Review() *ReviewAgent         { return o.review }

// HandleMessage classifies the message, dispatches it, and records the turn.
func (o *Orchestrator) HandleMessage(ctx context.Context, mem *Memory, message string) (Reply, error) {
	history := mem.History()
	intent := o.router.Classify(ctx, message, history)

	var (
		content string
		err     error
	)
	switch intent {
	case IntentResearch:
		var res ResearchResult
		res, err = o.research.Query(ctx, message, history)
		if err == nil {
			content = res.Answer
			for _, s := range res.Sources {
				content += "\n- " + s
			}
		}
	case IntentDrafting:
		var dr DraftResult
		dr, err = o.drafting.Draft(ctx, "custom_document", DraftContext{
			ConversationText: message,
			History:          history,
		})
		if err == nil {
			content = dr.Markdown
		}
	case IntentExtraction:
		content, err = o.extraction.Extract(ctx, message)
	case IntentEvidenceReview:
		content, err = o.review.Review(ctx, message, history)
	default:
		content, err = o.llm.Complete(ctx, BuildChatPrompt(message, history))
	}
	if err != nil {
		return Reply{}, err
	}

	mem.Record(message, content)
	return Reply{Intent: intent, Content: content}, nil
}
