package workflow

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/tidwall/sjson"

	"wakili_legal_assistant/agent"
)

// executor timeout per step; one step is at most a couple of model calls.
const stepTimeout = 120 * time.Second

// launch runs the executor for a workflow in the background. The executor
// performs exactly one step and parks: every step is human-gated, so
// advancement past a completed step only ever happens through ApproveStep.
func (s *Service) launch(w *Workflow) {
	go s.runOnce(w)
}

func (s *Service) runOnce(w *Workflow) {
	s.store.mu.Lock()
	if w.Status != StatusRunning || w.CurrentStep >= len(w.Steps) {
		s.store.mu.Unlock()
		return
	}
	step := w.Steps[w.CurrentStep]
	if step.Status == StepCompleted {
		// Parked on an approval gate.
		s.store.mu.Unlock()
		return
	}
	now := time.Now()
	step.Status = StepRunning
	step.StartTime = &now
	step.Progress = 0
	stepName := step.Name
	chatID, userID := w.ChatID, w.UserID
	w.UpdatedAt = now
	s.store.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), stepTimeout)
	defer cancel()

	transcript := ""
	if chatID != "" {
		if t, err := s.transcripts.Transcript(chatID, userID); err == nil {
			transcript = t
		} else {
			log.Printf("[workflow] load transcript for %s: %v", w.ID, err)
		}
	}

	s.setStepProgress(w, step, 25)
	result, canModify, err := s.executeStep(ctx, stepName, transcript)

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	end := time.Now()
	step.EndTime = &end
	if step.StartTime != nil {
		step.Duration = end.Sub(*step.StartTime).Seconds()
	}
	step.Progress = 100
	w.UpdatedAt = end

	if err != nil {
		step.Status = StepError
		step.Error = err.Error()
		if next, terr := controlTransition(w.Status, EventFail); terr == nil {
			w.Status = next
		}
		log.Printf("[workflow] workflow=%s step=%s failed: %v", w.ID, step.ID, err)
		return
	}

	step.Status = StepCompleted
	step.Result = result
	step.CanApprove = true
	step.CanModify = canModify
	w.recomputeProgress()
	log.Printf("[workflow] workflow=%s step=%s completed, awaiting approval", w.ID, step.ID)
}

func (s *Service) setStepProgress(w *Workflow, step *Step, progress int) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if step.Status == StepRunning {
		step.Progress = progress
		w.UpdatedAt = time.Now()
	}
}

// executeStep dispatches one step to the agent matching its name and
// returns the result payload as JSON. canModify is true for steps whose
// output the user may patch afterwards.
func (s *Service) executeStep(ctx context.Context, stepName, transcript string) (result string, canModify bool, err error) {
	name := strings.ToLower(stepName)
	switch {
	case strings.Contains(name, "research"):
		res, err := s.orch.Research().Query(ctx, researchQuestion(transcript), nil)
		if err != nil {
			return "", false, err
		}
		return stepResult("research", map[string]any{
			"answer": res.Answer,
		}, res.Sources, 0.9), false, nil

	case strings.Contains(name, "extraction"):
		doc, err := s.orch.Extraction().Extract(ctx, transcript)
		if err != nil {
			return "", false, err
		}
		return stepResultRaw("extraction", doc, []string{"Extraction Agent"}, 0.85), false, nil

	case strings.Contains(name, "drafting"), strings.Contains(name, "document generation"):
		an := s.analyzer.Analyze(ctx, transcript)
		docType := an.DocumentType
		if docType == "" {
			docType = "custom_document"
		}
		dr, err := s.orch.Drafting().Draft(ctx, docType, agent.DraftContext{ConversationText: transcript})
		if err != nil {
			return "", false, err
		}
		return stepResult("draft", map[string]any{
			"document_type": docType,
			"title":         dr.Title,
			"body":          dr.Markdown,
		}, []string{"Drafting Agent"}, 0.9), true, nil

	case strings.Contains(name, "validation"), strings.Contains(name, "review"):
		review, err := s.orch.Review().Review(ctx, transcript, nil)
		if err != nil {
			return "", false, err
		}
		return stepResult("review", map[string]any{
			"assessment": review,
		}, []string{"Review Agent"}, 0.9), false, nil

	case strings.Contains(name, "information gathering"):
		an := s.analyzer.Analyze(ctx, transcript)
		return stepResult("information_gathering", map[string]any{
			"document_type": an.DocumentType,
			"parties":       an.Parties,
			"key_terms":     an.KeyTerms,
			"missing_info":  an.MissingInfo,
		}, []string{"Conversation Analyzer"}, an.Confidence), false, nil

	case strings.Contains(name, "party information"):
		an := s.analyzer.Analyze(ctx, transcript)
		return stepResult("party_information", map[string]any{
			"parties": an.Parties,
		}, []string{"Conversation Analyzer"}, an.Confidence), true, nil

	case strings.Contains(name, "key terms"):
		an := s.analyzer.Analyze(ctx, transcript)
		return stepResult("key_terms", map[string]any{
			"terms": an.KeyTerms,
		}, []string{"Conversation Analyzer"}, an.Confidence), true, nil

	case strings.Contains(name, "legal requirements"):
		res, err := s.orch.Research().Query(ctx,
			"List the applicable laws, compliance requirements and mandatory clauses for this matter:\n"+transcript, nil)
		if err != nil {
			return "", false, err
		}
		return stepResult("legal_requirements", map[string]any{
			"requirements": res.Answer,
		}, res.Sources, 0.9), false, nil

	case strings.Contains(name, "final approval"):
		return stepResult("final_approval", map[string]any{
			"approval_status": "READY",
			"comments":        "All preceding steps completed; awaiting final sign-off.",
		}, []string{"Workflow Controller"}, 1.0), false, nil

	default:
		an := s.analyzer.Analyze(ctx, transcript)
		return stepResult("generic", map[string]any{
			"message":       "Completed " + stepName,
			"document_type": an.DocumentType,
		}, []string{"Conversation Analyzer"}, an.Confidence), false, nil
	}
}

func researchQuestion(transcript string) string {
	return "Research the relevant case law, statutes and precedents for the following matter:\n" + transcript
}

// stepResult assembles the step payload JSON the UI renders.
func stepResult(kind string, content map[string]any, sources []string, confidence float64) string {
	doc := "{}"
	doc, _ = sjson.Set(doc, "type", kind)
	for k, v := range content {
		doc, _ = sjson.Set(doc, "content."+k, v)
	}
	return withMetadata(doc, sources, confidence)
}

// stepResultRaw embeds an already-JSON content document.
func stepResultRaw(kind string, contentJSON string, sources []string, confidence float64) string {
	doc := "{}"
	doc, _ = sjson.Set(doc, "type", kind)
	doc, _ = sjson.SetRaw(doc, "content", contentJSON)
	return withMetadata(doc, sources, confidence)
}

func withMetadata(doc string, sources []string, confidence float64) string {
	if sources == nil {
		sources = []string{}
	}
	doc, _ = sjson.Set(doc, "metadata.sources", sources)
	doc, _ = sjson.Set(doc, "metadata.confidence", confidence)
	doc, _ = sjson.Set(doc, "metadata.timestamp", time.Now().Format(time.RFC3339))
	return doc
}
