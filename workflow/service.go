package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"wakili_legal_assistant/agent"
	"wakili_legal_assistant/drafting"
)

// TranscriptSource loads the conversation a workflow was created from.
// Implemented by chat.Service.
type TranscriptSource interface {
	Transcript(chatID, userID string) (string, error)
}

// Service implements workflow creation, control, human-gated step
// advancement and export.
type Service struct {
	store       *store
	orch        *agent.Orchestrator
	analyzer    *agent.Analyzer
	transcripts TranscriptSource
	drafts      *drafting.Service
}

func NewService(orch *agent.Orchestrator, analyzer *agent.Analyzer, transcripts TranscriptSource, drafts *drafting.Service) *Service {
	return &Service{
		store:       newStore(),
		orch:        orch,
		analyzer:    analyzer,
		transcripts: transcripts,
		drafts:      drafts,
	}
}

// CreateFromChat analyzes the conversation and fixes a step plan for it.
func (s *Service) CreateFromChat(ctx context.Context, userID, chatID string) (*Workflow, error) {
	transcript, err := s.transcripts.Transcript(chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("load chat %s: %w", chatID, err)
	}
	an := s.analyzer.Analyze(ctx, transcript)
	name, description, steps := planSteps(an)

	now := time.Now()
	w := &Workflow{
		ID:                uuid.NewString(),
		UserID:            userID,
		ChatID:            chatID,
		Name:              name,
		Description:       description,
		Status:            StatusIdle,
		Steps:             steps,
		EstimatedDuration: len(steps) * 3,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.store.set(w)
	log.Printf("[workflow] created %s (%d steps) for chat %s", w.ID, len(steps), chatID)
	return s.store.snapshot(w), nil
}

// Get returns a detached copy; the live record stays behind the store lock
// with the executor.
func (s *Service) Get(workflowID, userID string) (*Workflow, error) {
	w, err := s.store.get(workflowID, userID)
	if err != nil {
		return nil, err
	}
	return s.store.snapshot(w), nil
}

func (s *Service) List(userID string) []*Workflow {
	return s.store.list(userID)
}

// Control applies one of start/pause/resume/stop. Start and resume hand the
// workflow to the executor; pause and stop only flip state — a step already
// in flight finishes and parks.
func (s *Service) Control(workflowID, userID, action string) (*Workflow, error) {
	w, err := s.store.get(workflowID, userID)
	if err != nil {
		return nil, err
	}

	var event string
	switch action {
	case "start":
		event = EventStart
	case "pause":
		event = EventPause
	case "resume":
		event = EventResume
	case "stop":
		event = EventStop
	default:
		return nil, ErrUnknownAction
	}

	s.store.mu.Lock()
	next, err := controlTransition(w.Status, event)
	if err != nil {
		s.store.mu.Unlock()
		return nil, err
	}
	now := time.Now()
	w.Status = next
	w.UpdatedAt = now

	switch action {
	case "start":
		w.CurrentStep = 0
	case "pause":
		if cur := s.currentStep(w); cur != nil && cur.Status == StepRunning {
			cur.Status = StepPaused
		}
	case "resume":
		if cur := s.currentStep(w); cur != nil && cur.Status == StepPaused {
			cur.Status = StepPending
		}
	case "stop":
		if cur := s.currentStep(w); cur != nil && cur.Status != StepCompleted {
			cur.Status = StepError
			cur.Error = "workflow stopped by user"
		}
	}
	snap := w.clone()
	s.store.mu.Unlock()

	if action == "start" || action == "resume" {
		s.launch(w)
	}
	log.Printf("[workflow] workflow=%s action=%s status=%s", snap.ID, action, snap.Status)
	return snap, nil
}

func (s *Service) currentStep(w *Workflow) *Step {
	if w.CurrentStep >= 0 && w.CurrentStep < len(w.Steps) {
		return w.Steps[w.CurrentStep]
	}
	return nil
}

// ApproveStep clears the gate on a completed step and advances the plan.
// Approving the last step completes the workflow.
func (s *Service) ApproveStep(workflowID, stepID, userID string) (*Workflow, error) {
	w, err := s.store.get(workflowID, userID)
	if err != nil {
		return nil, err
	}

	s.store.mu.Lock()
	st := w.Step(stepID)
	if st == nil {
		s.store.mu.Unlock()
		return nil, ErrStepNotFound
	}
	if st.Status != StepCompleted || !st.CanApprove {
		s.store.mu.Unlock()
		return nil, ErrStepNotApproved
	}
	st.CanApprove = false
	now := time.Now()
	w.UpdatedAt = now

	advance := false
	if w.CurrentStep < len(w.Steps)-1 {
		w.CurrentStep++
		advance = true
	} else {
		// Plan exhausted: the machine accepts complete from both
		// running and paused, so a workflow paused at its last gate
		// still finishes.
		next, terr := controlTransition(w.Status, EventComplete)
		if terr != nil {
			s.store.mu.Unlock()
			return nil, terr
		}
		w.Status = next
	}
	running := w.Status == StatusRunning
	snap := w.clone()
	s.store.mu.Unlock()

	if advance && running {
		s.launch(w)
	}
	return snap, nil
}

// ModifyStep merges user modifications into a completed step's result JSON.
func (s *Service) ModifyStep(workflowID, stepID, userID string, modifications map[string]any) (*Workflow, error) {
	w, err := s.store.get(workflowID, userID)
	if err != nil {
		return nil, err
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	st := w.Step(stepID)
	if st == nil {
		return nil, ErrStepNotFound
	}
	if st.Status != StepCompleted || !st.CanModify {
		return nil, ErrStepNotEditable
	}
	result := st.Result
	if result == "" {
		result = "{}"
	}
	for key, val := range modifications {
		result, err = sjson.Set(result, "content."+key, val)
		if err != nil {
			return nil, fmt.Errorf("apply modification %q: %w", key, err)
		}
	}
	st.Result = result
	st.CanModify = false
	w.UpdatedAt = time.Now()
	return w.clone(), nil
}

// CreateDraft opens a document draft from the workflow's chat and links the
// two records.
func (s *Service) CreateDraft(ctx context.Context, workflowID, userID string) (string, error) {
	w, err := s.store.get(workflowID, userID)
	if err != nil {
		return "", err
	}
	d, err := s.drafts.CreateFromChat(ctx, userID, w.ChatID, "")
	if err != nil {
		return "", err
	}

	s.store.mu.Lock()
	w.DraftID = d.ID
	w.UpdatedAt = time.Now()
	s.store.mu.Unlock()
	return d.ID, nil
}

// Export renders the workflow and every step result. Supported: json, txt.
func (s *Service) Export(workflowID, userID, format string) ([]byte, string, string, error) {
	w, err := s.store.get(workflowID, userID)
	if err != nil {
		return nil, "", "", err
	}

	base := fmt.Sprintf("workflow_%s", w.ID)
	switch format {
	case "json":
		s.store.mu.Lock()
		data, err := json.MarshalIndent(w, "", "  ")
		s.store.mu.Unlock()
		if err != nil {
			return nil, "", "", err
		}
		return data, "application/json", base + ".json", nil
	case "txt":
		s.store.mu.Lock()
		defer s.store.mu.Unlock()
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s\n%s\nStatus: %s\n\n", w.Name, w.Description, w.Status)
		for i, st := range w.Steps {
			fmt.Fprintf(&sb, "%d. %s [%s]\n", i+1, st.Name, st.Status)
			if st.Error != "" {
				fmt.Fprintf(&sb, "   error: %s\n", st.Error)
			}
			if st.Result != "" {
				fmt.Fprintf(&sb, "   %s\n", gjson.Get(st.Result, "content").String())
			}
		}
		return []byte(sb.String()), "text/plain; charset=utf-8", base + ".txt", nil
	default:
		return nil, "", "", ErrUnsupportedFmt
	}
}

// Delete removes the workflow. Unlike drafts, workflows are operational
// records and are dropped outright.
func (s *Service) Delete(workflowID, userID string) error {
	if _, err := s.store.get(workflowID, userID); err != nil {
		return err
	}
	s.store.delete(workflowID)
	return nil
}
