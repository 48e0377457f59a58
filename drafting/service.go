package drafting

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"wakili_legal_assistant/agent"
)

// TranscriptSource loads the conversation a chat-based draft grows from.
// Implemented by chat.Service.
type TranscriptSource interface {
	Transcript(chatID, userID string) (string, error)
}

// Service implements the draft lifecycle: create, generate versions,
// review (approve/reject/modify), regenerate, compare, export.
type Service struct {
	store       *store
	drafter     *agent.DraftingAgent
	analyzer    *agent.Analyzer
	transcripts TranscriptSource
}

func NewService(drafter *agent.DraftingAgent, analyzer *agent.Analyzer, transcripts TranscriptSource) *Service {
	return &Service{
		store:       newStore(),
		drafter:     drafter,
		analyzer:    analyzer,
		transcripts: transcripts,
	}
}

// CreateFromChat opens a draft linked to an existing conversation. When no
// document type is given, the analyzer picks one from the transcript.
func (s *Service) CreateFromChat(ctx context.Context, userID, chatID, docType string) (*DocumentDraft, error) {
	if docType == "" {
		transcript, err := s.transcripts.Transcript(chatID, userID)
		if err != nil {
			return nil, fmt.Errorf("load chat %s: %w", chatID, err)
		}
		docType = s.analyzeDocumentType(ctx, transcript)
	}
	d := s.newDraft(userID, chatID, docType)
	s.store.set(d)
	return s.store.snapshot(d), nil
}

// CreateFromContent opens a draft from raw pasted conversation content.
func (s *Service) CreateFromContent(ctx context.Context, userID, content, docType string) (*DocumentDraft, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("chat content is empty")
	}
	if docType == "" {
		docType = s.analyzeDocumentType(ctx, content)
	}
	d := s.newDraft(userID, "", docType)
	d.ChatID = "content_" + d.ID
	d.OriginalContent = content
	s.store.set(d)
	return s.store.snapshot(d), nil
}

func (s *Service) analyzeDocumentType(ctx context.Context, transcript string) string {
	an := s.analyzer.Analyze(ctx, transcript)
	if an.HasDocumentIntent && an.DocumentType != "" {
		return an.DocumentType
	}
	return "custom_document"
}

func (s *Service) newDraft(userID, chatID, docType string) *DocumentDraft {
	now := time.Now()
	return &DocumentDraft{
		ID:           uuid.NewString(),
		UserID:       userID,
		ChatID:       chatID,
		DocumentType: docType,
		Title:        titleCase(docType) + " Draft",
		Status:       DraftActive,
		Settings:     defaultSettings(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Get returns a detached copy; the live record never leaves the store lock.
func (s *Service) Get(draftID, userID string) (*DocumentDraft, error) {
	d, err := s.store.get(draftID, userID)
	if err != nil {
		return nil, err
	}
	return s.store.snapshot(d), nil
}

func (s *Service) List(userID string) []*DocumentDraft {
	return s.store.list(userID)
}

// UpdateSettings replaces the draft's review settings.
func (s *Service) UpdateSettings(draftID, userID string, settings Settings) error {
	d, err := s.store.get(draftID, userID)
	if err != nil {
		return err
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	d.Settings = settings
	d.UpdatedAt = time.Now()
	return nil
}

// Generate appends a new pending version drafted from the conversation.
// The max_versions cap is enforced here and in Regenerate.
func (s *Service) Generate(ctx context.Context, draftID, userID string) (*DraftVersion, error) {
	return s.generate(ctx, draftID, userID, agent.DraftContext{}, false)
}

// Regenerate appends a new version drafted against the given version's body
// plus the reviewer feedback accumulated so far. It never overwrites.
func (s *Service) Regenerate(ctx context.Context, draftID, versionID, userID, feedback string) (*DraftVersion, error) {
	d, err := s.store.get(draftID, userID)
	if err != nil {
		return nil, err
	}

	s.store.mu.Lock()
	prev := d.Version(versionID)
	if prev == nil {
		s.store.mu.Unlock()
		return nil, ErrVersionNotFound
	}
	dc := agent.DraftContext{
		PreviousBody:    gjson.Get(prev.Content, "body").String(),
		Feedback:        feedback,
		RejectionReason: prev.RejectedReason,
		History:         accumulatedFeedback(d.Versions),
	}
	s.store.mu.Unlock()

	return s.generate(ctx, draftID, userID, dc, true)
}

func (s *Service) generate(ctx context.Context, draftID, userID string, dc agent.DraftContext, regenerated bool) (*DraftVersion, error) {
	d, err := s.store.get(draftID, userID)
	if err != nil {
		return nil, err
	}

	s.store.mu.Lock()
	if d.Settings.MaxVersions > 0 && len(d.Versions) >= d.Settings.MaxVersions {
		s.store.mu.Unlock()
		return nil, ErrMaxVersions
	}
	docType := d.DocumentType
	originalContent := d.OriginalContent
	chatID := d.ChatID
	autoApprove := d.Settings.AutoApprove
	s.store.mu.Unlock()

	if dc.ConversationText == "" {
		if originalContent != "" {
			dc.ConversationText = originalContent
		} else {
			transcript, err := s.transcripts.Transcript(chatID, userID)
			if err != nil {
				return nil, fmt.Errorf("load chat %s: %w", chatID, err)
			}
			dc.ConversationText = transcript
		}
	}

	dr, err := s.drafter.Draft(ctx, docType, dc)
	if err != nil {
		return nil, fmt.Errorf("draft %s: %w", docType, err)
	}

	now := time.Now()
	v := &DraftVersion{
		ID:        uuid.NewString(),
		Content:   buildVersionContent(docType, dr),
		Status:    VersionPending,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  VersionMetadata{GeneratedAt: now, Regenerated: regenerated},
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if d.Status == DraftDeleted {
		return nil, ErrNotFound
	}
	if d.Settings.MaxVersions > 0 && len(d.Versions) >= d.Settings.MaxVersions {
		return nil, ErrMaxVersions
	}
	d.Versions = append(d.Versions, v)
	d.CurrentVersion = len(d.Versions)
	if v.Status == VersionPending && autoApprove {
		v.Status = VersionApproved
		v.ApprovedBy = "auto"
		v.ApprovedAt = &now
	}
	if dr.Title != "" {
		d.Title = dr.Title
	}
	d.UpdatedAt = now
	log.Printf("[drafting] draft=%s version=%d status=%s", d.ID, d.CurrentVersion, v.Status)
	return v.clone(), nil
}

// Approve marks a pending version approved. Approved is terminal for the
// version; later versions can still be generated.
func (s *Service) Approve(draftID, versionID, userID, feedback string) error {
	d, err := s.store.get(draftID, userID)
	if err != nil {
		return err
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	v := d.Version(versionID)
	if v == nil {
		return ErrVersionNotFound
	}
	next, err := reviewTransition(v.Status, EventApprove)
	if err != nil {
		return err
	}
	now := time.Now()
	v.Status = next
	v.ApprovedBy = userID
	v.ApprovedAt = &now
	v.Feedback = feedback
	v.UpdatedAt = now
	d.UpdatedAt = now
	return nil
}

// Reject marks a pending version rejected. A reason is mandatory; feedback
// is mandatory only when the draft settings say so.
func (s *Service) Reject(draftID, versionID, userID, reason, feedback string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	d, err := s.store.get(draftID, userID)
	if err != nil {
		return err
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if d.Settings.RequireFeedback && strings.TrimSpace(feedback) == "" {
		return ErrFeedbackRequired
	}
	v := d.Version(versionID)
	if v == nil {
		return ErrVersionNotFound
	}
	next, err := reviewTransition(v.Status, EventReject)
	if err != nil {
		return err
	}
	now := time.Now()
	v.Status = next
	v.RejectedReason = reason
	v.Feedback = feedback
	v.UpdatedAt = now
	d.UpdatedAt = now
	return nil
}

// Modify patches fields of the version content in place and marks the
// version modified. The "feedback" key is lifted into the feedback field.
func (s *Service) Modify(draftID, versionID, userID string, modifications map[string]any) error {
	d, err := s.store.get(draftID, userID)
	if err != nil {
		return err
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	v := d.Version(versionID)
	if v == nil {
		return ErrVersionNotFound
	}
	next, err := reviewTransition(v.Status, EventModify)
	if err != nil {
		return err
	}
	content := v.Content
	for key, val := range modifications {
		if key == "feedback" {
			if fb, ok := val.(string); ok {
				v.Feedback = fb
			}
			continue
		}
		content, err = sjson.Set(content, key, val)
		if err != nil {
			return fmt.Errorf("apply modification %q: %w", key, err)
		}
	}
	now := time.Now()
	v.Content = content
	v.Status = next
	v.UpdatedAt = now
	d.UpdatedAt = now
	return nil
}

// VersionDiff is a field-level comparison of two versions.
type VersionDiff struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Comparison pairs two versions with their differences.
type Comparison struct {
	Version1 *DraftVersion `json:"version1"`
	Version2 *DraftVersion `json:"version2"`
	Changes  []VersionDiff `json:"changes"`
}

func (s *Service) Compare(draftID, v1ID, v2ID, userID string) (*Comparison, error) {
	d, err := s.store.get(draftID, userID)
	if err != nil {
		return nil, err
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	v1, v2 := d.Version(v1ID), d.Version(v2ID)
	if v1 == nil || v2 == nil {
		return nil, ErrVersionNotFound
	}
	cmp := &Comparison{Version1: v1.clone(), Version2: v2.clone()}
	for _, field := range []string{"title", "digest", "body"} {
		from := gjson.Get(v1.Content, field).String()
		to := gjson.Get(v2.Content, field).String()
		if from != to {
			cmp.Changes = append(cmp.Changes, VersionDiff{Field: field, From: from, To: to})
		}
	}
	if v1.Status != v2.Status {
		cmp.Changes = append(cmp.Changes, VersionDiff{Field: "status", From: string(v1.Status), To: string(v2.Status)})
	}
	return cmp, nil
}

// Archive flags a draft archived; Delete flags it deleted. Drafts are never
// removed from the store.
func (s *Service) Archive(draftID, userID string) error {
	return s.setStatus(draftID, userID, DraftArchived)
}

func (s *Service) Delete(draftID, userID string) error {
	return s.setStatus(draftID, userID, DraftDeleted)
}

func (s *Service) setStatus(draftID, userID string, status DraftStatus) error {
	d, err := s.store.get(draftID, userID)
	if err != nil {
		return err
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	d.Status = status
	d.UpdatedAt = time.Now()
	return nil
}

// accumulatedFeedback turns every piece of reviewer feedback recorded so
// far into prompt history for the next regeneration.
func accumulatedFeedback(versions []*DraftVersion) []agent.Message {
	var msgs []agent.Message
	for _, v := range versions {
		if v.RejectedReason != "" {
			msgs = append(msgs, agent.Message{Role: "user", Content: "Rejected: " + v.RejectedReason})
		}
		if v.Feedback != "" {
			msgs = append(msgs, agent.Message{Role: "user", Content: v.Feedback})
		}
	}
	return msgs
}

func buildVersionContent(docType string, dr agent.DraftResult) string {
	content := "{}"
	content, _ = sjson.Set(content, "document_type", docType)
	content, _ = sjson.Set(content, "title", dr.Title)
	content, _ = sjson.Set(content, "digest", dr.Digest)
	content, _ = sjson.Set(content, "body", dr.Markdown)
	return content
}

func titleCase(docType string) string {
	words := strings.Split(strings.ReplaceAll(docType, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
