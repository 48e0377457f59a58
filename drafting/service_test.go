package drafting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"wakili_legal_assistant/agent"
)

type stubTranscripts struct {
	text string
}

func (s stubTranscripts) Transcript(chatID, userID string) (string, error) {
	return s.text, nil
}

// draftLLM answers every prompt with a fixed markdown document, so the
// analyzer falls through to keyword detection.
func draftLLM(markdown string) agent.LLMClient {
	return agent.MockLLM{Respond: func(agent.Prompt) (string, error) {
		return markdown, nil
	}}
}

func newTestService(t *testing.T, llm agent.LLMClient, transcript string) *Service {
	t.Helper()
	drafter, err := agent.NewDraftingAgent(llm)
	require.NoError(t, err)
	return NewService(drafter, agent.NewAnalyzer(llm), stubTranscripts{text: transcript})
}

const intakeContent = "user: the employee is John Doe, salary $80,000. Please draft an employment contract."

// reloadDraft fetches the draft's current state; service methods hand out
// detached copies, so mutations only show up on a fresh Get.
func reloadDraft(t *testing.T, svc *Service, draftID string) *DocumentDraft {
	t.Helper()
	d, err := svc.Get(draftID, "u1")
	require.NoError(t, err)
	return d
}

func reloadVersion(t *testing.T, svc *Service, draftID, versionID string) *DraftVersion {
	t.Helper()
	v := reloadDraft(t, svc, draftID).Version(versionID)
	require.NotNil(t, v)
	return v
}

func TestCreateFromContentDetectsDocumentType(t *testing.T) {
	svc := newTestService(t, draftLLM("# Employment Contract\n\nBetween the parties.\n"), "")

	d, err := svc.CreateFromContent(context.Background(), "u1", intakeContent, "")
	require.NoError(t, err)
	assert.Equal(t, "employment_contract", d.DocumentType)
	assert.Equal(t, DraftActive, d.Status)
	assert.Equal(t, 0, d.CurrentVersion)
	assert.Equal(t, "content_"+d.ID, d.ChatID)
}

func TestCreateFromContentRejectsEmpty(t *testing.T) {
	svc := newTestService(t, draftLLM("x"), "")
	_, err := svc.CreateFromContent(context.Background(), "u1", "   ", "")
	require.Error(t, err)
}

func TestGenerateFirstVersion(t *testing.T) {
	svc := newTestService(t, draftLLM("# Employment Contract\n\nBetween John Doe and the employer.\n"), "")
	d, err := svc.CreateFromContent(context.Background(), "u1", intakeContent, "")
	require.NoError(t, err)

	v, err := svc.Generate(context.Background(), d.ID, "u1")
	require.NoError(t, err)

	assert.Equal(t, VersionPending, v.Status)
	assert.Equal(t, "Employment Contract", gjson.Get(v.Content, "title").String())
	assert.Equal(t, "employment_contract", gjson.Get(v.Content, "document_type").String())
	assert.False(t, v.Metadata.Regenerated)

	d = reloadDraft(t, svc, d.ID)
	assert.Equal(t, 1, d.CurrentVersion)
	require.Len(t, d.Versions, 1)
}

func TestGenerateFromChatTranscript(t *testing.T) {
	svc := newTestService(t, draftLLM("# Plaint\n\nThe plaintiff states.\n"), "user: prepare a plaint for my land dispute")
	d, err := svc.CreateFromChat(context.Background(), "u1", "chat-1", "plaint")
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), d.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, reloadDraft(t, svc, d.ID).CurrentVersion)
}

func TestApproveIsTerminal(t *testing.T) {
	svc := newTestService(t, draftLLM("# Contract\n\nBody.\n"), "")
	d, _ := svc.CreateFromContent(context.Background(), "u1", intakeContent, "")
	v, err := svc.Generate(context.Background(), d.ID, "u1")
	require.NoError(t, err)

	require.NoError(t, svc.Approve(d.ID, v.ID, "u1", "looks good"))
	v = reloadVersion(t, svc, d.ID, v.ID)
	assert.Equal(t, VersionApproved, v.Status)
	assert.Equal(t, "u1", v.ApprovedBy)
	require.NotNil(t, v.ApprovedAt)

	err = svc.Approve(d.ID, v.ID, "u1", "")
	assert.ErrorIs(t, err, ErrTransition)

	err = svc.Reject(d.ID, v.ID, "u1", "changed my mind", "")
	assert.ErrorIs(t, err, ErrTransition)
	assert.Equal(t, VersionApproved, reloadVersion(t, svc, d.ID, v.ID).Status)
}

func TestRejectRequiresReason(t *testing.T) {
	svc := newTestService(t, draftLLM("# Contract\n\nBody.\n"), "")
	d, _ := svc.CreateFromContent(context.Background(), "u1", intakeContent, "")
	v, err := svc.Generate(context.Background(), d.ID, "u1")
	require.NoError(t, err)

	err = svc.Reject(d.ID, v.ID, "u1", "  ", "")
	assert.ErrorIs(t, err, ErrReasonRequired)

	require.NoError(t, svc.Reject(d.ID, v.ID, "u1", "missing salary clause", "add the salary"))
	v = reloadVersion(t, svc, d.ID, v.ID)
	assert.Equal(t, VersionRejected, v.Status)
	assert.Equal(t, "missing salary clause", v.RejectedReason)
}

func TestRejectHonorsRequireFeedback(t *testing.T) {
	svc := newTestService(t, draftLLM("# Contract\n\nBody.\n"), "")
	d, _ := svc.CreateFromContent(context.Background(), "u1", intakeContent, "")
	v, err := svc.Generate(context.Background(), d.ID, "u1")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateSettings(d.ID, "u1", Settings{RequireFeedback: true, MaxVersions: 10}))
	err = svc.Reject(d.ID, v.ID, "u1", "too short", "")
	assert.ErrorIs(t, err, ErrFeedbackRequired)
	assert.Equal(t, VersionPending, reloadVersion(t, svc, d.ID, v.ID).Status)
}

func TestRegenerateAppendsVersion(t *testing.T) {
	svc := newTestService(t, draftLLM("# Contract v2\n\nRevised body.\n"), "")
	d, _ := svc.CreateFromContent(context.Background(), "u1", intakeContent, "")
	v1, err := svc.Generate(context.Background(), d.ID, "u1")
	require.NoError(t, err)
	require.NoError(t, svc.Reject(d.ID, v1.ID, "u1", "wrong tone", ""))

	v2, err := svc.Regenerate(context.Background(), d.ID, v1.ID, "u1", "make it formal")
	require.NoError(t, err)

	d = reloadDraft(t, svc, d.ID)
	require.Len(t, d.Versions, 2)
	assert.Equal(t, 2, d.CurrentVersion)
	assert.Equal(t, VersionRejected, d.Version(v1.ID).Status)
	assert.Equal(t, VersionPending, v2.Status)
	assert.True(t, v2.Metadata.Regenerated)
}

func TestMaxVersionsEnforced(t *testing.T) {
	svc := newTestService(t, draftLLM("# Contract\n\nBody.\n"), "")
	d, _ := svc.CreateFromContent(context.Background(), "u1", intakeContent, "")
	require.NoError(t, svc.UpdateSettings(d.ID, "u1", Settings{MaxVersions: 2}))

	_, err := svc.Generate(context.Background(), d.ID, "u1")
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), d.ID, "u1")
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), d.ID, "u1")
	assert.ErrorIs(t, err, ErrMaxVersions)
	assert.Len(t, reloadDraft(t, svc, d.ID).Versions, 2)
}

func TestAutoApprove(t *testing.T) {
	svc := newTestService(t, draftLLM("# Contract\n\nBody.\n"), "")
	d, _ := svc.CreateFromContent(context.Background(), "u1", intakeContent, "")
	require.NoError(t, svc.UpdateSettings(d.ID, "u1", Settings{AutoApprove: true, MaxVersions: 10}))

	v, err := svc.Generate(context.Background(), d.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, VersionApproved, v.Status)
	assert.Equal(t, "auto", v.ApprovedBy)
}

func TestModifyPatchesContent(t *testing.T) {
	svc := newTestService(t, draftLLM("# Contract\n\nBody.\n"), "")
	d, _ := svc.CreateFromContent(context.Background(), "u1", intakeContent, "")
	v, err := svc.Generate(context.Background(), d.ID, "u1")
	require.NoError(t, err)

	err = svc.Modify(d.ID, v.ID, "u1", map[string]any{
		"title":    "Contract of Service",
		"feedback": "renamed the title",
	})
	require.NoError(t, err)

	got := reloadVersion(t, svc, d.ID, v.ID)
	assert.Equal(t, VersionModified, got.Status)
	assert.Equal(t, "Contract of Service", gjson.Get(got.Content, "title").String())
	assert.Equal(t, "renamed the title", got.Feedback)

	// Modified versions accept further modifications.
	require.NoError(t, svc.Modify(d.ID, v.ID, "u1", map[string]any{"digest": "short"}))
	got = reloadVersion(t, svc, d.ID, v.ID)
	assert.Equal(t, "short", gjson.Get(got.Content, "digest").String())
}

func TestCompareVersions(t *testing.T) {
	svc := newTestService(t, draftLLM("# Contract\n\nBody.\n"), "")
	d, _ := svc.CreateFromContent(context.Background(), "u1", intakeContent, "")
	v1, err := svc.Generate(context.Background(), d.ID, "u1")
	require.NoError(t, err)
	v2, err := svc.Generate(context.Background(), d.ID, "u1")
	require.NoError(t, err)
	require.NoError(t, svc.Modify(d.ID, v2.ID, "u1", map[string]any{"title": "Renamed"}))

	cmp, err := svc.Compare(d.ID, v1.ID, v2.ID, "u1")
	require.NoError(t, err)

	fields := map[string]bool{}
	for _, ch := range cmp.Changes {
		fields[ch.Field] = true
	}
	assert.True(t, fields["title"])
	assert.True(t, fields["status"])
	assert.False(t, fields["body"])
}

func TestOwnershipAndDeletion(t *testing.T) {
	svc := newTestService(t, draftLLM("# Contract\n\nBody.\n"), "")
	d, _ := svc.CreateFromContent(context.Background(), "u1", intakeContent, "")

	_, err := svc.Get(d.ID, "intruder")
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Archive(d.ID, "u1"))
	assert.Equal(t, DraftArchived, reloadDraft(t, svc, d.ID).Status)

	require.NoError(t, svc.Delete(d.ID, "u1"))
	_, err = svc.Get(d.ID, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, svc.List("u1"))
}

func TestGetReturnsDetachedCopy(t *testing.T) {
	svc := newTestService(t, draftLLM("# Contract\n\nBody.\n"), "")
	d, _ := svc.CreateFromContent(context.Background(), "u1", intakeContent, "")
	v, err := svc.Generate(context.Background(), d.ID, "u1")
	require.NoError(t, err)

	before := reloadDraft(t, svc, d.ID)
	require.NoError(t, svc.Approve(d.ID, v.ID, "u1", ""))

	// The earlier copy does not see the approval, and writing to it does
	// not leak back into the store.
	assert.Equal(t, VersionPending, before.Versions[0].Status)
	before.Versions[0].Content = "tampered"
	before.Title = "tampered"

	after := reloadDraft(t, svc, d.ID)
	assert.Equal(t, VersionApproved, after.Versions[0].Status)
	assert.NotEqual(t, "tampered", after.Title)
	assert.NotEqual(t, "tampered", after.Versions[0].Content)
}

func TestReviewTransitions(t *testing.T) {
	next, err := reviewTransition(VersionPending, EventApprove)
	require.NoError(t, err)
	assert.Equal(t, VersionApproved, next)

	next, err = reviewTransition(VersionModified, EventModify)
	require.NoError(t, err)
	assert.Equal(t, VersionModified, next)

	_, err = reviewTransition(VersionRejected, EventApprove)
	assert.ErrorIs(t, err, ErrTransition)
}
