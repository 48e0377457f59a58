package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"wakili_legal_assistant/agent"
	"wakili_legal_assistant/auth"
	"wakili_legal_assistant/chat"
	"wakili_legal_assistant/documents"
	"wakili_legal_assistant/drafting"
	"wakili_legal_assistant/research"
	"wakili_legal_assistant/workflow"
)

// newTestHandler wires the full stack with auth disabled and a local mock
// model, mirroring the --serve composition.
func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	llm := agent.MockLLM{Respond: func(agent.Prompt) (string, error) {
		return "# Employment Contract\n\nBetween the parties.\n", nil
	}}
	orch, err := agent.NewOrchestrator(llm)
	require.NoError(t, err)
	analyzer := agent.NewAnalyzer(llm)

	docs, err := documents.NewService(t.TempDir(), nil)
	require.NoError(t, err)

	chats := chat.NewService(orch)
	drafts := drafting.NewService(orch.Drafting(), analyzer, chats)
	workflows := workflow.NewService(orch, analyzer, chats, drafts)

	verifier := auth.NewVerifier("", "", true, nil)
	srv, err := New(verifier, chats, research.NewService(orch.Research()), docs, drafts, workflows, orch.Extraction())
	require.NoError(t, err)
	return srv.Routes()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer test-token")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())
}

func TestAuthEndpoints(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/auth/verify", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gjson.Get(rec.Body.String(), "valid").Bool())
	assert.Equal(t, "local-user", gjson.Get(rec.Body.String(), "user.id").String())

	rec = doJSON(t, h, http.MethodGet, "/api/auth/profile", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", gjson.Get(rec.Body.String(), "role").String())

	rec = doJSON(t, h, http.MethodPut, "/api/auth/profile", map[string]string{"full_name": "Jane Counsel"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Jane Counsel", gjson.Get(rec.Body.String(), "full_name").String())
}

func TestChatFlow(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/chats", map[string]string{"title": "Intake"})
	require.Equal(t, http.StatusCreated, rec.Code)
	chatID := gjson.Get(rec.Body.String(), "id").String()
	require.NotEmpty(t, chatID)

	rec = doJSON(t, h, http.MethodGet, "/api/chats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "#").Int())

	rec = doJSON(t, h, http.MethodPost, "/api/chats/"+chatID+"/messages", map[string]string{"message": "hello"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "general-chat", gjson.Get(rec.Body.String(), "intent").String())
	assert.NotEmpty(t, gjson.Get(rec.Body.String(), "content").String())

	rec = doJSON(t, h, http.MethodGet, "/api/chats/"+chatID+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), gjson.Get(rec.Body.String(), "messages.#").Int())

	rec = doJSON(t, h, http.MethodGet, "/api/chats/missing/history", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, gjson.Get(rec.Body.String(), "detail").String())
}

func TestChatMessageValidation(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/chats", map[string]string{})
	chatID := gjson.Get(rec.Body.String(), "id").String()

	rec = doJSON(t, h, http.MethodPost, "/api/chats/"+chatID+"/messages", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/chats/"+chatID+"/messages", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer t")
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestDraftLifecycle(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/drafts/create-from-chat", map[string]string{
		"content": "user: the employee is John Doe, salary $80,000. Please draft an employment contract.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := rec.Body.String()
	draftID := gjson.Get(body, "id").String()
	assert.Equal(t, "employment_contract", gjson.Get(body, "documentType").String())

	rec = doJSON(t, h, http.MethodPost, "/api/drafts/"+draftID+"/generate", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	versionID := gjson.Get(rec.Body.String(), "id").String()
	assert.Equal(t, "pending", gjson.Get(rec.Body.String(), "status").String())

	rec = doJSON(t, h, http.MethodGet, "/api/drafts/"+draftID+"/versions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "currentVersion").Int())

	rec = doJSON(t, h, http.MethodGet, "/api/drafts/"+draftID+"/versions/"+versionID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/drafts/"+draftID+"/versions/"+versionID+"/approve", map[string]string{})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/drafts/"+draftID+"/versions/"+versionID+"/approve", map[string]string{})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotEmpty(t, gjson.Get(rec.Body.String(), "detail").String())

	rec = doJSON(t, h, http.MethodPost, "/api/drafts/"+draftID+"/export", map[string]string{"format": "json"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rec = doJSON(t, h, http.MethodPost, "/api/drafts/"+draftID+"/export", map[string]string{"format": "pdf"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDraftValidation(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/drafts/create-from-chat", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/drafts/create-from-chat", map[string]string{
		"content": "user: please draft a demand letter",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	draftID := gjson.Get(rec.Body.String(), "id").String()

	rec = doJSON(t, h, http.MethodPost, "/api/drafts/"+draftID+"/generate", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	versionID := gjson.Get(rec.Body.String(), "id").String()

	rec = doJSON(t, h, http.MethodPost, "/api/drafts/"+draftID+"/versions/"+versionID+"/reject", map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/drafts/"+draftID+"/compare", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/drafts/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentEndpoints(t *testing.T) {
	h := newTestHandler(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("meeting notes"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("description", "intake meeting"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", &buf)
	req.Header.Set("Authorization", "Bearer t")
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "notes.txt", gjson.Get(rec.Body.String(), "filename").String())

	rec2 := doJSON(t, h, http.MethodGet, "/api/documents", nil)
	assert.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, "notes.txt", gjson.Get(rec2.Body.String(), "documents.0").String())

	rec2 = doJSON(t, h, http.MethodGet, "/api/documents/notes.txt", nil)
	assert.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, "meeting notes", rec2.Body.String())

	// Disabled auth makes every caller an admin.
	rec2 = doJSON(t, h, http.MethodGet, "/api/documents/event-log", nil)
	assert.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, int64(1), gjson.Get(rec2.Body.String(), "events.#").Int())

	rec2 = doJSON(t, h, http.MethodDelete, "/api/documents/notes.txt", nil)
	assert.Equal(t, http.StatusOK, rec2.Code)

	rec2 = doJSON(t, h, http.MethodGet, "/api/documents/notes.txt", nil)
	assert.Equal(t, http.StatusNotFound, rec2.Code)
}

func TestWorkflowEndpoints(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/chats", map[string]string{"title": "Contract matter"})
	require.Equal(t, http.StatusCreated, rec.Code)
	chatID := gjson.Get(rec.Body.String(), "id").String()
	rec = doJSON(t, h, http.MethodPost, "/api/chats/"+chatID+"/messages",
		map[string]string{"message": "please draft an employment contract for John Doe"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/workflows/create-from-chat", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/workflows/create-from-chat", map[string]string{"chatId": chatID})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := rec.Body.String()
	workflowID := gjson.Get(body, "id").String()
	assert.Equal(t, "idle", gjson.Get(body, "status").String())
	assert.Greater(t, gjson.Get(body, "steps.#").Int(), int64(0))

	rec = doJSON(t, h, http.MethodPost, "/api/workflows/"+workflowID+"/control", map[string]string{"action": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/workflows/"+workflowID+"/control", map[string]string{"action": "pause"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/workflows/"+workflowID+"/control", map[string]string{"action": "start"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", gjson.Get(rec.Body.String(), "status").String())

	rec = doJSON(t, h, http.MethodPost, "/api/workflows/"+workflowID+"/create-draft", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, gjson.Get(rec.Body.String(), "draftId").String())

	rec = doJSON(t, h, http.MethodPost, "/api/workflows/"+workflowID+"/export", map[string]string{"format": "txt"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/workflows/"+workflowID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, h, http.MethodGet, "/api/workflows/"+workflowID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResearchEndpoints(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/research/query", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/research/query", map[string]string{"question": "limitation period?"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, gjson.Get(rec.Body.String(), "answer").String())

	rec = doJSON(t, h, http.MethodGet, "/api/research/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "#").Int())
}
