// Package server exposes the REST API. Every route except /api/health sits
// behind bearer-token auth; errors go out as {"detail": msg} envelopes.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"wakili_legal_assistant/agent"
	"wakili_legal_assistant/auth"
	"wakili_legal_assistant/chat"
	"wakili_legal_assistant/documents"
	"wakili_legal_assistant/drafting"
	"wakili_legal_assistant/research"
	"wakili_legal_assistant/workflow"
)

type Server struct {
	verifier   *auth.Verifier
	chats      *chat.Service
	research   *research.Service
	documents  *documents.Service
	drafts     *drafting.Service
	workflows  *workflow.Service
	extraction *agent.ExtractionAgent
}

func New(
	verifier *auth.Verifier,
	chats *chat.Service,
	res *research.Service,
	docs *documents.Service,
	drafts *drafting.Service,
	workflows *workflow.Service,
	extraction *agent.ExtractionAgent,
) (*Server, error) {
	if verifier == nil {
		return nil, errors.New("auth verifier required")
	}
	if chats == nil || res == nil || docs == nil || drafts == nil || workflows == nil {
		return nil, errors.New("all services required")
	}
	return &Server{
		verifier:   verifier,
		chats:      chats,
		research:   res,
		documents:  docs,
		drafts:     drafts,
		workflows:  workflows,
		extraction: extraction,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.Handle("GET /api/auth/verify", s.authed(s.handleAuthVerify))
	mux.Handle("GET /api/auth/profile", s.authed(s.handleProfileGet))
	mux.Handle("PUT /api/auth/profile", s.authed(s.handleProfileUpdate))

	mux.Handle("POST /api/chats", s.authed(s.handleChatCreate))
	mux.Handle("GET /api/chats", s.authed(s.handleChatList))
	mux.Handle("POST /api/chats/{id}/messages", s.authed(s.handleChatMessage))
	mux.Handle("GET /api/chats/{id}/history", s.authed(s.handleChatHistory))

	mux.Handle("POST /api/research/query", s.authed(s.handleResearchQuery))
	mux.Handle("GET /api/research/history", s.authed(s.handleResearchHistory))

	mux.Handle("POST /api/documents/upload", s.authed(s.handleDocumentUpload))
	mux.Handle("GET /api/documents", s.authed(s.handleDocumentList))
	mux.Handle("GET /api/documents/event-log", s.authed(s.handleDocumentEventLog))
	mux.Handle("GET /api/documents/{name}", s.authed(s.handleDocumentDownload))
	mux.Handle("DELETE /api/documents/{name}", s.authed(s.handleDocumentDelete))
	mux.Handle("POST /api/documents/{name}/extract", s.authed(s.handleDocumentExtract))

	mux.Handle("GET /api/drafts", s.authed(s.handleDraftList))
	mux.Handle("POST /api/drafts/create-from-chat", s.authed(s.handleDraftCreate))
	mux.Handle("GET /api/drafts/{id}", s.authed(s.handleDraftGet))
	mux.Handle("DELETE /api/drafts/{id}", s.authed(s.handleDraftDelete))
	mux.Handle("POST /api/drafts/{id}/generate", s.authed(s.handleDraftGenerate))
	mux.Handle("GET /api/drafts/{id}/versions", s.authed(s.handleVersionList))
	mux.Handle("GET /api/drafts/{id}/versions/{vid}", s.authed(s.handleVersionGet))
	mux.Handle("POST /api/drafts/{id}/versions/{vid}/approve", s.authed(s.handleVersionApprove))
	mux.Handle("POST /api/drafts/{id}/versions/{vid}/reject", s.authed(s.handleVersionReject))
	mux.Handle("POST /api/drafts/{id}/versions/{vid}/modify", s.authed(s.handleVersionModify))
	mux.Handle("POST /api/drafts/{id}/versions/{vid}/regenerate", s.authed(s.handleVersionRegenerate))
	mux.Handle("GET /api/drafts/{id}/compare", s.authed(s.handleDraftCompare))
	mux.Handle("POST /api/drafts/{id}/export", s.authed(s.handleDraftExport))

	mux.Handle("GET /api/workflows", s.authed(s.handleWorkflowList))
	mux.Handle("POST /api/workflows/create-from-chat", s.authed(s.handleWorkflowCreate))
	mux.Handle("GET /api/workflows/{id}", s.authed(s.handleWorkflowGet))
	mux.Handle("DELETE /api/workflows/{id}", s.authed(s.handleWorkflowDelete))
	mux.Handle("POST /api/workflows/{id}/control", s.authed(s.handleWorkflowControl))
	mux.Handle("POST /api/workflows/{id}/steps/{sid}/approve", s.authed(s.handleStepApprove))
	mux.Handle("POST /api/workflows/{id}/steps/{sid}/modify", s.authed(s.handleStepModify))
	mux.Handle("POST /api/workflows/{id}/export", s.authed(s.handleWorkflowExport))
	mux.Handle("POST /api/workflows/{id}/create-draft", s.authed(s.handleWorkflowCreateDraft))

	return logMiddleware(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Auth plumbing ---

type authedHandler func(w http.ResponseWriter, r *http.Request, u auth.User)

// authed verifies the bearer token and hands the user to the handler.
func (s *Server) authed(h authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.verifier.Verify(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, err)
			return
		}
		h(w, r, u)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

func (s *Server) handleAuthVerify(w http.ResponseWriter, r *http.Request, u auth.User) {
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "user": u})
}

func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request, u auth.User) {
	p, err := s.verifier.Profile(r.Context(), bearerToken(r), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request, u auth.User) {
	var upd auth.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.verifier.UpdateProfile(r.Context(), bearerToken(r), u, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// writeError maps service sentinels onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	writeDetail(w, httpStatus(err), err.Error())
}

// writeUpstreamError is for handlers whose failures are usually the LLM or
// another upstream service: known sentinels keep their mapping, everything
// else is a bad gateway.
func writeUpstreamError(w http.ResponseWriter, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		status = http.StatusBadGateway
	}
	writeDetail(w, status, err.Error())
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrNotConfigured):
		return http.StatusUnauthorized
	case errors.Is(err, drafting.ErrForbidden), errors.Is(err, workflow.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, chat.ErrNotFound),
		errors.Is(err, drafting.ErrNotFound), errors.Is(err, drafting.ErrVersionNotFound),
		errors.Is(err, workflow.ErrNotFound), errors.Is(err, workflow.ErrStepNotFound),
		errors.Is(err, documents.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, drafting.ErrTransition), errors.Is(err, drafting.ErrMaxVersions),
		errors.Is(err, workflow.ErrTransition), errors.Is(err, workflow.ErrStepNotApproved),
		errors.Is(err, workflow.ErrStepNotEditable):
		return http.StatusConflict
	case errors.Is(err, drafting.ErrReasonRequired), errors.Is(err, drafting.ErrFeedbackRequired),
		errors.Is(err, drafting.ErrNoVersions):
		return http.StatusUnprocessableEntity
	case errors.Is(err, drafting.ErrUnsupportedFormat), errors.Is(err, workflow.ErrUnsupportedFmt),
		errors.Is(err, workflow.ErrUnknownAction), errors.Is(err, documents.ErrBadFilename):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[server] %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
