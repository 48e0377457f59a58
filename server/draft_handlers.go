package server

import (
	"context"
	"fmt"
	"net/http"

	"wakili_legal_assistant/auth"
)

func (s *Server) handleDraftList(w http.ResponseWriter, r *http.Request, u auth.User) {
	writeJSON(w, http.StatusOK, s.drafts.List(u.ID))
}

// handleDraftCreate accepts either a chat ID or raw pasted conversation
// content. Document type is optional; the analyzer fills it in.
func (s *Server) handleDraftCreate(w http.ResponseWriter, r *http.Request, u auth.User) {
	var req struct {
		ChatID       string `json:"chatId"`
		Content      string `json:"content"`
		DocumentType string `json:"documentType"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), llmTimeout)
	defer cancel()

	switch {
	case req.ChatID != "":
		d, err := s.drafts.CreateFromChat(ctx, u.ID, req.ChatID, req.DocumentType)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, d)
	case req.Content != "":
		d, err := s.drafts.CreateFromContent(ctx, u.ID, req.Content, req.DocumentType)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, d)
	default:
		writeDetail(w, http.StatusBadRequest, "chatId or content is required")
	}
}

func (s *Server) handleDraftGet(w http.ResponseWriter, r *http.Request, u auth.User) {
	d, err := s.drafts.Get(r.PathValue("id"), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDraftDelete(w http.ResponseWriter, r *http.Request, u auth.User) {
	if err := s.drafts.Delete(r.PathValue("id"), u.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "deleted"})
}

func (s *Server) handleDraftGenerate(w http.ResponseWriter, r *http.Request, u auth.User) {
	ctx, cancel := context.WithTimeout(r.Context(), llmTimeout)
	defer cancel()
	v, err := s.drafts.Generate(ctx, r.PathValue("id"), u.ID)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleVersionList(w http.ResponseWriter, r *http.Request, u auth.User) {
	d, err := s.drafts.Get(r.PathValue("id"), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"currentVersion": d.CurrentVersion,
		"versions":       d.Versions,
	})
}

func (s *Server) handleVersionGet(w http.ResponseWriter, r *http.Request, u auth.User) {
	d, err := s.drafts.Get(r.PathValue("id"), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	v := d.Version(r.PathValue("vid"))
	if v == nil {
		writeDetail(w, http.StatusNotFound, "draft version not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleVersionApprove(w http.ResponseWriter, r *http.Request, u auth.User) {
	var req struct {
		Feedback string `json:"feedback"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.drafts.Approve(r.PathValue("id"), r.PathValue("vid"), u.ID, req.Feedback); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "approved"})
}

func (s *Server) handleVersionReject(w http.ResponseWriter, r *http.Request, u auth.User) {
	var req struct {
		Reason   string `json:"reason"`
		Feedback string `json:"feedback"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.drafts.Reject(r.PathValue("id"), r.PathValue("vid"), u.ID, req.Reason, req.Feedback); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "rejected"})
}

func (s *Server) handleVersionModify(w http.ResponseWriter, r *http.Request, u auth.User) {
	var req struct {
		Modifications map[string]any `json:"modifications"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Modifications) == 0 {
		writeDetail(w, http.StatusBadRequest, "modifications are required")
		return
	}
	if err := s.drafts.Modify(r.PathValue("id"), r.PathValue("vid"), u.ID, req.Modifications); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "modified"})
}

func (s *Server) handleVersionRegenerate(w http.ResponseWriter, r *http.Request, u auth.User) {
	var req struct {
		Feedback string `json:"feedback"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), llmTimeout)
	defer cancel()
	v, err := s.drafts.Regenerate(ctx, r.PathValue("id"), r.PathValue("vid"), u.ID, req.Feedback)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleDraftCompare(w http.ResponseWriter, r *http.Request, u auth.User) {
	v1 := r.URL.Query().Get("v1")
	v2 := r.URL.Query().Get("v2")
	if v1 == "" || v2 == "" {
		writeDetail(w, http.StatusBadRequest, "v1 and v2 query params are required")
		return
	}
	cmp, err := s.drafts.Compare(r.PathValue("id"), v1, v2, u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleDraftExport(w http.ResponseWriter, r *http.Request, u auth.User) {
	var req struct {
		Format string `json:"format"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	data, contentType, filename, err := s.drafts.Export(r.PathValue("id"), u.ID, req.Format)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(data)
}
