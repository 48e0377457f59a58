package server

import (
	"context"
	"fmt"
	"net/http"

	"wakili_legal_assistant/auth"
)

func (s *Server) handleWorkflowList(w http.ResponseWriter, r *http.Request, u auth.User) {
	writeJSON(w, http.StatusOK, s.workflows.List(u.ID))
}

func (s *Server) handleWorkflowCreate(w http.ResponseWriter, r *http.Request, u auth.User) {
	var req struct {
		ChatID string `json:"chatId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ChatID == "" {
		writeDetail(w, http.StatusBadRequest, "chatId is required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), llmTimeout)
	defer cancel()
	wf, err := s.workflows.CreateFromChat(ctx, u.ID, req.ChatID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wf)
}

func (s *Server) handleWorkflowGet(w http.ResponseWriter, r *http.Request, u auth.User) {
	wf, err := s.workflows.Get(r.PathValue("id"), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (s *Server) handleWorkflowDelete(w http.ResponseWriter, r *http.Request, u auth.User) {
	if err := s.workflows.Delete(r.PathValue("id"), u.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "deleted"})
}

func (s *Server) handleWorkflowControl(w http.ResponseWriter, r *http.Request, u auth.User) {
	var req struct {
		Action string `json:"action"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	wf, err := s.workflows.Control(r.PathValue("id"), u.ID, req.Action)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (s *Server) handleStepApprove(w http.ResponseWriter, r *http.Request, u auth.User) {
	wf, err := s.workflows.ApproveStep(r.PathValue("id"), r.PathValue("sid"), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (s *Server) handleStepModify(w http.ResponseWriter, r *http.Request, u auth.User) {
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
	wf, err := s.workflows.ModifyStep(r.PathValue("id"), r.PathValue("sid"), u.ID, req.Modifications)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (s *Server) handleWorkflowExport(w http.ResponseWriter, r *http.Request, u auth.User) {
	var req struct {
		Format string `json:"format"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	data, contentType, filename, err := s.workflows.Export(r.PathValue("id"), u.ID, req.Format)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(data)
}

func (s *Server) handleWorkflowCreateDraft(w http.ResponseWriter, r *http.Request, u auth.User) {
	ctx, cancel := context.WithTimeout(r.Context(), llmTimeout)
	defer cancel()
	draftID, err := s.workflows.CreateDraft(ctx, r.PathValue("id"), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"draftId": draftID})
}
