package server

import (
	"context"
	"net/http"
	"time"

	"wakili_legal_assistant/auth"
)

const llmTimeout = 60 * time.Second

func (s *Server) handleChatCreate(w http.ResponseWriter, r *http.Request, u auth.User) {
	var req struct {
		Title string `json:"title"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusCreated, s.chats.Create(u.ID, req.Title))
}

func (s *Server) handleChatList(w http.ResponseWriter, r *http.Request, u auth.User) {
	writeJSON(w, http.StatusOK, s.chats.List(u.ID))
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request, u auth.User) {
	var req struct {
		Message string `json:"message"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeDetail(w, http.StatusBadRequest, "message is required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), llmTimeout)
	defer cancel()
	reply, err := s.chats.Send(ctx, r.PathValue("id"), u.ID, req.Message)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request, u auth.User) {
	c, err := s.chats.Get(r.PathValue("id"), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleResearchQuery(w http.ResponseWriter, r *http.Request, u auth.User) {
	var req struct {
		Question string `json:"question"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Question == "" {
		writeDetail(w, http.StatusBadRequest, "question is required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), llmTimeout)
	defer cancel()
	resp, err := s.research.Query(ctx, u.ID, req.Question)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResearchHistory(w http.ResponseWriter, r *http.Request, u auth.User) {
	writeJSON(w, http.StatusOK, s.research.History(u.ID))
}
