package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"wakili_legal_assistant/auth"
)

const extractTimeout = 120 * time.Second

// 32 MB in-memory cap for multipart parsing; larger parts spill to disk.
const maxUploadMemory = 32 << 20

func (s *Server) handleDocumentUpload(w http.ResponseWriter, r *http.Request, u auth.User) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeDetail(w, http.StatusBadRequest, "parse upload: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	name, err := s.documents.SaveUpload(header.Filename, u.ID, r.FormValue("description"), file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"filename": name})
}

func (s *Server) handleDocumentList(w http.ResponseWriter, r *http.Request, u auth.User) {
	names, err := s.documents.List()
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"documents": names})
}

func (s *Server) handleDocumentDownload(w http.ResponseWriter, r *http.Request, u auth.User) {
	path, err := s.documents.Path(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", r.PathValue("name")))
	http.ServeFile(w, r, path)
}

func (s *Server) handleDocumentDelete(w http.ResponseWriter, r *http.Request, u auth.User) {
	if err := s.documents.Delete(r.PathValue("name"), u.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "deleted"})
}

func (s *Server) handleDocumentExtract(w http.ResponseWriter, r *http.Request, u auth.User) {
	ctx, cancel := context.WithTimeout(r.Context(), extractTimeout)
	defer cancel()
	doc, err := s.documents.Extract(ctx, r.PathValue("name"), u.ID, s.extraction)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// handleDocumentEventLog is admin-only.
func (s *Server) handleDocumentEventLog(w http.ResponseWriter, r *http.Request, u auth.User) {
	if !s.verifier.IsAdmin(r.Context(), bearerToken(r), u) {
		writeDetail(w, http.StatusForbidden, "admin role required")
		return
	}
	events, err := s.documents.EventLog()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
