package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/blackbot/blackbot/internal/store"
)

func (s *Server) handleInboxConversations(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 100)
	convs, err := s.store.ListConversations(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "inbox_conversations_failed", err.Error())
		return
	}
	if convs == nil {
		convs = []store.ConversationSummary{}
	}
	respondJSON(w, http.StatusOK, convs)
}

func (s *Server) handleInboxMessages(w http.ResponseWriter, r *http.Request) {
	waID := chi.URLParam(r, "waID")
	limit := intQuery(r, "limit", 200)

	msgs, err := s.store.ListMessages(r.Context(), waID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "inbox_messages_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, msgs)
}

type inboxSendRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleInboxSend(w http.ResponseWriter, r *http.Request) {
	waID := chi.URLParam(r, "waID")

	var req inboxSendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		respondError(w, http.StatusBadRequest, "empty_text", "texto vazio")
		return
	}

	if status := s.svc.SendHuman(r.Context(), waID, text); status >= 400 {
		respondError(w, http.StatusBadGateway, "send_failed", "falha ao enviar")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleInboxPause(w http.ResponseWriter, r *http.Request) {
	waID := chi.URLParam(r, "waID")
	if err := s.svc.Pause(r.Context(), waID); err != nil {
		respondError(w, http.StatusInternalServerError, "pause_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (s *Server) handleInboxResume(w http.ResponseWriter, r *http.Request) {
	waID := chi.URLParam(r, "waID")
	if err := s.svc.Resume(r.Context(), waID); err != nil {
		respondError(w, http.StatusInternalServerError, "resume_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "resumed"})
}

func intQuery(r *http.Request, key string, fallback int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
