package httpapi

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/blackbot/blackbot/internal/uploads"
)

type uploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type uploadURLResponse struct {
	PutURL      string `json:"put_url"`
	PublicURL   string `json:"public_url"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (s *Server) handleCreateUploadURL(w http.ResponseWriter, r *http.Request) {
	if s.presigner == nil {
		respondError(w, http.StatusServiceUnavailable, "uploads_not_configured", "object storage is not configured")
		return
	}
	slug := chi.URLParam(r, "slug")

	var req uploadURLRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Filename) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "filename is required")
		return
	}
	if req.ExpiresIn == 0 {
		req.ExpiresIn = 600
	}
	if req.ExpiresIn < 60 || req.ExpiresIn > 3600 {
		respondError(w, http.StatusBadRequest, "invalid_request", "expires_in must be between 60 and 3600 seconds")
		return
	}

	ct := strings.ToLower(strings.TrimSpace(req.ContentType))
	if ct == "" {
		ct = "application/octet-stream"
	}
	// Images only for now: smaller attack surface on the public bucket.
	if !strings.HasPrefix(ct, "image/") {
		respondError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "somente imagens são suportadas")
		return
	}

	ext := uploads.GuessExt(req.Filename, ct)
	key := slug + "/" + strings.ReplaceAll(uuid.NewString(), "-", "") + ext

	putURL, err := s.presigner.PresignPut(r.Context(), key, ct, time.Duration(req.ExpiresIn)*time.Second)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "presign_failed", err.Error())
		return
	}

	// Light audit trail; never blocks the upload flow.
	if err := s.store.AddOutbox(r.Context(), "admin",
		fmt.Sprintf("presign:%s:%s", slug, key),
		fmt.Sprintf("ct=%s|exp=%d", ct, req.ExpiresIn),
	); err != nil {
		log.Printf("[upload-url] audit write failed: %v", err)
	}

	respondJSON(w, http.StatusOK, uploadURLResponse{
		PutURL:      putURL,
		PublicURL:   s.presigner.PublicURL(key),
		Key:         key,
		ContentType: ct,
		ExpiresIn:   req.ExpiresIn,
	})
}
