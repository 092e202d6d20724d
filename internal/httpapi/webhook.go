package httpapi

import (
	"log"
	"net/http"

	"github.com/blackbot/blackbot/internal/whatsapp"
)

// handleWebhookVerify answers the Meta subscription challenge.
func (s *Server) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && token == s.cfg.VerifyToken && s.cfg.VerifyToken != "" && challenge != "" {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
		return
	}
	respondError(w, http.StatusForbidden, "verification_failed", "Verification failed")
}

// handleWebhookReceive walks an inbound event batch and feeds each message
// through the pipeline. Processing errors are logged, never returned:
// upstream delivery is at-least-once and the dedup ledger makes redelivery
// safe, so a webhook response is always 200.
func (s *Server) handleWebhookReceive(w http.ResponseWriter, r *http.Request) {
	var payload whatsapp.WebhookPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	ctx := r.Context()
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.From == "" {
					continue
				}
				var err error
				if msg.Type == "text" {
					_, err = s.svc.HandleInbound(ctx, msg.From, msg.ID, msg.Body())
				} else {
					err = s.svc.HandleNonText(ctx, msg.From, msg.ID, msg.Type)
				}
				if err != nil {
					log.Printf("[webhook] processing %s from %s failed: %v", msg.ID, msg.From, err)
				}
			}
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "EVENT_RECEIVED"})
}
