// Package httpapi exposes the webhook, operator inbox, catalog and export
// surfaces over chi.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/blackbot/blackbot/internal/bot"
	"github.com/blackbot/blackbot/internal/config"
	"github.com/blackbot/blackbot/internal/observability"
	"github.com/blackbot/blackbot/internal/store"
	"github.com/blackbot/blackbot/internal/uploads"
)

type Server struct {
	cfg       config.Config
	svc       *bot.Service
	store     store.Store
	presigner *uploads.Presigner
}

// New builds the API server. presigner may be nil when R2 is not configured;
// the upload endpoint then answers 503.
func New(cfg config.Config, svc *bot.Service, st store.Store, presigner *uploads.Presigner) *Server {
	return &Server{
		cfg:       cfg,
		svc:       svc,
		store:     st,
		presigner: presigner,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/webhook", s.handleWebhookVerify)
	r.Post("/webhook", s.handleWebhookReceive)

	// Embedded frontend: admin dashboard plus the public per-tenant menu.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin", http.StatusTemporaryRedirect)
	})
	r.Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/static/admin/index.html", http.StatusTemporaryRedirect)
	})
	r.Handle("/static/*", http.StripPrefix("/static/", newStaticHandler()))

	r.Get("/m/{slug}", func(w http.ResponseWriter, r *http.Request) {
		serveStaticFile(w, r, "menu/index.html")
	})
	r.Get("/m/{slug}/cart", func(w http.ResponseWriter, r *http.Request) {
		serveStaticFile(w, r, "menu/cart.html")
	})
	r.Get("/m/{slug}/products.json", s.handleMenuCatalog)

	// Operator and tenant surfaces, guarded by the admin token.
	r.Group(func(r chi.Router) {
		r.Use(s.requireAdminToken)

		r.Get("/inbox/conversations", s.handleInboxConversations)
		r.Get("/inbox/messages/{waID}", s.handleInboxMessages)
		r.Post("/inbox/send/{waID}", s.handleInboxSend)
		r.Post("/inbox/pause/{waID}", s.handleInboxPause)
		r.Post("/inbox/resume/{waID}", s.handleInboxResume)

		r.Get("/admin/orders.csv", s.handleOrdersCSV)

		r.Get("/api/t/{slug}/products", s.handleListProducts)
		r.Post("/api/t/{slug}/products", s.handleCreateProduct)
		r.Put("/api/t/{slug}/products/{productID}", s.handleUpdateProduct)
		r.Delete("/api/t/{slug}/products/{productID}", s.handleDeleteProduct)

		r.Post("/api/t/{slug}/upload-url", s.handleCreateUploadURL)
	})

	return r
}

// requireAdminToken compares X-Admin-Token (or the alternate Admin-Token
// header) against the configured admin token. An empty configured token
// leaves the surface open for local runs.
func (s *Server) requireAdminToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminToken != "" {
			token := strings.TrimSpace(r.Header.Get("X-Admin-Token"))
			if token == "" {
				token = strings.TrimSpace(r.Header.Get("Admin-Token"))
			}
			if token != s.cfg.AdminToken {
				respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":             "ready",
		"uploads_configured": s.presigner != nil,
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
