package httpapi

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/blackbot/blackbot/internal/store"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

const (
	productsDefaultLimit = 50
	productsMaxLimit     = 200
)

type productListResponse struct {
	Items  []store.Product `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	limit := intQuery(r, "limit", productsDefaultLimit)
	if limit > productsMaxLimit {
		limit = productsMaxLimit
	}
	offset := 0
	if v := strings.TrimSpace(r.URL.Query().Get("offset")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}

	items, err := s.store.ListProducts(r.Context(), slug, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "products_list_failed", err.Error())
		return
	}
	total, err := s.store.CountProducts(r.Context(), slug)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "products_count_failed", err.Error())
		return
	}
	if items == nil {
		items = []store.Product{}
	}
	respondJSON(w, http.StatusOK, productListResponse{Items: items, Total: total, Limit: limit, Offset: offset})
}

// handleMenuCatalog serves the tenant catalog for the public menu page.
// Read-only and unauthenticated; writes stay behind the admin token.
func (s *Server) handleMenuCatalog(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	items, err := s.store.ListProducts(r.Context(), slug, productsMaxLimit, 0)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "products_list_failed", err.Error())
		return
	}
	total, err := s.store.CountProducts(r.Context(), slug)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "products_count_failed", err.Error())
		return
	}
	if items == nil {
		items = []store.Product{}
	}
	respondJSON(w, http.StatusOK, productListResponse{Items: items, Total: total, Limit: productsMaxLimit, Offset: 0})
}

type productCreateRequest struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  *int   `json:"price_cents"`
	Currency    string `json:"currency"`
	ImageURL    string `json:"image_url"`
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req productCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	if req.PriceCents == nil || *req.PriceCents < 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "price_cents must be >= 0")
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = "BRL"
	}
	if !currencyPattern.MatchString(currency) {
		respondError(w, http.StatusBadRequest, "invalid_request", "currency must be a 3-letter ISO code")
		return
	}

	created, err := s.store.CreateProduct(r.Context(), store.Product{
		TenantSlug:  slug,
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  *req.PriceCents,
		Currency:    currency,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "product_create_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID < 1 {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid product id")
		return
	}

	var patch store.ProductPatch
	if err := decodeJSON(r, &patch); err != nil {
		if errors.Is(err, errEmptyBody) {
			respondError(w, http.StatusBadRequest, "invalid_request", "empty body: nothing to update")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if patch.Empty() {
		respondError(w, http.StatusBadRequest, "invalid_request", "empty body: nothing to update")
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "name cannot be empty")
		return
	}
	if patch.PriceCents != nil && *patch.PriceCents < 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "price_cents must be >= 0")
		return
	}
	if patch.Currency != nil && !currencyPattern.MatchString(*patch.Currency) {
		respondError(w, http.StatusBadRequest, "invalid_request", "currency must be a 3-letter ISO code")
		return
	}

	updated, err := s.store.UpdateProduct(r.Context(), slug, productID, patch)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "product_not_found", "produto não encontrado")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "product_update_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID < 1 {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid product id")
		return
	}

	deleted, err := s.store.DeleteProduct(r.Context(), slug, productID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "product_delete_failed", err.Error())
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "product_not_found", "produto não encontrado")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
