package httpapi

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"
)

// handleOrdersCSV streams every committed order, newest first.
func (s *Server) handleOrdersCSV(w http.ResponseWriter, r *http.Request) {
	orders, err := s.store.ListOrders(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "orders_export_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename=orders.csv`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "wa_id", "date", "type", "quantity", "status", "created_at"})
	for _, o := range orders {
		_ = cw.Write([]string{
			strconv.FormatInt(o.ID, 10),
			o.ConversationID,
			o.Date,
			o.Type,
			o.Quantity,
			o.Status,
			o.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
}
