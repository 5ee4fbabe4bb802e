package donor

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Africa-Access-Water/afaw-api/internal/donor"
)

type Handler struct {
	svc *donor.Service
}

func NewHandler(svc *donor.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
}

type donorResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	CustomerRef *string   `json:"stripe_customer_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	donors, err := h.svc.List(r.Context())
	if err != nil {
		slog.Error("failed to list donors", "error", err)
		http.Error(w, "Unable to fetch donors", http.StatusInternalServerError)

		return
	}

	resp := make([]donorResponse, len(donors))
	for i, d := range donors {
		resp[i] = donorResponse{
			ID:          d.ID,
			Name:        d.Name,
			Email:       d.Email,
			CustomerRef: d.CustomerRef,
			CreatedAt:   d.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
