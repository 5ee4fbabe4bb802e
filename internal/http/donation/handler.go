package donation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Africa-Access-Water/afaw-api/internal/checkout"
	"github.com/Africa-Access-Water/afaw-api/internal/donation"
	"github.com/Africa-Access-Water/afaw-api/internal/processor"
)

type Handler struct {
	checkout  *checkout.Service
	donations *donation.Service
}

func NewHandler(checkoutSvc *checkout.Service, donations *donation.Service) *Handler {
	return &Handler{checkout: checkoutSvc, donations: donations}
}

// Routes registers the public donor-facing endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/checkout", h.startCheckout)
	r.Post("/subscriptions", h.startSubscription)
}

// AdminRoutes registers the read endpoints for the dashboard.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

type checkoutResponse struct {
	ID                uuid.UUID `json:"id"`
	CheckoutSessionID string    `json:"checkoutSessionID"`
	URL               string    `json:"url"`
}

func (h *Handler) startCheckout(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, h.checkout.Start)
}

func (h *Handler) startSubscription(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, h.checkout.StartSubscription)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request, start func(ctx context.Context, req checkout.Request) (*checkout.Result, error)) {
	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := start(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrInvalidRequest):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, processor.ErrUnavailable):
			http.Error(w, "payment processor unavailable", http.StatusServiceUnavailable)
		default:
			slog.Error("failed to start checkout", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(checkoutResponse{
		ID:                res.ID,
		CheckoutSessionID: res.SessionID,
		URL:               res.URL,
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := donation.ListFilter{}
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		status := donation.Status(s)
		if !status.Valid() {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}

		filter.Status = &status
	}

	if s := q.Get("project_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "invalid project_id", http.StatusBadRequest)
			return
		}

		filter.ProjectID = &id
	}

	if s := q.Get("donor_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "invalid donor_id", http.StatusBadRequest)
			return
		}

		filter.DonorID = &id
	}

	if s := q.Get("currency"); s != "" {
		filter.Currency = &s
	}

	ds, err := h.donations.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list donations", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(ds)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	d, err := h.donations.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, donation.ErrNotFound) {
			http.Error(w, "donation not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(d)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
