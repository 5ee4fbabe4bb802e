package subscription

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Africa-Access-Water/afaw-api/internal/subscription"
)

type Handler struct {
	svc *subscription.Service
}

func NewHandler(svc *subscription.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

type subscriptionResponse struct {
	ID             uuid.UUID             `json:"id"`
	DonorID        uuid.UUID             `json:"donor_id"`
	DonorName      string                `json:"donor_name,omitempty"`
	DonorEmail     string                `json:"donor_email,omitempty"`
	ProjectID      *uuid.UUID            `json:"project_id,omitempty"`
	ProjectName    *string               `json:"project_name,omitempty"`
	Amount         decimal.Decimal       `json:"amount"`
	Currency       string                `json:"currency"`
	Interval       subscription.Interval `json:"interval"`
	Status         subscription.Status   `json:"status"`
	ProcessorRef   *string               `json:"stripe_subscription_id,omitempty"`
	NextBillingAt  *time.Time            `json:"next_billing_date,omitempty"`
	FailedAttempts int                   `json:"failed_attempts"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      *time.Time            `json:"updated_at,omitempty"`
}

func toResponse(s *subscription.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:             s.ID,
		DonorID:        s.DonorID,
		DonorName:      s.DonorName,
		DonorEmail:     s.DonorEmail,
		ProjectID:      s.ProjectID,
		ProjectName:    s.ProjectName,
		Amount:         s.Amount,
		Currency:       s.Currency,
		Interval:       s.Interval,
		Status:         s.Status,
		ProcessorRef:   s.ProcessorRef,
		NextBillingAt:  s.NextBillingAt,
		FailedAttempts: s.FailedAttempts,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := subscription.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		status, err := subscription.ParseStatus(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		filter.Status = &status
	}

	if s := r.URL.Query().Get("donor_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "invalid donor_id", http.StatusBadRequest)
			return
		}

		filter.DonorID = &id
	}

	subs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list subscriptions", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	resp := make([]subscriptionResponse, len(subs))
	for i, s := range subs {
		resp[i] = toResponse(s)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	sub, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			http.Error(w, "subscription not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(sub)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
