package project

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Africa-Access-Water/afaw-api/internal/donation"
	"github.com/Africa-Access-Water/afaw-api/internal/ledger"
)

type Handler struct {
	ledger    *ledger.Service
	donations *donation.Service
}

func NewHandler(ledgerSvc *ledger.Service, donations *donation.Service) *Handler {
	return &Handler{ledger: ledgerSvc, donations: donations}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/{id}/donations", h.donationsFor)
}

// publicDonation omits donor contact details.
type publicDonation struct {
	ID        uuid.UUID       `json:"id"`
	DonorName string          `json:"donor_name"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
}

type projectResponse struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	DonationRaised decimal.Decimal  `json:"donation_raised"`
	Donations      []publicDonation `json:"donations"`
}

func (h *Handler) donationsFor(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	p, err := h.ledger.Project(r.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrProjectNotFound) {
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}

		slog.Error("failed to get project", "project_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	ds, err := h.donations.ListForProject(r.Context(), id)
	if err != nil {
		slog.Error("failed to list project donations", "project_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	resp := projectResponse{
		ID:             p.ID,
		Name:           p.Name,
		DonationRaised: p.Raised,
		Donations:      make([]publicDonation, len(ds)),
	}

	for i, d := range ds {
		resp.Donations[i] = publicDonation{
			ID:        d.ID,
			DonorName: d.DonorName,
			Amount:    d.Amount,
			Currency:  d.Currency,
			CreatedAt: d.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
