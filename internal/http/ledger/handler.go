package ledger

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Africa-Access-Water/afaw-api/internal/ledger"
	"github.com/Africa-Access-Water/afaw-api/internal/statement"
)

// maxUploadBytes bounds a statement upload.
const maxUploadBytes = 10 << 20

type Handler struct {
	ledger     *ledger.Service
	statements *statement.Service
}

func NewHandler(ledgerSvc *ledger.Service, statements *statement.Service) *Handler {
	return &Handler{ledger: ledgerSvc, statements: statements}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/audit", h.audit)
	r.Post("/statement", h.checkStatement)
}

type projectTotalResponse struct {
	ProjectID      uuid.UUID       `json:"project_id"`
	ProjectName    string          `json:"project_name"`
	Raised         decimal.Decimal `json:"raised"`
	Completed      decimal.Decimal `json:"completed"`
	CompletedCount int             `json:"completed_count"`
	Drift          decimal.Decimal `json:"drift"`
}

type auditResponse struct {
	Balanced bool                   `json:"balanced"`
	Projects []projectTotalResponse `json:"projects"`
	Drifted  []projectTotalResponse `json:"drifted"`
}

func toTotals(ts []ledger.ProjectTotal) []projectTotalResponse {
	resp := make([]projectTotalResponse, len(ts))
	for i, t := range ts {
		resp[i] = projectTotalResponse{
			ProjectID:      t.ProjectID,
			ProjectName:    t.ProjectName,
			Raised:         t.Raised,
			Completed:      t.Completed,
			CompletedCount: t.CompletedCount,
			Drift:          t.Drift(),
		}
	}

	return resp
}

func (h *Handler) audit(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledger.Audit(r.Context())
	if err != nil {
		slog.Error("ledger audit failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(auditResponse{
		Balanced: len(report.Drifted) == 0,
		Projects: toTotals(report.Projects),
		Drifted:  toTotals(report.Drifted),
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type chargeResponse struct {
	ID         string          `json:"id"`
	PaymentRef string          `json:"payment_ref,omitempty"`
	Created    time.Time       `json:"created"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Row        int             `json:"row"`
}

type donationRef struct {
	ID         uuid.UUID       `json:"id"`
	PaymentRef *string         `json:"payment_ref,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	CreatedAt  time.Time       `json:"created_at"`
}

type mismatchResponse struct {
	Charge   chargeResponse `json:"charge"`
	Donation donationRef    `json:"donation"`
}

type statementResponse struct {
	Format             string             `json:"format"`
	Encoding           string             `json:"encoding"`
	From               time.Time          `json:"from"`
	To                 time.Time          `json:"to"`
	Charges            int                `json:"charges"`
	Matched            int                `json:"matched"`
	Clean              bool               `json:"clean"`
	Mismatched         []mismatchResponse `json:"mismatched"`
	UnmatchedCharges   []chargeResponse   `json:"unmatched_charges"`
	UnmatchedDonations []donationRef      `json:"unmatched_donations"`
}

func toStatementResponse(rep *statement.Report) statementResponse {
	resp := statementResponse{
		Format:             rep.Format,
		Encoding:           rep.Encoding,
		From:               rep.From,
		To:                 rep.To,
		Charges:            rep.Charges,
		Matched:            len(rep.Matched),
		Clean:              rep.Clean(),
		Mismatched:         make([]mismatchResponse, 0, len(rep.Mismatched)),
		UnmatchedCharges:   make([]chargeResponse, 0, len(rep.UnmatchedCharges)),
		UnmatchedDonations: make([]donationRef, 0, len(rep.UnmatchedDonations)),
	}

	for _, m := range rep.Mismatched {
		resp.Mismatched = append(resp.Mismatched, mismatchResponse{
			Charge: toCharge(m.Charge),
			Donation: donationRef{
				ID: m.Donation.ID, PaymentRef: m.Donation.PaymentRef, Amount: m.Donation.Amount,
				Currency: m.Donation.Currency, CreatedAt: m.Donation.CreatedAt,
			},
		})
	}

	for _, c := range rep.UnmatchedCharges {
		resp.UnmatchedCharges = append(resp.UnmatchedCharges, toCharge(c))
	}

	for _, d := range rep.UnmatchedDonations {
		resp.UnmatchedDonations = append(resp.UnmatchedDonations, donationRef{
			ID: d.ID, PaymentRef: d.PaymentRef, Amount: d.Amount, Currency: d.Currency, CreatedAt: d.CreatedAt,
		})
	}

	return resp
}

func toCharge(c statement.Charge) chargeResponse {
	return chargeResponse{
		ID:         c.ID,
		PaymentRef: c.PaymentRef,
		Created:    c.Created,
		Amount:     c.Amount,
		Currency:   c.Currency,
		Row:        c.Row,
	}
}

func (h *Handler) checkStatement(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	report, err := h.statements.Check(r.Context(), file)
	if err != nil {
		if errors.Is(err, statement.ErrInvalidExport) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		slog.Error("statement check failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toStatementResponse(report)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
