package export

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Africa-Access-Water/afaw-api/internal/donation"
	"github.com/Africa-Access-Water/afaw-api/internal/export"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.metadata)
	r.Post("/download", h.download)
	r.Get("/{id}", h.single)
}

type exportRequest struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
}

type receiptResponse struct {
	DonationID uuid.UUID       `json:"donation_id"`
	DonorName  string          `json:"donor_name"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Purpose    string          `json:"purpose"`
	Date       time.Time       `json:"date"`
	File       string          `json:"file"`
}

type exportMetadataResponse struct {
	Receipts []receiptResponse `json:"receipts"`
	Summary  string            `json:"summary"`
}

func (req exportRequest) filter() export.Filter {
	return export.Filter{From: req.StartDate, To: req.EndDate, ProjectID: req.ProjectID}
}

// run exports into a scratch directory that fn may read before it is removed.
func (h *Handler) run(w http.ResponseWriter, r *http.Request, fn func(dir string, items []export.Item)) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tmpDir, err := os.MkdirTemp("", "afaw-receipts-*")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tmpDir)

	items, err := h.svc.Export(r.Context(), req.filter(), tmpDir)
	if err != nil {
		if errors.Is(err, export.ErrRendererDisabled) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		slog.Error("receipt export failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	fn(tmpDir, items)
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(_ string, items []export.Item) {
		resp := exportMetadataResponse{
			Receipts: make([]receiptResponse, 0, len(items)),
			Summary:  h.svc.Summary(items),
		}

		for _, item := range items {
			d := item.Donation
			resp.Receipts = append(resp.Receipts, receiptResponse{
				DonationID: d.ID,
				DonorName:  d.DonorName,
				Amount:     d.Amount,
				Currency:   d.Currency,
				Purpose:    d.Purpose(),
				Date:       d.CreatedAt,
				File:       filepath.Base(item.FilePath),
			})
		}

		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(dir string, items []export.Item) {
		if err := os.WriteFile(filepath.Join(dir, "summary.txt"), []byte(h.svc.Summary(items)), 0o644); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=\"receipts_%s.zip\"", time.Now().Format("20060102")))

		zipWriter := zip.NewWriter(w)
		defer zipWriter.Close()

		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return err
			}

			relPath, _ := filepath.Rel(dir, path)

			zf, err := zipWriter.Create(relPath)
			if err != nil {
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			_, err = io.Copy(zf, f)

			return err
		})
		if err != nil {
			slog.Error("failed to create zip", "error", err)
		}
	})
}

func (h *Handler) single(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	rec, pdf, err := h.svc.Receipt(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, donation.ErrNotFound):
			http.Error(w, "donation not found", http.StatusNotFound)
		case errors.Is(err, export.ErrNotCompleted):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, export.ErrRendererDisabled):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		default:
			slog.Error("failed to generate receipt", "donation_id", id, "error", err)
			http.Error(w, "Failed to generate receipt PDF", http.StatusInternalServerError)
		}

		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Filename()))

	if _, err := w.Write(pdf); err != nil {
		slog.Error("failed to write receipt", "error", err)
	}
}
