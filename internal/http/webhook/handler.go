package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Africa-Access-Water/afaw-api/internal/reconcile"
)

// maxBodyBytes bounds a single webhook payload.
const maxBodyBytes = 1 << 20

type Dispatcher interface {
	Handle(ctx context.Context, payload []byte, signature string) (reconcile.Result, error)
}

type Handler struct {
	dispatcher Dispatcher
}

func NewHandler(dispatcher Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/webhook", h.receive)
}

type receivedResponse struct {
	Received bool             `json:"received"`
	Status   reconcile.Result `json:"status"`
}

// receive acknowledges with 2xx only once the event is durably handled. A 5xx asks the
// processor to redeliver; a 400 tells it the request will never verify.
func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}

		http.Error(w, "failed to read body", http.StatusBadRequest)

		return
	}

	result, err := h.dispatcher.Handle(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		var authErr *reconcile.AuthenticationError
		if errors.As(err, &authErr) {
			slog.Warn("rejected webhook", "error", err)
			http.Error(w, "Webhook Error: "+authErr.Error(), http.StatusBadRequest)

			return
		}

		slog.Error("webhook handling failed", "error", err)
		http.Error(w, "Webhook handler failed", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(receivedResponse{Received: true, Status: result}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
