package handler

import (
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"biblio/internal/loan/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const streamKeepAlive = 30 * time.Second

// handleStream serves loan snapshots as Server-Sent Events. Each "loans" event carries
// the full current list (optionally filtered by ?status=); intermediate snapshots may
// be skipped when the client reads slowly.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.ErrorContext(ctx, "response writer does not support streaming")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	var filter func(models.LoanDetails) bool
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := models.ParseLoanStatus(raw)
		if err != nil {
			h.fail(ctx, w, "invalid loan status filter", err)
			return
		}
		filter = func(d models.LoanDetails) bool { return d.Loan.Status == status }
	}

	updates := make(chan []byte, 1)
	unsubscribe := h.feed.Subscribe(filter, func(loans []models.LoanDetails) {
		payload, err := json.Marshal(toList(loans, toLoanDetailsResponse))
		if err != nil {
			h.logger.WarnContext(ctx, "failed to encode loan snapshot", "error", err)
			return
		}
		// keep only the newest snapshot
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- payload:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-updates:
			if _, err := w.Write([]byte("event: loans\ndata: ")); err != nil {
				return
			}
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := w.Write([]byte(": keep-alive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

