package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// HTTPHandler exposes Handler as a chi-mountable route, verifying the
// request's signature before decoding and dispatching its payload.
type HTTPHandler struct {
	Callback      *Handler
	SigningSecret string
	ReplayWindow  time.Duration
}

// ServeHTTP implements http.Handler for the approval webhook endpoint.
func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}

	timestamp := r.Header.Get("X-Signature-Timestamp")
	signature := r.Header.Get("X-Signature")
	if err := VerifySignature(h.SigningSecret, timestamp, string(body), signature, h.ReplayWindow, time.Now()); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var payload CallbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := h.Callback.Process(r.Context(), payload)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if !result.Success {
		w.WriteHeader(http.StatusUnprocessableEntity)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(result)
}
