package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/rift/internal/app"
)

// WebhookHandler handles webhook ingestion requests.
type WebhookHandler struct {
	deps Dependencies
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(deps Dependencies) *WebhookHandler {
	return &WebhookHandler{deps: deps}
}

// HandleIngest handles POST /api/v1/webhook/ingest requests.
// Fresh events answer 201; suppressed duplicates answer 200 with the
// existing event's id and zero reward.
func (h *WebhookHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	const op = "api.ingest"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Ingest(r.Context(), r.Header.Get(SecretHeader), app.IngestPayload{
		Source:    req.Source,
		EventType: req.EventType,
		Metadata:  req.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		case errors.Is(err, app.ErrValidation):
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		case errors.Is(err, app.ErrNoRule):
			writeError(w, http.StatusUnprocessableEntity, "no_rule", WrapKind(op, ErrNoRule, err))
		default:
			writeError(w, http.StatusInternalServerError, "internal", NewKind(op, ErrInternal))
		}
		return
	}

	if res.Duplicate {
		writeJSON(w, http.StatusOK, eventResponse{
			Status:    "duplicate",
			EventID:   res.EventID,
			Message:   "duplicate event ignored",
			Duplicate: true,
		})
		return
	}
	writeJSON(w, http.StatusCreated, eventResponse{
		Status:     "created",
		EventID:    res.EventID,
		GoldEarned: res.GoldEarned,
		XPEarned:   res.XPEarned,
		Message:    "event recorded",
	})
}
