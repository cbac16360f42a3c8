package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/cache"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/mercadopago"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/service"
)

type WebhookProcessor interface {
	Process(ctx context.Context, topic, dataID string) (service.Outcome, error)
}

// WebhookHandler is the inbound notification boundary. Everything that
// should not trigger a sender-side retry is acknowledged with 200; only
// transient processing failures answer 500.
type WebhookHandler struct {
	guard     cache.ReplayGuard
	processor WebhookProcessor
	secret    string
}

func NewWebhookHandler(guard cache.ReplayGuard, processor WebhookProcessor, secret string) *WebhookHandler {
	return &WebhookHandler{
		guard:     guard,
		processor: processor,
		secret:    secret,
	}
}

type webhookBody struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

type webhookStatus struct {
	Status string `json:"status"`
}

// POST /mercadopago-webhook
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	signatureHeader := r.Header.Get("x-signature")
	requestID := r.Header.Get("x-request-id")

	var body webhookBody
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	_ = dec.Decode(&body) // body is optional, ids usually travel in the query

	dataID := r.URL.Query().Get("data.id")
	if dataID == "" {
		dataID = r.URL.Query().Get("id")
	}
	if dataID == "" {
		dataID = body.Data.ID.String()
	}

	topic := r.URL.Query().Get("type")
	if topic == "" {
		topic = r.URL.Query().Get("topic")
	}
	if topic == "" {
		topic = body.Type
	}

	log.Printf("webhook: received topic=%q data_id=%q request_id=%q", topic, dataID, requestID)

	manifestRequestID := requestID
	if manifestRequestID == "" {
		manifestRequestID = "no-request-id"
	}

	if _, err := mercadopago.VerifySignature(signatureHeader, manifestRequestID, dataID, h.secret); err != nil {
		switch {
		case errors.Is(err, mercadopago.ErrSignatureMissing):
			log.Printf("webhook: missing signature (topic %s, data id %s)", topic, dataID)
			respondJSON(w, http.StatusOK, webhookStatus{Status: "missing_signature_ignored"})
		case errors.Is(err, mercadopago.ErrSignatureFormat):
			log.Printf("webhook: malformed signature (topic %s, data id %s)", topic, dataID)
			respondJSON(w, http.StatusOK, webhookStatus{Status: "invalid_signature_format_ignored"})
		default:
			log.Printf("webhook: signature mismatch (topic %s, data id %s)", topic, dataID)
			respondJSON(w, http.StatusOK, webhookStatus{Status: "invalid_signature_ignored"})
		}
		return
	}

	idempotencyKey := requestID
	if idempotencyKey == "" {
		idempotencyKey = topic + "-" + dataID
	}

	admitted, err := h.guard.Acquire(r.Context(), idempotencyKey)
	if err != nil {
		// A broken guard must not block payments; the reconciler's own
		// idempotency check still prevents double processing.
		log.Printf("webhook: replay guard unavailable, processing anyway: %v", err)
	} else if !admitted {
		log.Printf("webhook: duplicate delivery %q", idempotencyKey)
		respondJSON(w, http.StatusOK, webhookStatus{Status: "already_processed"})
		return
	}

	outcome, err := h.processor.Process(r.Context(), topic, dataID)
	if err != nil {
		log.Printf("webhook: processing failed (topic %s, data id %s): %v", topic, dataID, err)
		respondError(w, http.StatusInternalServerError, "processing_failed", "notification processing failed")
		return
	}

	respondJSON(w, http.StatusOK, webhookStatus{Status: string(outcome)})
}
