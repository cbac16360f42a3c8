package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/cache"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/service"
)

const webhookSecret = "test-webhook-secret"

type mockWebhookProcessor struct {
	outcome service.Outcome
	err     error
	calls   int

	lastTopic  string
	lastDataID string
}

func (m *mockWebhookProcessor) Process(_ context.Context, topic, dataID string) (service.Outcome, error) {
	m.calls++
	m.lastTopic = topic
	m.lastDataID = dataID
	return m.outcome, m.err
}

func signedWebhookRequest(t *testing.T, requestID, topic, dataID string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/mercadopago-webhook?type=%s&data.id=%s", topic, dataID), nil)

	ts := "1700000000"
	manifestRequestID := requestID
	if manifestRequestID == "" {
		manifestRequestID = "no-request-id"
	}
	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, manifestRequestID, ts)
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(manifest))

	req.Header.Set("x-signature", fmt.Sprintf("ts=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))
	if requestID != "" {
		req.Header.Set("x-request-id", requestID)
	}
	return req
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	if status, ok := body["status"]; ok {
		return status
	}
	return body["error"]
}

func TestWebhookValidSignatureProcessed(t *testing.T) {
	processor := &mockWebhookProcessor{outcome: service.OutcomeProcessed}
	handler := NewWebhookHandler(cache.NewMemoryReplayGuard(), processor, webhookSecret)

	rec := httptest.NewRecorder()
	handler.Handle(rec, signedWebhookRequest(t, "req-1", "merchant_order", "777"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "processed", decodeStatus(t, rec))
	assert.Equal(t, 1, processor.calls)
	assert.Equal(t, "merchant_order", processor.lastTopic)
	assert.Equal(t, "777", processor.lastDataID)
}

func TestWebhookMissingSignatureIgnored(t *testing.T) {
	processor := &mockWebhookProcessor{outcome: service.OutcomeProcessed}
	handler := NewWebhookHandler(cache.NewMemoryReplayGuard(), processor, webhookSecret)

	req := httptest.NewRequest(http.MethodPost, "/mercadopago-webhook?type=payment&data.id=42", nil)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "missing_signature_ignored", decodeStatus(t, rec))
	assert.Zero(t, processor.calls)
}

func TestWebhookMalformedSignatureIgnored(t *testing.T) {
	processor := &mockWebhookProcessor{outcome: service.OutcomeProcessed}
	handler := NewWebhookHandler(cache.NewMemoryReplayGuard(), processor, webhookSecret)

	req := httptest.NewRequest(http.MethodPost, "/mercadopago-webhook?type=payment&data.id=42", nil)
	req.Header.Set("x-signature", "not-a-signature")
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "invalid_signature_format_ignored", decodeStatus(t, rec))
	assert.Zero(t, processor.calls)
}

func TestWebhookForgedSignatureIgnored(t *testing.T) {
	processor := &mockWebhookProcessor{outcome: service.OutcomeProcessed}
	handler := NewWebhookHandler(cache.NewMemoryReplayGuard(), processor, webhookSecret)

	req := signedWebhookRequest(t, "req-1", "merchant_order", "777")
	req.Header.Set("x-signature", "ts=1700000000,v1="+hex.EncodeToString(make([]byte, 32)))
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "invalid_signature_ignored", decodeStatus(t, rec))
	assert.Zero(t, processor.calls)
}

func TestWebhookDuplicateDeliveryAbsorbed(t *testing.T) {
	processor := &mockWebhookProcessor{outcome: service.OutcomeProcessed}
	handler := NewWebhookHandler(cache.NewMemoryReplayGuard(), processor, webhookSecret)

	rec := httptest.NewRecorder()
	handler.Handle(rec, signedWebhookRequest(t, "req-1", "merchant_order", "777"))
	require.Equal(t, "processed", decodeStatus(t, rec))

	rec = httptest.NewRecorder()
	handler.Handle(rec, signedWebhookRequest(t, "req-1", "merchant_order", "777"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "already_processed", decodeStatus(t, rec))
	assert.Equal(t, 1, processor.calls)
}

func TestWebhookWithoutRequestIDDedupedByTopicAndID(t *testing.T) {
	processor := &mockWebhookProcessor{outcome: service.OutcomeProcessed}
	handler := NewWebhookHandler(cache.NewMemoryReplayGuard(), processor, webhookSecret)

	rec := httptest.NewRecorder()
	handler.Handle(rec, signedWebhookRequest(t, "", "payment", "42"))
	require.Equal(t, "processed", decodeStatus(t, rec))

	rec = httptest.NewRecorder()
	handler.Handle(rec, signedWebhookRequest(t, "", "payment", "42"))

	assert.Equal(t, "already_processed", decodeStatus(t, rec))
	assert.Equal(t, 1, processor.calls)
}

func TestWebhookProcessingFailureAsks500(t *testing.T) {
	processor := &mockWebhookProcessor{err: errors.New("database down")}
	handler := NewWebhookHandler(cache.NewMemoryReplayGuard(), processor, webhookSecret)

	rec := httptest.NewRecorder()
	handler.Handle(rec, signedWebhookRequest(t, "req-1", "merchant_order", "777"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "processing_failed", decodeStatus(t, rec))
}

func TestWebhookTopicAndIDFromBody(t *testing.T) {
	processor := &mockWebhookProcessor{outcome: service.OutcomeProcessed}
	handler := NewWebhookHandler(cache.NewMemoryReplayGuard(), processor, webhookSecret)

	req := httptest.NewRequest(http.MethodPost, "/mercadopago-webhook",
		strings.NewReader(`{"type":"payment","data":{"id":42}}`))
	signed := signedWebhookRequest(t, "req-1", "payment", "42")
	req.Header = signed.Header

	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	assert.Equal(t, "processed", decodeStatus(t, rec))
	assert.Equal(t, "payment", processor.lastTopic)
	assert.Equal(t, "42", processor.lastDataID)
}
