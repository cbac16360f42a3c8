package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/domain"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/mercadopago"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/metrics"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/repository"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/pkg/retry"
)

const (
	TopicPayment       = "payment"
	TopicMerchantOrder = "merchant_order"
)

// Outcome is the acknowledgement status reported back to the notifier for
// every absorbed webhook. Only real infrastructure failures surface as
// errors instead.
type Outcome string

const (
	OutcomeProcessed       Outcome = "processed"
	OutcomePaymentNotReady Outcome = "payment_not_ready_yet"
	OutcomeNotApproved     Outcome = "not_approved"
	OutcomeNoMerchantOrder Outcome = "no_merchant_order"
	OutcomeIgnoredTopic    Outcome = "ignored_topic"
)

// ProcessorClient is the outbound surface of the payment processor used by
// the resolver.
type ProcessorClient interface {
	GetPayment(ctx context.Context, id string) (*mercadopago.Payment, error)
	GetMerchantOrder(ctx context.Context, id string) (*mercadopago.MerchantOrder, error)
}

// PaidEventPublisher receives best-effort fulfillment events.
type PaidEventPublisher interface {
	PublishOrderPaid(ctx context.Context, order *domain.Order) error
}

// WebhookService resolves payment notifications against the processor and
// reconciles approved ones into the durable order state.
type WebhookService struct {
	repo      repository.OrderRepository
	processor ProcessorClient
	publisher PaidEventPublisher
	metrics   metrics.Recorder

	// settleDelay absorbs processor eventual-consistency lag before the
	// first payment fetch. Correctness never depends on it; the processor
	// retries the notification anyway.
	settleDelay     time.Duration
	fetchAttempts   int
	fetchRetryDelay time.Duration

	sfg singleflight.Group
	now func() time.Time
}

func NewWebhookService(repo repository.OrderRepository, processor ProcessorClient, publisher PaidEventPublisher, rec metrics.Recorder) *WebhookService {
	return &WebhookService{
		repo:            repo,
		processor:       processor,
		publisher:       publisher,
		metrics:         rec,
		settleDelay:     3 * time.Second,
		fetchAttempts:   3,
		fetchRetryDelay: time.Second,
		now:             time.Now,
	}
}

// Process handles one verified, deduplicated notification. The returned
// error means "tell the sender to retry"; every other condition is an
// acknowledged Outcome.
func (s *WebhookService) Process(ctx context.Context, topic, dataID string) (Outcome, error) {
	switch topic {
	case TopicPayment:
		return s.processPayment(ctx, dataID)
	case TopicMerchantOrder:
		return s.processMerchantOrder(ctx, dataID)
	default:
		log.Printf("webhook: ignoring topic %q (data id %s)", topic, dataID)
		return OutcomeIgnoredTopic, nil
	}
}

func (s *WebhookService) processPayment(ctx context.Context, paymentID string) (Outcome, error) {
	if s.settleDelay > 0 {
		select {
		case <-time.After(s.settleDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	payment, err := s.processor.GetPayment(ctx, paymentID)
	if err != nil {
		// Not retrievable yet; the processor re-sends the notification and
		// also notifies the merchant_order topic on its own.
		log.Printf("webhook: payment %s not ready: %v", paymentID, err)
		return OutcomePaymentNotReady, nil
	}

	if payment.Status != "approved" {
		log.Printf("webhook: payment %s not approved (status %s)", paymentID, payment.Status)
		return OutcomeNotApproved, nil
	}

	if payment.Order.ID == 0 {
		log.Printf("webhook: approved payment %s has no merchant order", paymentID)
		return OutcomeNoMerchantOrder, nil
	}

	merchantOrder, err := s.fetchMerchantOrder(ctx, fmt.Sprint(payment.Order.ID))
	if err != nil {
		return "", fmt.Errorf("fetch merchant order for payment %s: %w", paymentID, err)
	}

	if _, e2 := s.reconcile(ctx, merchantOrder); e2 != nil {
		return "", e2
	}
	return OutcomeProcessed, nil
}

func (s *WebhookService) processMerchantOrder(ctx context.Context, merchantOrderID string) (Outcome, error) {
	merchantOrder, err := s.fetchMerchantOrder(ctx, merchantOrderID)
	if err != nil {
		return "", fmt.Errorf("fetch merchant order %s: %w", merchantOrderID, err)
	}

	if _, e2 := s.reconcile(ctx, merchantOrder); e2 != nil {
		return "", e2
	}
	return OutcomeProcessed, nil
}

// fetchMerchantOrder retries transient failures a few times and collapses
// concurrent fetches for the same id into one call.
func (s *WebhookService) fetchMerchantOrder(ctx context.Context, id string) (*mercadopago.MerchantOrder, error) {
	v, err, _ := s.sfg.Do("merchant_order:"+id, func() (interface{}, error) {
		return retry.Do(ctx, s.fetchAttempts, s.fetchRetryDelay,
			func(ctx context.Context) (*mercadopago.MerchantOrder, error) {
				return s.processor.GetMerchantOrder(ctx, id)
			})
	})
	if err != nil {
		return nil, err
	}
	return v.(*mercadopago.MerchantOrder), nil
}
