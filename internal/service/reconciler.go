package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/domain"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/mercadopago"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/repository"
)

// reconcile applies a resolved merchant order to the durable order record,
// exactly once. It returns applied=false for everything that is already
// handled or not yet payable, and an error only when the sender should
// retry the whole notification.
func (s *WebhookService) reconcile(ctx context.Context, merchantOrder *mercadopago.MerchantOrder) (bool, error) {
	if merchantOrder.OrderStatus != "paid" && merchantOrder.PaidAmount < merchantOrder.TotalAmount {
		return false, nil
	}

	ref := merchantOrder.ExternalReference
	if ref == "" {
		// Without an order id there is nothing safe to retry against.
		log.Printf("webhook: merchant order %d has no external reference, dropping", merchantOrder.ID)
		return false, nil
	}

	orderID, err := uuid.Parse(ref)
	if err != nil {
		log.Printf("webhook: merchant order %d carries invalid external reference %q, dropping", merchantOrder.ID, ref)
		return false, nil
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		log.Printf("webhook: order %s not found, dropping", orderID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load order %s: %w", orderID, err)
	}

	// Idempotency guard: catches duplicates that outlive the replay cache,
	// including deliveries after a process restart.
	if order.Status == domain.OrderStatusPaid && order.MercadoPagoPaymentID != nil {
		log.Printf("webhook: order %s already processed", orderID)
		return false, nil
	}

	items, err := s.repo.ListOrderItems(ctx, orderID)
	if err != nil {
		return false, fmt.Errorf("load items for order %s: %w", orderID, err)
	}
	if len(items) == 0 {
		return false, fmt.Errorf("order %s has no line items", orderID)
	}

	var paymentID *int64
	if len(merchantOrder.Payments) > 0 {
		paymentID = &merchantOrder.Payments[0].ID
	}

	now := s.now()
	expiresAt := now.Add(domain.DownloadWindow)
	applied, err := s.repo.MarkOrderPaid(ctx, orderID, paymentID, now, expiresAt)
	if err != nil {
		return false, fmt.Errorf("mark order %s paid: %w", orderID, err)
	}
	if !applied {
		// Lost the race against a concurrent delivery; that one did the work.
		log.Printf("webhook: order %s was paid concurrently", orderID)
		return false, nil
	}

	log.Printf("webhook: order %s marked paid (payment %v, %d items, downloads until %s)",
		orderID, paymentID, len(items), expiresAt.Format("2006-01-02"))

	order.Status = domain.OrderStatusPaid
	order.MercadoPagoPaymentID = paymentID
	order.PaidAt = &now
	order.DownloadExpiresAt = &expiresAt
	s.notifyReconciled(ctx, order)

	return true, nil
}

// notifyReconciled runs the post-commit side effects. They are best-effort:
// a failure here is logged and never rolls back the paid transition.
func (s *WebhookService) notifyReconciled(ctx context.Context, order *domain.Order) {
	if err := s.repo.EnsureDownloadRecord(ctx, order.ID, order.CustomerEmail); err != nil {
		log.Printf("webhook: ensure download record for order %s: %v", order.ID, err)
	}

	s.metrics.OrderPaid(ctx)

	if s.publisher != nil {
		if err := s.publisher.PublishOrderPaid(ctx, order); err != nil {
			log.Printf("webhook: publish paid event for order %s: %v", order.ID, err)
		}
	}
}
