// Package publisher emits fulfillment events to Kafka. Publishing is
// best-effort bookkeeping; the payment-state transition in Postgres is the
// authoritative record.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/domain"
)

type orderPaidEvent struct {
	OrderID       string    `json:"order_id"`
	CustomerEmail string    `json:"customer_email"`
	TotalAmount   float64   `json:"total_amount"`
	PaymentID     *int64    `json:"payment_id,omitempty"`
	PaidAt        time.Time `json:"paid_at"`
}

type PaidPublisher struct {
	writer *kafka.Writer
}

func NewPaidPublisher(brokers ...string) *PaidPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "orders.paid",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &PaidPublisher{writer: w}
}

func (p *PaidPublisher) PublishOrderPaid(ctx context.Context, order *domain.Order) error {
	event := orderPaidEvent{
		OrderID:       order.ID.String(),
		CustomerEmail: order.CustomerEmail,
		TotalAmount:   order.TotalAmount,
		PaymentID:     order.MercadoPagoPaymentID,
	}
	if order.PaidAt != nil {
		event.PaidAt = *order.PaidAt
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order paid event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
	}
	if e2 := p.writer.WriteMessages(ctx, msg); e2 != nil {
		return fmt.Errorf("write order paid event: %w", e2)
	}
	return nil
}

func (p *PaidPublisher) Close() {
	if err := p.writer.Close(); err != nil {
		log.Printf("error closing kafka writer: %v", err)
	}
}
