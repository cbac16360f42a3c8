// Package metrics defines the counter sink injected into the services so
// the core stays testable without process-wide state.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type Recorder interface {
	OrderCreated(ctx context.Context)
	OrderPaid(ctx context.Context)
	PhotoDownloaded(ctx context.Context)
}

type Noop struct{}

func (Noop) OrderCreated(context.Context)    {}
func (Noop) OrderPaid(context.Context)       {}
func (Noop) PhotoDownloaded(context.Context) {}

type OTelRecorder struct {
	ordersCreated  metric.Int64Counter
	ordersPaid     metric.Int64Counter
	photoDownloads metric.Int64Counter
}

func NewOTelRecorder() (*OTelRecorder, error) {
	meter := otel.Meter("fotografo-crm-ventas")

	ordersCreated, err := meter.Int64Counter("orders_created_total")
	if err != nil {
		return nil, fmt.Errorf("create orders_created counter: %w", err)
	}
	ordersPaid, err := meter.Int64Counter("orders_paid_total")
	if err != nil {
		return nil, fmt.Errorf("create orders_paid counter: %w", err)
	}
	photoDownloads, err := meter.Int64Counter("photos_downloaded_total")
	if err != nil {
		return nil, fmt.Errorf("create photos_downloaded counter: %w", err)
	}

	return &OTelRecorder{
		ordersCreated:  ordersCreated,
		ordersPaid:     ordersPaid,
		photoDownloads: photoDownloads,
	}, nil
}

func (r *OTelRecorder) OrderCreated(ctx context.Context) {
	r.ordersCreated.Add(ctx, 1)
}

func (r *OTelRecorder) OrderPaid(ctx context.Context) {
	r.ordersPaid.Add(ctx, 1)
}

func (r *OTelRecorder) PhotoDownloaded(ctx context.Context) {
	r.photoDownloads.Add(ctx, 1)
}
