package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// MaxDownloads is the per-photo, per-order download quota.
const MaxDownloads = 3

// DownloadWindow is how long paid originals stay downloadable.
const DownloadWindow = 7 * 24 * time.Hour

// Order is a single checkout attempt. It is created as pending together
// with its items and only ever moves to paid through a conditional update.
type Order struct {
	ID                   uuid.UUID
	CustomerEmail        string
	PhotographerID       uuid.UUID
	TotalAmount          float64
	Status               OrderStatus
	MercadoPagoPaymentID *int64
	DownloadExpiresAt    *time.Time
	PaidAt               *time.Time
	CreatedAt            time.Time
}

// OrderItem links an order to a purchased photo. The item set is written
// once at checkout and read-only afterwards.
type OrderItem struct {
	OrderID         uuid.UUID `json:"order_id"`
	PhotoID         uuid.UUID `json:"photo_id"`
	PriceAtPurchase float64   `json:"price_at_purchase"`
	Quantity        int       `json:"quantity"`
}

// DownloadRecord is the per-order download-tracking aggregate created when
// an order is reconciled to paid.
type DownloadRecord struct {
	OrderID   uuid.UUID
	UserEmail string
	Counter   int
	CreatedAt time.Time
}

// PhotoDownload is the per (order, photo) usage counter maintained by the
// download gate.
type PhotoDownload struct {
	OrderID       uuid.UUID
	PhotoID       uuid.UUID
	DownloadCount int
}
