package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/domain"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrAlbumNotFound        = errors.New("album not found")
	ErrPhotoNotFound        = errors.New("photo not found")
	ErrDuplicateOrder       = errors.New("order already exists")
	ErrDownloadLimitReached = errors.New("download limit reached")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// OrderRepository covers the order, line-item and download-counter
// collections. All paid-state mutations are conditional so that concurrent
// webhook deliveries and download requests cannot double-apply.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order, items []domain.OrderItem) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderForCustomer(ctx context.Context, id uuid.UUID, customerEmail string) (*domain.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error)
	OrderContainsPhoto(ctx context.Context, orderID, photoID uuid.UUID) (bool, error)

	// MarkOrderPaid flips a pending order to paid. It reports false when the
	// order was not pending anymore, which callers treat as already handled.
	MarkOrderPaid(ctx context.Context, orderID uuid.UUID, paymentID *int64, paidAt, expiresAt time.Time) (bool, error)

	// EnsureDownloadRecord creates the per-order tracking aggregate if it is
	// not there yet. Calling it again for the same order is a no-op.
	EnsureDownloadRecord(ctx context.Context, orderID uuid.UUID, userEmail string) error

	GetDownloadCount(ctx context.Context, orderID, photoID uuid.UUID) (int, error)

	// IncrementDownloadCount atomically creates the counter at 1 or bumps it
	// by one while it stays below maxDownloads. It returns the new count or
	// ErrDownloadLimitReached.
	IncrementDownloadCount(ctx context.Context, orderID, photoID uuid.UUID, maxDownloads int) (int, error)

	ListOrdersByPhotographer(ctx context.Context, photographerID uuid.UUID) ([]*domain.Order, error)
	DeleteOrder(ctx context.Context, orderID, photographerID uuid.UUID) error
}

type CatalogRepository interface {
	CreateAlbum(ctx context.Context, album *domain.Album) error
	GetAlbumByID(ctx context.Context, id uuid.UUID) (*domain.Album, error)
	ListAlbumsByPhotographer(ctx context.Context, photographerID uuid.UUID) ([]*domain.Album, error)
	DeleteAlbum(ctx context.Context, albumID, photographerID uuid.UUID) error

	CreatePhoto(ctx context.Context, photo *domain.Photo) error
	GetPhotoByID(ctx context.Context, id uuid.UUID) (*domain.Photo, error)
	ListAlbumPhotos(ctx context.Context, albumID uuid.UUID) ([]*domain.Photo, error)
	DeletePhoto(ctx context.Context, photoID, photographerID uuid.UUID) error
}

type Repository interface {
	OrderRepository
	CatalogRepository
	RunMigrations(*Credentials) error
	Close() error
}
