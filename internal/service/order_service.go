package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/domain"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/repository"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/storage"
)

type OrderPhoto struct {
	ID             uuid.UUID
	StudentCode    *string
	Price          float64
	WatermarkedURL string
}

type OrderDetails struct {
	Order  *domain.Order
	Photos []OrderPhoto
}

// OrderService serves the customer-facing order view and the photographer's
// administrative order operations.
type OrderService struct {
	orders  repository.OrderRepository
	catalog repository.CatalogRepository
	store   storage.Store
}

func NewOrderService(orders repository.OrderRepository, catalog repository.CatalogRepository, store storage.Store) *OrderService {
	return &OrderService{
		orders:  orders,
		catalog: catalog,
		store:   store,
	}
}

// GetOrderDetails returns the order for a customer. Photos are only listed
// once the order is paid.
func (s *OrderService) GetOrderDetails(ctx context.Context, orderID uuid.UUID, customerEmail string) (*OrderDetails, error) {
	order, err := s.orders.GetOrderForCustomer(ctx, orderID, customerEmail)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	details := &OrderDetails{Order: order, Photos: []OrderPhoto{}}
	if order.Status != domain.OrderStatusPaid {
		return details, nil
	}

	items, err := s.orders.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}

	for _, item := range items {
		photo, e2 := s.catalog.GetPhotoByID(ctx, item.PhotoID)
		if errors.Is(e2, repository.ErrPhotoNotFound) {
			continue
		}
		if e2 != nil {
			return nil, fmt.Errorf("load photo %s: %w", item.PhotoID, e2)
		}
		details.Photos = append(details.Photos, OrderPhoto{
			ID:             photo.ID,
			StudentCode:    photo.StudentCode,
			Price:          photo.Price,
			WatermarkedURL: s.store.PublicURL(photo.WatermarkedPath),
		})
	}

	return details, nil
}

func (s *OrderService) ListOrders(ctx context.Context, photographerID uuid.UUID) ([]*domain.Order, error) {
	return s.orders.ListOrdersByPhotographer(ctx, photographerID)
}

func (s *OrderService) DeleteOrder(ctx context.Context, orderID, photographerID uuid.UUID) error {
	err := s.orders.DeleteOrder(ctx, orderID, photographerID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return ErrOrderNotFound
	}
	return err
}

// DownloadWindowRemaining reports how much of the download window is left,
// zero if expired or not yet paid.
func (s *OrderService) DownloadWindowRemaining(order *domain.Order, now time.Time) time.Duration {
	if order.DownloadExpiresAt == nil {
		return 0
	}
	remaining := order.DownloadExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
