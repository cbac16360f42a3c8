package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/domain"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/mercadopago"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/metrics"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/repository"
)

type CartItem struct {
	PhotoID  uuid.UUID
	Price    float64
	Quantity int
}

type CheckoutResult struct {
	OrderID      uuid.UUID
	PreferenceID string
	InitPoint    string
}

type PreferenceCreator interface {
	CreatePreference(ctx context.Context, req *mercadopago.PreferenceRequest) (*mercadopago.PreferenceResponse, error)
}

// PaymentService creates pending orders and their processor-side checkout
// preferences. The preference carries the order id as external_reference,
// which is what ties an incoming webhook back to the order.
type PaymentService struct {
	orders      repository.OrderRepository
	catalog     repository.CatalogRepository
	processor   PreferenceCreator
	metrics     metrics.Recorder
	frontendURL string
	backendURL  string
	production  bool
}

func NewPaymentService(orders repository.OrderRepository, catalog repository.CatalogRepository, processor PreferenceCreator, rec metrics.Recorder, frontendURL, backendURL string, production bool) *PaymentService {
	return &PaymentService{
		orders:      orders,
		catalog:     catalog,
		processor:   processor,
		metrics:     rec,
		frontendURL: strings.TrimSuffix(frontendURL, "/"),
		backendURL:  strings.TrimSuffix(backendURL, "/"),
		production:  production,
	}
}

func (s *PaymentService) CreateCheckout(ctx context.Context, customerEmail string, cart []CartItem) (*CheckoutResult, error) {
	if len(cart) == 0 || customerEmail == "" {
		return nil, ErrEmptyCart
	}

	var total float64
	for _, item := range cart {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		total += item.Price * float64(qty)
	}

	// The photographer owning the first photo's album owns the order.
	photo, err := s.catalog.GetPhotoByID(ctx, cart[0].PhotoID)
	if errors.Is(err, repository.ErrPhotoNotFound) {
		return nil, ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load cart photo: %w", err)
	}
	album, err := s.catalog.GetAlbumByID(ctx, photo.AlbumID)
	if err != nil {
		return nil, fmt.Errorf("load cart album: %w", err)
	}

	order := &domain.Order{
		ID:             uuid.New(),
		CustomerEmail:  strings.ToLower(customerEmail),
		PhotographerID: album.PhotographerID,
		TotalAmount:    total,
		Status:         domain.OrderStatusPending,
		CreatedAt:      time.Now(),
	}

	items := make([]domain.OrderItem, 0, len(cart))
	for _, item := range cart {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		items = append(items, domain.OrderItem{
			OrderID:         order.ID,
			PhotoID:         item.PhotoID,
			PriceAtPurchase: item.Price,
			Quantity:        qty,
		})
	}

	if e2 := s.orders.CreateOrder(ctx, order, items); e2 != nil {
		return nil, fmt.Errorf("create order: %w", e2)
	}

	returnURL := fmt.Sprintf("%s/success.html?orderId=%s&customerEmail=%s",
		s.frontendURL, order.ID, url.QueryEscape(order.CustomerEmail))

	pref, err := s.processor.CreatePreference(ctx, &mercadopago.PreferenceRequest{
		Items: []mercadopago.PreferenceItem{{
			Title:      "Compra de Fotos Escolares",
			UnitPrice:  total,
			Quantity:   1,
			CurrencyID: "ARS",
		}},
		ExternalReference: order.ID.String(),
		BackURLs: mercadopago.PreferenceBackURLs{
			Success: returnURL,
			Failure: returnURL,
			Pending: returnURL,
		},
		AutoReturn:      "approved",
		NotificationURL: s.backendURL + "/mercadopago-webhook",
	})
	if err != nil {
		return nil, fmt.Errorf("create payment preference: %w", err)
	}

	s.metrics.OrderCreated(ctx)
	log.Printf("checkout: order %s created for %s (total %.2f)", order.ID, order.CustomerEmail, total)

	initPoint := pref.SandboxInitPoint
	if s.production || initPoint == "" {
		initPoint = pref.InitPoint
	}

	return &CheckoutResult{
		OrderID:      order.ID,
		PreferenceID: pref.ID,
		InitPoint:    initPoint,
	}, nil
}

// SimulatePayment marks an order paid through the same conditional update
// the reconciler uses. Development helper only.
func (s *PaymentService) SimulatePayment(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	now := time.Now()
	applied, err := s.orders.MarkOrderPaid(ctx, orderID, nil, now, now.Add(domain.DownloadWindow))
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if !applied {
		return ErrOrderAlreadyPaid
	}

	if e2 := s.orders.EnsureDownloadRecord(ctx, orderID, order.CustomerEmail); e2 != nil {
		log.Printf("simulate payment: ensure download record for order %s: %v", orderID, e2)
	}
	return nil
}
