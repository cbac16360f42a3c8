package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/domain"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/metrics"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/repository"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/storage"
)

// DownloadService gates access to original (un-watermarked) photo files
// behind the fulfilled order state and the per-photo download quota.
type DownloadService struct {
	orders  repository.OrderRepository
	catalog repository.CatalogRepository
	store   storage.Store
	metrics metrics.Recorder
}

func NewDownloadService(orders repository.OrderRepository, catalog repository.CatalogRepository, store storage.Store, rec metrics.Recorder) *DownloadService {
	return &DownloadService{
		orders:  orders,
		catalog: catalog,
		store:   store,
		metrics: rec,
	}
}

// Download authorizes and serves one original file. The checks run in
// order and short-circuit on the first failure; the quota increment only
// happens after every check passed and the asset is readable, so a storage
// failure never burns a download.
func (s *DownloadService) Download(ctx context.Context, orderID uuid.UUID, customerEmail string, photoID uuid.UUID) (io.ReadCloser, string, error) {
	order, err := s.orders.GetOrderForCustomer(ctx, orderID, customerEmail)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, "", ErrOrderNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("load order: %w", err)
	}

	if order.Status != domain.OrderStatusPaid {
		return nil, "", ErrOrderNotPaid
	}

	purchased, err := s.orders.OrderContainsPhoto(ctx, orderID, photoID)
	if err != nil {
		return nil, "", fmt.Errorf("check order items: %w", err)
	}
	if !purchased {
		return nil, "", ErrItemNotPurchased
	}

	photo, err := s.catalog.GetPhotoByID(ctx, photoID)
	if errors.Is(err, repository.ErrPhotoNotFound) {
		return nil, "", ErrPhotoNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("load photo: %w", err)
	}

	count, err := s.orders.GetDownloadCount(ctx, orderID, photoID)
	if err != nil {
		return nil, "", fmt.Errorf("check download count: %w", err)
	}
	if count >= domain.MaxDownloads {
		return nil, "", ErrDownloadQuotaExceeded
	}

	file, err := s.store.Get(ctx, photo.OriginalPath)
	if err != nil {
		return nil, "", fmt.Errorf("fetch original %s: %w", photo.OriginalPath, err)
	}

	// The conditional increment is the authoritative quota check; the read
	// above only exists for a fast deny. Two concurrent requests both
	// reaching this point still cannot exceed the limit.
	if _, e2 := s.orders.IncrementDownloadCount(ctx, orderID, photoID, domain.MaxDownloads); e2 != nil {
		file.Close()
		if errors.Is(e2, repository.ErrDownloadLimitReached) {
			return nil, "", ErrDownloadQuotaExceeded
		}
		return nil, "", fmt.Errorf("increment download count: %w", e2)
	}

	s.metrics.PhotoDownloaded(ctx)

	filename := photo.OriginalName
	if filename == "" {
		filename = fmt.Sprintf("photo-%s.jpg", photoID)
	}
	return file, filename, nil
}
