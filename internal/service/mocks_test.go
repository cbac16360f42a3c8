package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/domain"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/mercadopago"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/repository"
)

// mockOrderRepo implements repository.OrderRepository for testing
type mockOrderRepo struct {
	mu              sync.Mutex
	orders          map[uuid.UUID]*domain.Order
	items           map[uuid.UUID][]domain.OrderItem
	counts          map[string]int
	downloadRecords map[uuid.UUID]string

	getOrderErr  error
	listItemsErr error
	markPaidErr  error
	ensureErr    error
	countErr     error
	incrementErr error

	markPaidCalls int
	ensureCalls   int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders:          make(map[uuid.UUID]*domain.Order),
		items:           make(map[uuid.UUID][]domain.OrderItem),
		counts:          make(map[string]int),
		downloadRecords: make(map[uuid.UUID]string),
	}
}

func countKey(orderID, photoID uuid.UUID) string {
	return fmt.Sprintf("%s/%s", orderID, photoID)
}

func (m *mockOrderRepo) CreateOrder(_ context.Context, order *domain.Order, items []domain.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *order
	m.orders[order.ID] = &copied
	m.items[order.ID] = items
	return nil
}

func (m *mockOrderRepo) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getOrderErr != nil {
		return nil, m.getOrderErr
	}
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *mockOrderRepo) GetOrderForCustomer(_ context.Context, id uuid.UUID, customerEmail string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getOrderErr != nil {
		return nil, m.getOrderErr
	}
	order, ok := m.orders[id]
	if !ok || !strings.EqualFold(order.CustomerEmail, customerEmail) {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *mockOrderRepo) ListOrderItems(_ context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listItemsErr != nil {
		return nil, m.listItemsErr
	}
	return m.items[orderID], nil
}

func (m *mockOrderRepo) OrderContainsPhoto(_ context.Context, orderID, photoID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items[orderID] {
		if item.PhotoID == photoID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockOrderRepo) MarkOrderPaid(_ context.Context, orderID uuid.UUID, paymentID *int64, paidAt, expiresAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markPaidErr != nil {
		return false, m.markPaidErr
	}
	m.markPaidCalls++
	order, ok := m.orders[orderID]
	if !ok || order.Status != domain.OrderStatusPending {
		return false, nil
	}
	order.Status = domain.OrderStatusPaid
	order.MercadoPagoPaymentID = paymentID
	order.PaidAt = &paidAt
	order.DownloadExpiresAt = &expiresAt
	return true, nil
}

func (m *mockOrderRepo) EnsureDownloadRecord(_ context.Context, orderID uuid.UUID, userEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ensureErr != nil {
		return m.ensureErr
	}
	m.ensureCalls++
	if _, ok := m.downloadRecords[orderID]; !ok {
		m.downloadRecords[orderID] = userEmail
	}
	return nil
}

func (m *mockOrderRepo) GetDownloadCount(_ context.Context, orderID, photoID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.counts[countKey(orderID, photoID)], nil
}

func (m *mockOrderRepo) IncrementDownloadCount(_ context.Context, orderID, photoID uuid.UUID, maxDownloads int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incrementErr != nil {
		return 0, m.incrementErr
	}
	key := countKey(orderID, photoID)
	if m.counts[key] >= maxDownloads {
		return 0, repository.ErrDownloadLimitReached
	}
	m.counts[key]++
	return m.counts[key], nil
}

func (m *mockOrderRepo) ListOrdersByPhotographer(_ context.Context, photographerID uuid.UUID) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []*domain.Order
	for _, order := range m.orders {
		if order.PhotographerID == photographerID {
			copied := *order
			orders = append(orders, &copied)
		}
	}
	return orders, nil
}

func (m *mockOrderRepo) DeleteOrder(_ context.Context, orderID, photographerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok || order.PhotographerID != photographerID {
		return repository.ErrOrderNotFound
	}
	delete(m.orders, orderID)
	delete(m.items, orderID)
	return nil
}

// mockCatalogRepo implements repository.CatalogRepository for testing
type mockCatalogRepo struct {
	albums map[uuid.UUID]*domain.Album
	photos map[uuid.UUID]*domain.Photo
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{
		albums: make(map[uuid.UUID]*domain.Album),
		photos: make(map[uuid.UUID]*domain.Photo),
	}
}

func (m *mockCatalogRepo) CreateAlbum(_ context.Context, album *domain.Album) error {
	m.albums[album.ID] = album
	return nil
}

func (m *mockCatalogRepo) GetAlbumByID(_ context.Context, id uuid.UUID) (*domain.Album, error) {
	album, ok := m.albums[id]
	if !ok {
		return nil, repository.ErrAlbumNotFound
	}
	return album, nil
}

func (m *mockCatalogRepo) ListAlbumsByPhotographer(_ context.Context, photographerID uuid.UUID) ([]*domain.Album, error) {
	var albums []*domain.Album
	for _, album := range m.albums {
		if album.PhotographerID == photographerID {
			albums = append(albums, album)
		}
	}
	return albums, nil
}

func (m *mockCatalogRepo) DeleteAlbum(_ context.Context, albumID, photographerID uuid.UUID) error {
	album, ok := m.albums[albumID]
	if !ok || album.PhotographerID != photographerID {
		return repository.ErrAlbumNotFound
	}
	delete(m.albums, albumID)
	return nil
}

func (m *mockCatalogRepo) CreatePhoto(_ context.Context, photo *domain.Photo) error {
	m.photos[photo.ID] = photo
	return nil
}

func (m *mockCatalogRepo) GetPhotoByID(_ context.Context, id uuid.UUID) (*domain.Photo, error) {
	photo, ok := m.photos[id]
	if !ok {
		return nil, repository.ErrPhotoNotFound
	}
	return photo, nil
}

func (m *mockCatalogRepo) ListAlbumPhotos(_ context.Context, albumID uuid.UUID) ([]*domain.Photo, error) {
	var photos []*domain.Photo
	for _, photo := range m.photos {
		if photo.AlbumID == albumID {
			photos = append(photos, photo)
		}
	}
	return photos, nil
}

func (m *mockCatalogRepo) DeletePhoto(_ context.Context, photoID, _ uuid.UUID) error {
	if _, ok := m.photos[photoID]; !ok {
		return repository.ErrPhotoNotFound
	}
	delete(m.photos, photoID)
	return nil
}

// mockProcessor implements ProcessorClient for testing
type mockProcessor struct {
	mu             sync.Mutex
	payment        *mercadopago.Payment
	paymentErr     error
	merchantOrders map[string]*mercadopago.MerchantOrder
	merchantErr    error

	paymentCalls  int
	merchantCalls int
}

func newMockProcessor() *mockProcessor {
	return &mockProcessor{merchantOrders: make(map[string]*mercadopago.MerchantOrder)}
}

func (m *mockProcessor) GetPayment(_ context.Context, _ string) (*mercadopago.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paymentCalls++
	if m.paymentErr != nil {
		return nil, m.paymentErr
	}
	return m.payment, nil
}

func (m *mockProcessor) GetMerchantOrder(_ context.Context, id string) (*mercadopago.MerchantOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merchantCalls++
	if m.merchantErr != nil {
		return nil, m.merchantErr
	}
	order, ok := m.merchantOrders[id]
	if !ok {
		return nil, mercadopago.ErrNotFound
	}
	return order, nil
}

// mockPublisher implements PaidEventPublisher for testing
type mockPublisher struct {
	published []*domain.Order
	err       error
}

func (m *mockPublisher) PublishOrderPaid(_ context.Context, order *domain.Order) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, order)
	return nil
}

// mockStore implements storage.Store for testing
type mockStore struct {
	files  map[string][]byte
	getErr error
}

func newMockStore() *mockStore {
	return &mockStore{files: make(map[string][]byte)}
}

func (m *mockStore) Get(_ context.Context, path string) (io.ReadCloser, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("object %s missing", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockStore) Put(_ context.Context, path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.files[path] = data
	return nil
}

func (m *mockStore) PublicURL(path string) string {
	return "http://static.test/" + path
}
