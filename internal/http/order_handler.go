package http

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/domain"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type OrderPhotoDTO struct {
	ID             string  `json:"id"`
	StudentCode    *string `json:"student_code"`
	Price          float64 `json:"price"`
	WatermarkedURL string  `json:"watermarked_url"`
}

type OrderDTO struct {
	ID                string  `json:"id"`
	CustomerEmail     string  `json:"customer_email"`
	Status            string  `json:"status"`
	TotalAmount       float64 `json:"total_amount"`
	PaidAt            *string `json:"paid_at,omitempty"`
	DownloadExpiresAt *string `json:"download_expires_at,omitempty"`
}

type OrderDetailsDTO struct {
	Order  OrderDTO        `json:"order"`
	Photos []OrderPhotoDTO `json:"photos"`
}

// GET /order-details/{orderID}/{customerEmail}
func (h *OrderHandler) GetOrderDetails(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id is not valid")
		return
	}
	customerEmail, err := url.PathUnescape(chi.URLParam(r, "customerEmail"))
	if err != nil || customerEmail == "" {
		respondError(w, http.StatusBadRequest, "invalid_email", "customer email is required")
		return
	}

	details, err := h.orders.GetOrderDetails(r.Context(), orderID, customerEmail)
	if errors.Is(err, service.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "order_not_found", "order not found or email does not match")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "order_lookup_failed", "could not load the order")
		return
	}

	photos := make([]OrderPhotoDTO, 0, len(details.Photos))
	for _, photo := range details.Photos {
		photos = append(photos, OrderPhotoDTO{
			ID:             photo.ID.String(),
			StudentCode:    photo.StudentCode,
			Price:          photo.Price,
			WatermarkedURL: photo.WatermarkedURL,
		})
	}

	respondJSON(w, http.StatusOK, OrderDetailsDTO{
		Order:  convertOrder(details.Order),
		Photos: photos,
	})
}

// GET /admin/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	photographerID := getPhotographerID(r.Context())
	if photographerID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing photographer authentication")
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), photographerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "order_list_failed", "could not list orders")
		return
	}

	dtos := make([]OrderDTO, 0, len(orders))
	for _, order := range orders {
		dtos = append(dtos, convertOrder(order))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// DELETE /admin/orders/{orderID}
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	photographerID := getPhotographerID(r.Context())
	if photographerID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing photographer authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id is not valid")
		return
	}

	err = h.orders.DeleteOrder(r.Context(), orderID, photographerID)
	if errors.Is(err, service.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "order_delete_failed", "could not delete the order")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

func convertOrder(order *domain.Order) OrderDTO {
	dto := OrderDTO{
		ID:            order.ID.String(),
		CustomerEmail: order.CustomerEmail,
		Status:        string(order.Status),
		TotalAmount:   order.TotalAmount,
	}
	if order.PaidAt != nil {
		paidAt := order.PaidAt.Format(time.RFC3339)
		dto.PaidAt = &paidAt
	}
	if order.DownloadExpiresAt != nil {
		expiresAt := order.DownloadExpiresAt.Format(time.RFC3339)
		dto.DownloadExpiresAt = &expiresAt
	}
	return dto
}
