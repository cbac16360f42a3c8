package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/service"
)

type PaymentHandler struct {
	payments       *service.PaymentService
	allowSimulated bool
}

func NewPaymentHandler(payments *service.PaymentService, allowSimulated bool) *PaymentHandler {
	return &PaymentHandler{
		payments:       payments,
		allowSimulated: allowSimulated,
	}
}

type cartItemDTO struct {
	PhotoID  string  `json:"photoId"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type createPreferenceRequestDTO struct {
	Cart          []cartItemDTO `json:"cart"`
	CustomerEmail string        `json:"customerEmail"`
}

type createPreferenceResponseDTO struct {
	Message      string `json:"message"`
	InitPoint    string `json:"init_point"`
	PreferenceID string `json:"preference_id"`
	OrderID      string `json:"orderId"`
}

// POST /create-payment-preference
func (h *PaymentHandler) CreatePreference(w http.ResponseWriter, r *http.Request) {
	var req createPreferenceRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart := make([]service.CartItem, 0, len(req.Cart))
	for _, item := range req.Cart {
		photoID, err := uuid.Parse(item.PhotoID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_photo_id", "cart contains an invalid photo id")
			return
		}
		cart = append(cart, service.CartItem{
			PhotoID:  photoID,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}

	result, err := h.payments.CreateCheckout(r.Context(), req.CustomerEmail, cart)
	if errors.Is(err, service.ErrEmptyCart) {
		respondError(w, http.StatusBadRequest, "empty_cart", "the cart is empty or the email is missing")
		return
	}
	if errors.Is(err, service.ErrPhotoNotFound) {
		respondError(w, http.StatusNotFound, "photo_not_found", "a cart photo was not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "checkout_failed", "could not create the payment preference")
		return
	}

	respondJSON(w, http.StatusOK, createPreferenceResponseDTO{
		Message:      "preference created",
		InitPoint:    result.InitPoint,
		PreferenceID: result.PreferenceID,
		OrderID:      result.OrderID.String(),
	})
}

type simulatePaymentRequestDTO struct {
	OrderID string `json:"orderId"`
}

// POST /simulate-payment (development only)
func (h *PaymentHandler) SimulatePayment(w http.ResponseWriter, r *http.Request) {
	if !h.allowSimulated {
		respondError(w, http.StatusNotFound, "not_found", "not available")
		return
	}

	var req simulatePaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "orderId is required")
		return
	}

	err = h.payments.SimulatePayment(r.Context(), orderID)
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
	case errors.Is(err, service.ErrOrderAlreadyPaid):
		respondError(w, http.StatusBadRequest, "already_paid", "the order is already marked as paid")
	case err != nil:
		respondError(w, http.StatusInternalServerError, "simulate_failed", "could not simulate the payment")
	default:
		respondJSON(w, http.StatusOK, map[string]string{
			"message": "payment simulated",
			"orderId": orderID.String(),
			"status":  "paid",
		})
	}
}
