package service

import "errors"

// Download gate denials. Each maps to a distinct user-facing error at the
// HTTP layer, never a generic failure.
var (
	ErrOrderNotFound         = errors.New("order not found or email mismatch")
	ErrOrderNotPaid          = errors.New("order not paid yet")
	ErrItemNotPurchased      = errors.New("photo is not part of the order")
	ErrPhotoNotFound         = errors.New("photo not found")
	ErrDownloadQuotaExceeded = errors.New("download limit reached")
)

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrOrderAlreadyPaid = errors.New("order already paid")
)
