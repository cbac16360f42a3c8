package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/service"
)

type Downloader interface {
	Download(ctx context.Context, orderID uuid.UUID, customerEmail string, photoID uuid.UUID) (io.ReadCloser, string, error)
}

type DownloadHandler struct {
	downloads Downloader
}

func NewDownloadHandler(downloads Downloader) *DownloadHandler {
	return &DownloadHandler{downloads: downloads}
}

// GET /download-photo/{photoID}/{orderID}/{customerEmail}
func (h *DownloadHandler) DownloadPhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := uuid.Parse(chi.URLParam(r, "photoID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_photo_id", "photo id is not valid")
		return
	}
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

	file, filename, err := h.downloads.Download(r.Context(), orderID, customerEmail, photoID)
	if err != nil {
		h.respondDenial(w, err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Type", "image/jpeg")
	if _, e2 := io.Copy(w, file); e2 != nil {
		// Transfer already started; nothing left to send but a log line.
		log.Printf("download: sending photo %s for order %s failed: %v", photoID, orderID, e2)
	}
}

func (h *DownloadHandler) respondDenial(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", "order not found or email does not match")
	case errors.Is(err, service.ErrOrderNotPaid):
		respondError(w, http.StatusForbidden, "order_not_paid", "the order is not paid yet")
	case errors.Is(err, service.ErrItemNotPurchased):
		respondError(w, http.StatusNotFound, "item_not_purchased", "this photo is not part of your order")
	case errors.Is(err, service.ErrPhotoNotFound):
		respondError(w, http.StatusNotFound, "photo_not_found", "photo not found")
	case errors.Is(err, service.ErrDownloadQuotaExceeded):
		respondError(w, http.StatusForbidden, "download_limit_reached", "you have reached the download limit for this photo")
	default:
		log.Printf("download: unexpected failure: %v", err)
		respondError(w, http.StatusInternalServerError, "download_failed", "could not download the photo")
	}
}
