package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/repository"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/service"
)

type AlbumHandler struct {
	catalog *service.CatalogService
}

func NewAlbumHandler(catalog *service.CatalogService) *AlbumHandler {
	return &AlbumHandler{catalog: catalog}
}

type GalleryPhotoDTO struct {
	ID             string  `json:"id"`
	StudentCode    *string `json:"student_code"`
	Price          float64 `json:"price"`
	WatermarkedURL string  `json:"public_watermarked_url"`
}

// GET /albums/{albumID}/photos
func (h *AlbumHandler) GetAlbumPhotos(w http.ResponseWriter, r *http.Request) {
	albumID, err := uuid.Parse(chi.URLParam(r, "albumID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_album_id", "album id is not valid")
		return
	}

	gallery, err := h.catalog.AlbumGallery(r.Context(), albumID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "gallery_failed", "could not load album photos")
		return
	}
	if len(gallery) == 0 {
		respondError(w, http.StatusNotFound, "no_photos", "no photos found for this album")
		return
	}

	photos := make([]GalleryPhotoDTO, 0, len(gallery))
	for _, photo := range gallery {
		photos = append(photos, GalleryPhotoDTO{
			ID:             photo.ID.String(),
			StudentCode:    photo.StudentCode,
			Price:          photo.Price,
			WatermarkedURL: photo.WatermarkedURL,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"photos": photos})
}

type AlbumDTO struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	PricePerPhoto float64 `json:"price_per_photo"`
}

type createAlbumRequestDTO struct {
	Name          string  `json:"name"`
	PricePerPhoto float64 `json:"price_per_photo"`
}

// POST /admin/albums
func (h *AlbumHandler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	photographerID := getPhotographerID(r.Context())
	if photographerID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing photographer authentication")
		return
	}

	var req createAlbumRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "missing_name", "album name is required")
		return
	}

	album, err := h.catalog.CreateAlbum(r.Context(), photographerID, req.Name, req.PricePerPhoto)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "album_create_failed", "could not create the album")
		return
	}

	respondJSON(w, http.StatusCreated, AlbumDTO{
		ID:            album.ID.String(),
		Name:          album.Name,
		PricePerPhoto: album.PricePerPhoto,
	})
}

// GET /admin/albums
func (h *AlbumHandler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	photographerID := getPhotographerID(r.Context())
	if photographerID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing photographer authentication")
		return
	}

	albums, err := h.catalog.ListAlbums(r.Context(), photographerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "album_list_failed", "could not list albums")
		return
	}

	dtos := make([]AlbumDTO, 0, len(albums))
	for _, album := range albums {
		dtos = append(dtos, AlbumDTO{
			ID:            album.ID.String(),
			Name:          album.Name,
			PricePerPhoto: album.PricePerPhoto,
		})
	}
	respondJSON(w, http.StatusOK, dtos)
}

// DELETE /admin/albums/{albumID}
func (h *AlbumHandler) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	photographerID := getPhotographerID(r.Context())
	if photographerID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing photographer authentication")
		return
	}

	albumID, err := uuid.Parse(chi.URLParam(r, "albumID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_album_id", "album id is not valid")
		return
	}

	err = h.catalog.DeleteAlbum(r.Context(), albumID, photographerID)
	if errors.Is(err, repository.ErrAlbumNotFound) {
		respondError(w, http.StatusNotFound, "album_not_found", "album not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "album_delete_failed", "could not delete the album")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "album deleted"})
}

type registerPhotoRequestDTO struct {
	OriginalPath    string  `json:"original_path"`
	WatermarkedPath string  `json:"watermarked_path"`
	OriginalName    string  `json:"original_name"`
	StudentCode     *string `json:"student_code"`
}

// POST /admin/albums/{albumID}/photos
func (h *AlbumHandler) RegisterPhoto(w http.ResponseWriter, r *http.Request) {
	photographerID := getPhotographerID(r.Context())
	if photographerID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing photographer authentication")
		return
	}

	albumID, err := uuid.Parse(chi.URLParam(r, "albumID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_album_id", "album id is not valid")
		return
	}

	var req registerPhotoRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.OriginalPath == "" || req.WatermarkedPath == "" {
		respondError(w, http.StatusBadRequest, "missing_paths", "original_path and watermarked_path are required")
		return
	}

	photo, err := h.catalog.RegisterPhoto(r.Context(), photographerID, albumID,
		req.OriginalPath, req.WatermarkedPath, req.OriginalName, req.StudentCode)
	if errors.Is(err, repository.ErrAlbumNotFound) {
		respondError(w, http.StatusNotFound, "album_not_found", "album not found or not yours")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "photo_register_failed", "could not register the photo")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"photoId": photo.ID.String()})
}

// DELETE /admin/photos/{photoID}
func (h *AlbumHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	photographerID := getPhotographerID(r.Context())
	if photographerID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing photographer authentication")
		return
	}

	photoID, err := uuid.Parse(chi.URLParam(r, "photoID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_photo_id", "photo id is not valid")
		return
	}

	err = h.catalog.DeletePhoto(r.Context(), photoID, photographerID)
	if errors.Is(err, repository.ErrPhotoNotFound) {
		respondError(w, http.StatusNotFound, "photo_not_found", "photo not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "photo_delete_failed", "could not delete the photo")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "photo deleted"})
}
