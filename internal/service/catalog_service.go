package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/domain"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/repository"
	"github.com/matiasskenen/Fotografo-CRM-Ventas/internal/storage"
)

type GalleryPhoto struct {
	ID             uuid.UUID
	StudentCode    *string
	Price          float64
	WatermarkedURL string
}

// CatalogService covers album and photo management plus the public
// watermarked gallery.
type CatalogService struct {
	catalog repository.CatalogRepository
	store   storage.Store
}

func NewCatalogService(catalog repository.CatalogRepository, store storage.Store) *CatalogService {
	return &CatalogService{catalog: catalog, store: store}
}

const defaultPricePerPhoto = 1500.0

func (s *CatalogService) CreateAlbum(ctx context.Context, photographerID uuid.UUID, name string, pricePerPhoto float64) (*domain.Album, error) {
	if name == "" {
		return nil, fmt.Errorf("album name is required")
	}
	if pricePerPhoto <= 0 {
		pricePerPhoto = defaultPricePerPhoto
	}

	album := &domain.Album{
		ID:             uuid.New(),
		PhotographerID: photographerID,
		Name:           name,
		PricePerPhoto:  pricePerPhoto,
	}
	if err := s.catalog.CreateAlbum(ctx, album); err != nil {
		return nil, fmt.Errorf("create album: %w", err)
	}
	return album, nil
}

func (s *CatalogService) ListAlbums(ctx context.Context, photographerID uuid.UUID) ([]*domain.Album, error) {
	return s.catalog.ListAlbumsByPhotographer(ctx, photographerID)
}

func (s *CatalogService) DeleteAlbum(ctx context.Context, albumID, photographerID uuid.UUID) error {
	return s.catalog.DeleteAlbum(ctx, albumID, photographerID)
}

// RegisterPhoto records a photo whose files already sit in the blob store.
// The watermarking pipeline that produces those files lives outside this
// service.
func (s *CatalogService) RegisterPhoto(ctx context.Context, photographerID, albumID uuid.UUID, originalPath, watermarkedPath, originalName string, studentCode *string) (*domain.Photo, error) {
	album, err := s.catalog.GetAlbumByID(ctx, albumID)
	if errors.Is(err, repository.ErrAlbumNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("load album: %w", err)
	}
	if album.PhotographerID != photographerID {
		return nil, repository.ErrAlbumNotFound
	}

	photo := &domain.Photo{
		ID:              uuid.New(),
		AlbumID:         albumID,
		OriginalPath:    originalPath,
		WatermarkedPath: watermarkedPath,
		OriginalName:    originalName,
		StudentCode:     studentCode,
		Price:           album.PricePerPhoto,
	}
	if e2 := s.catalog.CreatePhoto(ctx, photo); e2 != nil {
		return nil, fmt.Errorf("create photo: %w", e2)
	}
	return photo, nil
}

func (s *CatalogService) DeletePhoto(ctx context.Context, photoID, photographerID uuid.UUID) error {
	return s.catalog.DeletePhoto(ctx, photoID, photographerID)
}

// AlbumGallery lists an album's photos with public watermarked URLs.
func (s *CatalogService) AlbumGallery(ctx context.Context, albumID uuid.UUID) ([]GalleryPhoto, error) {
	photos, err := s.catalog.ListAlbumPhotos(ctx, albumID)
	if err != nil {
		return nil, fmt.Errorf("list album photos: %w", err)
	}

	gallery := make([]GalleryPhoto, 0, len(photos))
	for _, photo := range photos {
		gallery = append(gallery, GalleryPhoto{
			ID:             photo.ID,
			StudentCode:    photo.StudentCode,
			Price:          photo.Price,
			WatermarkedURL: s.store.PublicURL(photo.WatermarkedPath),
		})
	}
	return gallery, nil
}
