package domain

import (
	"time"

	"github.com/google/uuid"
)

type Album struct {
	ID             uuid.UUID
	PhotographerID uuid.UUID
	Name           string
	PricePerPhoto  float64
	CreatedAt      time.Time
}

type Photo struct {
	ID              uuid.UUID
	AlbumID         uuid.UUID
	OriginalPath    string
	WatermarkedPath string
	OriginalName    string
	StudentCode     *string
	Price           float64
	CreatedAt       time.Time
}
