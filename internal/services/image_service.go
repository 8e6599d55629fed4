package services

import (
	"context"
	"fmt"

	"github.com/slideshow/server/internal/models"
	"github.com/slideshow/server/internal/observability"
	"github.com/slideshow/server/internal/repository"
)

// ImageService creates and searches standalone images
type ImageService struct {
	store   repository.Store
	metrics *observability.SlideshowMetrics
}

// NewImageService creates a new ImageService
func NewImageService(store repository.Store, metrics *observability.SlideshowMetrics) *ImageService {
	return &ImageService{store: store, metrics: metrics}
}

// CreateImage persists an already validated image request
func (s *ImageService) CreateImage(ctx context.Context, req *models.ImageRequest) (*models.Image, error) {
	if req == nil || req.URL == nil || req.Duration == nil {
		return nil, models.ErrEmptyURL
	}

	image, err := models.NewImage(*req.URL, *req.Duration)
	if err != nil {
		return nil, err
	}
	if err := s.store.Images().Add(ctx, image); err != nil {
		return nil, fmt.Errorf("failed to add image: %w", err)
	}

	s.metrics.RecordImagesCreated(ctx, 1)
	return image, nil
}

// Search returns images matching every given filter, ordered by add time
func (s *ImageService) Search(ctx context.Context, filter repository.ImageFilter) ([]*models.Image, error) {
	if filter.Direction == "" {
		filter.Direction = models.SortDesc
	}
	images, err := s.store.Images().Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search images: %w", err)
	}
	return images, nil
}

// GetImage returns one image
func (s *ImageService) GetImage(ctx context.Context, id int64) (*models.Image, error) {
	image, err := s.store.Images().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	if image == nil {
		return nil, models.ErrImageNotFound
	}
	return image, nil
}
