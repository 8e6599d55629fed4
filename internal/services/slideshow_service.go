package services

import (
	"context"
	"fmt"

	"github.com/slideshow/server/internal/models"
	"github.com/slideshow/server/internal/observability"
	"github.com/slideshow/server/internal/repository"
)

// SlideshowService composes slideshows out of new and reused images
type SlideshowService struct {
	store       repository.Store
	memberOrder models.MemberOrder
	notifier    Notifier
	metrics     *observability.SlideshowMetrics
}

// NewSlideshowService creates a new SlideshowService
func NewSlideshowService(
	store repository.Store,
	memberOrder models.MemberOrder,
	notifier Notifier,
	metrics *observability.SlideshowMetrics,
) *SlideshowService {
	if memberOrder == "" {
		memberOrder = models.MemberOrderNewFirst
	}
	return &SlideshowService{
		store:       store,
		memberOrder: memberOrder,
		notifier:    notifier,
		metrics:     metrics,
	}
}

// CreateSlideshow persists the images without an id, then a slideshow
// referencing the new and the reused images, and returns the stored
// slideshow with its members ordered by add time. Everything runs in one
// new transaction; on error nothing is written.
func (s *SlideshowService) CreateSlideshow(ctx context.Context, images []*models.ImageDescriptor) (*models.SlideshowView, error) {
	if len(images) == 0 {
		return nil, models.ErrNoValidImages
	}

	ctx, span := observability.StartServiceSpan(ctx, "SlideshowService", "CreateSlideshow")
	defer span.End()

	var (
		view     *models.SlideshowView
		newCount int
		reused   int
	)
	err := s.store.InNewTx(ctx, func(tx repository.Store) error {
		newCount, reused = 0, 0
		ids := make([]int64, 0, len(images))
		var newIDs, existingIDs []int64

		for _, img := range images {
			if img == nil {
				continue
			}
			if img.HasID() {
				reused++
				existingIDs = append(existingIDs, *img.ID)
				ids = append(ids, *img.ID)
				continue
			}

			if img.URL == nil || img.Duration == nil {
				return models.ErrNoValidImages
			}
			image, err := models.NewImage(*img.URL, *img.Duration)
			if err != nil {
				return err
			}
			if err := tx.Images().Add(ctx, image); err != nil {
				return fmt.Errorf("failed to add image: %w", err)
			}
			newCount++
			newIDs = append(newIDs, image.ID)
			ids = append(ids, image.ID)
		}

		if s.memberOrder == models.MemberOrderNewFirst {
			ids = append(newIDs, existingIDs...)
		}
		if len(ids) == 0 {
			return models.ErrNoValidImages
		}

		slideshow := models.NewSlideshow(ids)
		if err := tx.Slideshows().Add(ctx, slideshow); err != nil {
			return fmt.Errorf("failed to add slideshow: %w", err)
		}

		v, err := tx.Slideshows().FindWithMembers(ctx, slideshow.ID, models.SortAsc)
		if err != nil {
			return fmt.Errorf("failed to read slideshow: %w", err)
		}
		if v == nil {
			return models.ErrSlideshowNotFound
		}
		view = v
		return nil
	})
	if err != nil {
		observability.RecordError(span, err)
		observability.WithContext(ctx).WithError(err).Error("Slideshow creation rolled back")
		return nil, err
	}

	span.SetAttributes(observability.SlideshowID(view.SlideshowID))
	observability.SetSuccess(span)
	s.metrics.RecordSlideshowCreated(ctx, newCount, reused)
	if newCount > 0 {
		s.metrics.RecordImagesCreated(ctx, newCount)
	}
	notify(s.notifier, view.SlideshowID, WSTypeSlideshowCreated, SlideshowEventPayload{SlideshowID: view.SlideshowID})

	observability.WithContext(ctx).WithFields(map[string]interface{}{
		"slideshow_id":  view.SlideshowID,
		"new_images":    newCount,
		"reused_images": reused,
	}).Info("Slideshow created")
	return view, nil
}

// GetSlideshow returns a slideshow with its member images ordered by add time
func (s *SlideshowService) GetSlideshow(ctx context.Context, id int64, dir models.SortDirection) (*models.SlideshowView, error) {
	view, err := s.store.Slideshows().FindWithMembers(ctx, id, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get slideshow: %w", err)
	}
	if view == nil {
		return nil, models.ErrSlideshowNotFound
	}
	return view, nil
}

// DeleteSlideshow removes a slideshow. Its images are left in place.
func (s *SlideshowService) DeleteSlideshow(ctx context.Context, id int64) error {
	deleted, err := s.store.Slideshows().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete slideshow: %w", err)
	}
	if !deleted {
		return models.ErrSlideshowNotFound
	}
	notify(s.notifier, id, WSTypeSlideshowDeleted, SlideshowEventPayload{SlideshowID: id})
	return nil
}
