package services

import (
	"context"
	"fmt"

	"github.com/slideshow/server/internal/observability"
	"github.com/slideshow/server/internal/repository"
)

// Scrub sources reported to metrics
const (
	ScrubSourceDelete    = "delete"
	ScrubSourceReconcile = "reconcile"
)

// ReferenceService keeps slideshow membership consistent with the images table.
// Slideshows hold image ids without a foreign key, so deleting an image has to
// remove its id from every slideshow.
type ReferenceService struct {
	store    repository.Store
	notifier Notifier
	metrics  *observability.SlideshowMetrics
}

// NewReferenceService creates a new ReferenceService
func NewReferenceService(store repository.Store, notifier Notifier, metrics *observability.SlideshowMetrics) *ReferenceService {
	return &ReferenceService{
		store:    store,
		notifier: notifier,
		metrics:  metrics,
	}
}

// RemoveImageReferences deletes the image, then removes every occurrence of
// its id from every slideshow and returns how many slideshows changed.
// The two steps are independent statements. A failure of the second step is
// logged and reported as zero slideshows updated; the reconciler picks up
// what is left behind.
func (s *ReferenceService) RemoveImageReferences(ctx context.Context, imageID int64) (int64, error) {
	ctx, span := observability.StartServiceSpan(ctx, "ReferenceService", "RemoveImageReferences")
	defer span.End()
	span.SetAttributes(observability.ImageID(imageID))

	deleted, err := s.store.Images().Delete(ctx, imageID)
	if err != nil {
		observability.RecordError(span, err)
		return 0, fmt.Errorf("failed to delete image: %w", err)
	}
	if !deleted {
		observability.WithContext(ctx).WithField("image_id", imageID).Debug("Image already gone, scrubbing references")
	}

	touched, err := s.ScrubReferences(ctx, imageID, ScrubSourceDelete)
	if err != nil {
		observability.WithContext(ctx).WithError(err).
			WithField("image_id", imageID).
			Warn("Failed to remove image from slideshows")
		return 0, nil
	}

	observability.SetSuccess(span)
	return int64(len(touched)), nil
}

// ScrubReferences removes imageID from every slideshow in one statement and
// notifies the displays of each changed slideshow
func (s *ReferenceService) ScrubReferences(ctx context.Context, imageID int64, source string) ([]int64, error) {
	touched, err := s.store.Slideshows().RemoveImageID(ctx, imageID)
	if err != nil {
		s.metrics.RecordReferencesScrubbed(ctx, source, 0, false)
		return nil, err
	}

	s.metrics.RecordReferencesScrubbed(ctx, source, int64(len(touched)), true)
	for _, id := range touched {
		removed := imageID
		notify(s.notifier, id, WSTypeSlideshowUpdated, SlideshowEventPayload{
			SlideshowID:    id,
			RemovedImageID: &removed,
		})
	}
	return touched, nil
}
