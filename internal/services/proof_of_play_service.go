package services

import (
	"context"
	"fmt"

	"github.com/slideshow/server/internal/models"
	"github.com/slideshow/server/internal/observability"
	"github.com/slideshow/server/internal/repository"
)

// ProofOfPlayService records which image a display showed and for how long
type ProofOfPlayService struct {
	store    repository.Store
	notifier Notifier
	metrics  *observability.SlideshowMetrics
}

// NewProofOfPlayService creates a new ProofOfPlayService
func NewProofOfPlayService(store repository.Store, notifier Notifier, metrics *observability.SlideshowMetrics) *ProofOfPlayService {
	return &ProofOfPlayService{
		store:    store,
		notifier: notifier,
		metrics:  metrics,
	}
}

// Record appends a proof-of-play event. Displays must not stall on
// telemetry, so failures are logged and dropped. A nil request records nothing.
func (s *ProofOfPlayService) Record(ctx context.Context, slideshowID, imageID int64, req *models.ProofOfPlayRequest) {
	if req == nil {
		observability.WithContext(ctx).WithFields(map[string]interface{}{
			"slideshow_id": slideshowID,
			"image_id":     imageID,
		}).Debug("Skipping proof of play without a body")
		return
	}

	event := models.NewProofOfPlayEvent(slideshowID, imageID, req)
	if err := s.store.ProofOfPlay().Add(ctx, event); err != nil {
		s.metrics.RecordProofOfPlay(ctx, false)
		observability.WithContext(ctx).WithError(err).WithFields(map[string]interface{}{
			"slideshow_id": slideshowID,
			"image_id":     imageID,
		}).Warn("Failed to record proof of play")
		return
	}

	s.metrics.RecordProofOfPlay(ctx, true)
	notify(s.notifier, slideshowID, WSTypeProofOfPlayRecorded, ProofOfPlayPayload{
		SlideshowID: slideshowID,
		ImageID:     imageID,
	})
}

// List returns the events recorded for a slideshow, oldest first
func (s *ProofOfPlayService) List(ctx context.Context, slideshowID int64) ([]*models.ProofOfPlayEvent, error) {
	events, err := s.store.ProofOfPlay().ListBySlideshow(ctx, slideshowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list proof of play events: %w", err)
	}
	return events, nil
}
