package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SlideshowMetrics holds the business metrics of the slideshow service.
// All methods are safe to call on a nil receiver.
type SlideshowMetrics struct {
	validationErrors   metric.Int64Counter
	contentProbes      metric.Int64Counter
	slideshowsCreated  metric.Int64Counter
	imagesCreated      metric.Int64Counter
	referencesScrubbed metric.Int64Counter
	proofOfPlayEvents  metric.Int64Counter
}

// NewSlideshowMetrics creates business metrics instruments
func NewSlideshowMetrics() (*SlideshowMetrics, error) {
	meter := otel.Meter(instrumentationName)

	validationErrors, err := meter.Int64Counter(
		"slideshow.validation.errors",
		metric.WithDescription("Validation errors reported, by code"),
		metric.WithUnit("{errors}"),
	)
	if err != nil {
		return nil, err
	}

	contentProbes, err := meter.Int64Counter(
		"slideshow.validation.probes",
		metric.WithDescription("Remote content type probes, by outcome"),
		metric.WithUnit("{probes}"),
	)
	if err != nil {
		return nil, err
	}

	slideshowsCreated, err := meter.Int64Counter(
		"slideshow.slideshows.created",
		metric.WithDescription("Total number of slideshows created"),
		metric.WithUnit("{slideshows}"),
	)
	if err != nil {
		return nil, err
	}

	imagesCreated, err := meter.Int64Counter(
		"slideshow.images.created",
		metric.WithDescription("Total number of images created"),
		metric.WithUnit("{images}"),
	)
	if err != nil {
		return nil, err
	}

	referencesScrubbed, err := meter.Int64Counter(
		"slideshow.references.scrubbed",
		metric.WithDescription("Slideshows updated after an image was removed"),
		metric.WithUnit("{slideshows}"),
	)
	if err != nil {
		return nil, err
	}

	proofOfPlayEvents, err := meter.Int64Counter(
		"slideshow.proof_of_play.events",
		metric.WithDescription("Proof-of-play events recorded"),
		metric.WithUnit("{events}"),
	)
	if err != nil {
		return nil, err
	}

	return &SlideshowMetrics{
		validationErrors:   validationErrors,
		contentProbes:      contentProbes,
		slideshowsCreated:  slideshowsCreated,
		imagesCreated:      imagesCreated,
		referencesScrubbed: referencesScrubbed,
		proofOfPlayEvents:  proofOfPlayEvents,
	}, nil
}

// RecordValidationError records one validation error
func (m *SlideshowMetrics) RecordValidationError(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.validationErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

// RecordProbe records the outcome of a content type probe
func (m *SlideshowMetrics) RecordProbe(ctx context.Context, valid bool) {
	if m == nil {
		return
	}
	m.contentProbes.Add(ctx, 1, metric.WithAttributes(attribute.Bool("valid", valid)))
}

// RecordSlideshowCreated records a new slideshow and the images created with it
func (m *SlideshowMetrics) RecordSlideshowCreated(ctx context.Context, newImages, reusedImages int) {
	if m == nil {
		return
	}
	m.slideshowsCreated.Add(ctx, 1, metric.WithAttributes(attribute.Int("reused_images", reusedImages)))
	m.RecordImagesCreated(ctx, newImages)
}

// RecordImagesCreated records persisted images
func (m *SlideshowMetrics) RecordImagesCreated(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.imagesCreated.Add(ctx, int64(count))
}

// RecordReferencesScrubbed records slideshows updated after image removal
func (m *SlideshowMetrics) RecordReferencesScrubbed(ctx context.Context, source string, count int64, success bool) {
	if m == nil {
		return
	}
	m.referencesScrubbed.Add(ctx, count, metric.WithAttributes(
		attribute.String("source", source),
		attribute.Bool("success", success),
	))
}

// RecordProofOfPlay records a proof-of-play event
func (m *SlideshowMetrics) RecordProofOfPlay(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.proofOfPlayEvents.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}
