package validation

import (
	"context"
	"runtime"

	"github.com/slideshow/server/internal/models"
	"github.com/slideshow/server/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// URLProber checks that a URL resolves to a supported image
type URLProber interface {
	Validate(ctx context.Context, url string) bool
}

// Aggregator runs all checks of a slideshow request concurrently and merges
// their errors in request order
type Aggregator struct {
	integrity     *IntegrityChecker
	content       URLProber
	existence     *ExistenceChecker
	maxConcurrent int
	metrics       *observability.SlideshowMetrics
}

// NewAggregator creates an Aggregator.
// maxConcurrent bounds the number of checks in flight; zero or less uses GOMAXPROCS*4.
func NewAggregator(content URLProber, existence *ExistenceChecker, maxConcurrent int, metrics *observability.SlideshowMetrics) *Aggregator {
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0) * 4
	}
	return &Aggregator{
		integrity:     NewIntegrityChecker(),
		content:       content,
		existence:     existence,
		maxConcurrent: maxConcurrent,
		metrics:       metrics,
	}
}

// ValidateBatch validates every image of req and returns all errors found.
//
// Errors are ordered by request: existence errors first, then for each image
// its URL or content type error followed by its duration error. Any fault
// while validating, including cancellation of ctx, yields exactly one
// INTERNAL_VALIDATION_ERROR and no partial results.
func (a *Aggregator) ValidateBatch(ctx context.Context, req *models.SlideshowRequest) []ValidationError {
	if req == nil || len(req.Images) == 0 {
		return []ValidationError{EmptyList()}
	}

	ctx, span := observability.StartServiceSpan(ctx, "Aggregator", "ValidateBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("validation.batch_size", len(req.Images)))

	errs, err := a.validateBatch(ctx, req.Images)
	if err != nil {
		observability.WithContext(ctx).Errorf("Error validating images: %v", err)
		observability.RecordError(span, err)
		errs = []ValidationError{InternalValidationError(err)}
	} else {
		observability.SetSuccess(span)
	}

	span.SetAttributes(attribute.Int("validation.error_count", len(errs)))
	for _, e := range errs {
		a.metrics.RecordValidationError(ctx, string(e.Code))
	}
	return errs
}

func (a *Aggregator) validateBatch(ctx context.Context, images []*models.ImageDescriptor) ([]ValidationError, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrent)

	var existenceErrs []ValidationError
	perImage := make([][]ValidationError, len(images))

	ids := IDsOf(images)
	g.Go(recovered(func() error {
		errs, err := a.existence.Check(gctx, ids)
		if err != nil {
			return err
		}
		existenceErrs = errs
		return nil
	}))

	for i, img := range images {
		g.Go(recovered(func() error {
			perImage[i] = a.validateImage(gctx, img)
			return nil
		}))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Probes fail closed on cancellation, so their results are meaningless here.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := make([]ValidationError, 0, len(existenceErrs)+len(images))
	merged = append(merged, existenceErrs...)
	for _, errs := range perImage {
		merged = append(merged, errs...)
	}
	return merged, nil
}

// validateImage runs the integrity check and, when the URL passed it, the content probe
func (a *Aggregator) validateImage(ctx context.Context, img *models.ImageDescriptor) []ValidationError {
	errs := a.integrity.Check(img)
	if img == nil || img.ID != nil || hasURLError(errs) {
		return errs
	}

	if a.content.Validate(ctx, *img.URL) {
		return errs
	}
	return append([]ValidationError{InvalidType(*img.URL, img.Hash())}, errs...)
}

// ValidateImage checks a single image creation request.
// The first failing check wins, in the order URL, content type, duration.
func (a *Aggregator) ValidateImage(ctx context.Context, req *models.ImageRequest) *ValidationError {
	if req == nil {
		e := InvalidImage()
		return &e
	}
	if e := a.integrity.URLError(req.URL); e != nil {
		return e
	}
	if !a.content.Validate(ctx, *req.URL) {
		e := InvalidTypeForURL(*req.URL)
		return &e
	}
	return a.integrity.DurationError(req.Duration)
}

// FilterValid returns the images that no error is correlated with, in order.
// Nil entries are dropped.
func FilterValid(images []*models.ImageDescriptor, errs []ValidationError) []*models.ImageDescriptor {
	valid := make([]*models.ImageDescriptor, 0, len(images))
	for _, img := range images {
		if img == nil {
			continue
		}
		if !matchesAny(img, errs) {
			valid = append(valid, img)
		}
	}
	return valid
}

// HasInternalError reports whether validation itself failed
func HasInternalError(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Code == CodeInternalValidationError {
			return true
		}
	}
	return false
}

func matchesAny(img *models.ImageDescriptor, errs []ValidationError) bool {
	for _, e := range errs {
		if e.Correlation.Matches(img) {
			return true
		}
	}
	return false
}

func hasURLError(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Code == CodeInvalidURL || e.Code == CodeInvalidURLLength {
			return true
		}
	}
	return false
}

// recovered turns a panic in fn into a returned error
func recovered(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r}
			}
		}()
		return fn()
	}
}
