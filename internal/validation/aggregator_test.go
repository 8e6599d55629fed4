package validation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/slideshow/server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImage(url string, duration int16) *models.ImageDescriptor {
	return &models.ImageDescriptor{URL: stringPtr(url), Duration: int16Ptr(duration)}
}

func existingImage(id int64) *models.ImageDescriptor {
	return &models.ImageDescriptor{ID: int64Ptr(id)}
}

func codes(errs []ValidationError) []Code {
	out := make([]Code, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestAggregator_ValidateBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("nil or empty request yields one EMPTY_LIST", func(t *testing.T) {
		prober := &fakeProber{}
		lookup := &fakeLookup{}
		a := NewAggregator(prober, NewExistenceChecker(lookup), 4, nil)

		for _, req := range []*models.SlideshowRequest{nil, {}, {Images: []*models.ImageDescriptor{}}} {
			errs := a.ValidateBatch(ctx, req)
			require.Len(t, errs, 1)
			assert.Equal(t, CodeEmptyList, errs[0].Code)
			assert.Equal(t, "Images list cannot be empty", errs[0].Message)
		}
		assert.Zero(t, prober.callCount())
		assert.Equal(t, int32(0), lookup.calls.Load())
	})

	t.Run("valid batch has no errors", func(t *testing.T) {
		prober := &fakeProber{}
		a := NewAggregator(prober, NewExistenceChecker(&fakeLookup{existing: map[int64]bool{7: true}}), 4, nil)

		errs := a.ValidateBatch(ctx, &models.SlideshowRequest{Images: []*models.ImageDescriptor{
			newImage("https://x/a.png", 5),
			existingImage(7),
		}})

		assert.Empty(t, errs)
		assert.Equal(t, 1, prober.callCount(), "only new images are probed")
	})

	t.Run("images with id are never probed", func(t *testing.T) {
		prober := &fakeProber{}
		a := NewAggregator(prober, NewExistenceChecker(&fakeLookup{}), 4, nil)

		errs := a.ValidateBatch(ctx, &models.SlideshowRequest{Images: []*models.ImageDescriptor{
			{ID: int64Ptr(9), URL: stringPtr(""), Duration: int16Ptr(0)},
		}})

		assert.Equal(t, []Code{CodeImageNotFound}, codes(errs))
		assert.Zero(t, prober.callCount())
	})

	t.Run("errors merge in request order regardless of completion order", func(t *testing.T) {
		prober := &fakeProber{
			invalid: map[string]bool{"https://x/slow.txt": true, "https://x/fast.txt": true},
			delays:  map[string]time.Duration{"https://x/slow.txt": 50 * time.Millisecond},
		}
		a := NewAggregator(prober, NewExistenceChecker(&fakeLookup{}), 8, nil)

		slow := newImage("https://x/slow.txt", 0)
		fast := newImage("https://x/fast.txt", 5)
		errs := a.ValidateBatch(ctx, &models.SlideshowRequest{Images: []*models.ImageDescriptor{
			slow,
			existingImage(4),
			fast,
			newImage("", 301),
		}})

		assert.Equal(t, []Code{
			CodeImageNotFound,
			CodeInvalidType, CodeInvalidDuration,
			CodeInvalidType,
			CodeInvalidURL, CodeInvalidDuration,
		}, codes(errs))
		assert.True(t, errs[1].Correlation.Matches(slow))
		assert.True(t, errs[3].Correlation.Matches(fast))
		assert.Equal(t, "https://x/fast.txt", errs[3].Context[KeyInvalidValue])
	})

	t.Run("url failing integrity is not probed", func(t *testing.T) {
		prober := &fakeProber{}
		a := NewAggregator(prober, NewExistenceChecker(&fakeLookup{}), 4, nil)

		a.ValidateBatch(ctx, &models.SlideshowRequest{Images: []*models.ImageDescriptor{newImage(" ", 5)}})

		assert.Zero(t, prober.callCount())
	})

	t.Run("nil entry yields INVALID_IMAGE", func(t *testing.T) {
		a := NewAggregator(&fakeProber{}, NewExistenceChecker(&fakeLookup{}), 4, nil)

		errs := a.ValidateBatch(ctx, &models.SlideshowRequest{Images: []*models.ImageDescriptor{nil}})

		assert.Equal(t, []Code{CodeInvalidImage}, codes(errs))
	})

	t.Run("storage failure becomes one internal error", func(t *testing.T) {
		a := NewAggregator(&fakeProber{}, NewExistenceChecker(&fakeLookup{err: storageError{}}), 4, nil)

		errs := a.ValidateBatch(ctx, &models.SlideshowRequest{Images: []*models.ImageDescriptor{
			existingImage(1),
			newImage("", 0),
		}})

		require.Len(t, errs, 1)
		assert.Equal(t, CodeInternalValidationError, errs[0].Code)
		assert.Equal(t, "storageError", errs[0].Context[KeyException])
		assert.Contains(t, errs[0].Message, "Unexpected error: ")
		assert.Contains(t, errs[0].Message, "connection refused")
		assert.True(t, HasInternalError(errs))
	})

	t.Run("panicking prober becomes one internal error", func(t *testing.T) {
		prober := &fakeProber{panicOn: "https://x/boom.png"}
		a := NewAggregator(prober, NewExistenceChecker(&fakeLookup{}), 4, nil)

		var errs []ValidationError
		require.NotPanics(t, func() {
			errs = a.ValidateBatch(ctx, &models.SlideshowRequest{Images: []*models.ImageDescriptor{
				newImage("https://x/ok.png", 5),
				newImage("https://x/boom.png", 5),
			}})
		})

		require.Len(t, errs, 1)
		assert.Equal(t, CodeInternalValidationError, errs[0].Code)
		assert.Equal(t, "PanicError", errs[0].Context[KeyException])
	})

	t.Run("cancelled request yields no partial results", func(t *testing.T) {
		prober := &fakeProber{delays: map[string]time.Duration{"https://x/hang.png": 5 * time.Second}}
		a := NewAggregator(prober, NewExistenceChecker(&fakeLookup{}), 4, nil)

		cctx, cancel := context.WithCancel(ctx)
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		start := time.Now()
		errs := a.ValidateBatch(cctx, &models.SlideshowRequest{Images: []*models.ImageDescriptor{
			newImage("https://x/hang.png", 5),
			newImage("", 5),
		}})

		assert.Less(t, time.Since(start), 2*time.Second)
		require.Len(t, errs, 1)
		assert.Equal(t, CodeInternalValidationError, errs[0].Code)
		assert.Equal(t, "ContextCanceled", errs[0].Context[KeyException])
	})

	t.Run("concurrency is bounded", func(t *testing.T) {
		delays := map[string]time.Duration{}
		images := make([]*models.ImageDescriptor, 0, 6)
		for i := 0; i < 6; i++ {
			url := fmt.Sprintf("https://x/%d.png", i)
			delays[url] = 30 * time.Millisecond
			images = append(images, newImage(url, 5))
		}
		prober := &fakeProber{delays: delays}
		a := NewAggregator(prober, NewExistenceChecker(&fakeLookup{}), 2, nil)

		errs := a.ValidateBatch(ctx, &models.SlideshowRequest{Images: images})

		assert.Empty(t, errs)
		assert.Equal(t, 6, prober.callCount())
	})
}

func TestAggregator_ValidateImage(t *testing.T) {
	ctx := context.Background()
	prober := &fakeProber{invalid: map[string]bool{"https://x/page.html": true}}
	a := NewAggregator(prober, NewExistenceChecker(&fakeLookup{}), 4, nil)

	t.Run("valid", func(t *testing.T) {
		assert.Nil(t, a.ValidateImage(ctx, &models.ImageRequest{URL: stringPtr("https://x/a.png"), Duration: int16Ptr(5)}))
	})

	t.Run("url error wins over duration", func(t *testing.T) {
		e := a.ValidateImage(ctx, &models.ImageRequest{Duration: int16Ptr(0)})
		require.NotNil(t, e)
		assert.Equal(t, CodeInvalidURL, e.Code)
	})

	t.Run("content type error wins over duration", func(t *testing.T) {
		e := a.ValidateImage(ctx, &models.ImageRequest{URL: stringPtr("https://x/page.html"), Duration: int16Ptr(0)})
		require.NotNil(t, e)
		assert.Equal(t, CodeInvalidType, e.Code)
		assert.Equal(t, CorrelationURL, e.Correlation.Kind())
		assert.Equal(t, "https://x/page.html", e.Context[KeyInvalidValue])
	})

	t.Run("duration error", func(t *testing.T) {
		e := a.ValidateImage(ctx, &models.ImageRequest{URL: stringPtr("https://x/a.png"), Duration: int16Ptr(301)})
		require.NotNil(t, e)
		assert.Equal(t, CodeInvalidDuration, e.Code)
	})

	t.Run("nil request", func(t *testing.T) {
		e := a.ValidateImage(ctx, nil)
		require.NotNil(t, e)
		assert.Equal(t, CodeInvalidImage, e.Code)
	})
}

func TestFilterValid(t *testing.T) {
	a := newImage("https://x/a.png", 5)
	b := newImage("https://x/b.png", 0)
	c := existingImage(3)
	d := existingImage(4)
	e := &models.ImageDescriptor{URL: stringPtr("https://x/e.txt"), Duration: int16Ptr(5)}
	images := []*models.ImageDescriptor{a, b, nil, c, d, e}

	t.Run("no errors keeps every image in order", func(t *testing.T) {
		assert.Equal(t, []*models.ImageDescriptor{a, b, c, d, e}, FilterValid(images, nil))
	})

	t.Run("drops images matched by hash, id or url", func(t *testing.T) {
		errs := []ValidationError{
			ImageNotFound(4),
			InvalidType("https://x/b.png", b.Hash()),
			InvalidTypeForURL("https://x/e.txt"),
		}

		assert.Equal(t, []*models.ImageDescriptor{a, c}, FilterValid(images, errs))
	})

	t.Run("uncorrelated errors drop nothing", func(t *testing.T) {
		assert.Len(t, FilterValid(images, []ValidationError{EmptyList()}), 5)
	})
}

func TestFaultName(t *testing.T) {
	assert.Equal(t, "storageError", FaultName(fmt.Errorf("wrap: %w", storageError{})))
	assert.Equal(t, "ContextCanceled", FaultName(context.Canceled))
	assert.Equal(t, "DeadlineExceeded", FaultName(fmt.Errorf("probe: %w", context.DeadlineExceeded)))
	assert.Equal(t, "PanicError", FaultName(&PanicError{Value: "boom"}))
}
