package validation

import (
	"context"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/slideshow/server/internal/observability"
)

// supportedContentTypes lists the media types a slideshow can display
var supportedContentTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
	"image/tiff":    true,
	"image/bmp":     true,
	"image/x-icon":  true,
	"image/avif":    true,
	"image/heic":    true,
	"image/heif":    true,
	"image/jp2":     true,
}

// IsSupportedContentType reports whether a Content-Type header value names a
// supported image type. Parameters are ignored and the comparison is case-insensitive.
func IsSupportedContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return supportedContentTypes[strings.ToLower(mediaType)]
}

// ContentValidator probes image URLs with a HEAD request and checks the
// returned content type
type ContentValidator struct {
	client  *http.Client
	timeout time.Duration
	metrics *observability.SlideshowMetrics
}

// NewContentValidator creates a ContentValidator.
// A nil client uses http.DefaultClient; timeout bounds each probe.
func NewContentValidator(client *http.Client, timeout time.Duration, metrics *observability.SlideshowMetrics) *ContentValidator {
	if client == nil {
		client = http.DefaultClient
	}
	return &ContentValidator{
		client:  client,
		timeout: timeout,
		metrics: metrics,
	}
}

// Validate reports whether url resolves to a supported image type.
// Any failure, including a timeout, counts as not supported.
func (v *ContentValidator) Validate(ctx context.Context, url string) bool {
	ok := v.probe(ctx, url)
	v.metrics.RecordProbe(ctx, ok)
	return ok
}

func (v *ContentValidator) probe(ctx context.Context, url string) bool {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		observability.WithField("url", url).Debugf("Content probe request invalid: %v", err)
		return false
	}

	resp, err := v.client.Do(req)
	if err != nil {
		observability.WithField("url", url).Debugf("Content probe failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		observability.WithField("url", url).Debug("Content probe returned no content type")
		return false
	}

	return IsSupportedContentType(contentType)
}
