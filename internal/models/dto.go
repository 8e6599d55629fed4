package models

import "time"

// ImageResponse is a single image in API responses
type ImageResponse struct {
	ID       int64     `json:"id"`
	URL      string    `json:"url"`
	Duration int16     `json:"duration"`
	AddedAt  time.Time `json:"addedAt"`
}

// ValidationErrorResponse is one validation error in API responses
type ValidationErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// SlideshowResponse is returned when creating or reading a slideshow.
// ID and Images are null when no slideshow was created.
type SlideshowResponse struct {
	ID               *int64                    `json:"id"`
	Images           []ImageResponse           `json:"images"`
	ValidationErrors []ValidationErrorResponse `json:"validationErrors"`
}

// ImageCreationResponse is returned when creating a single image
type ImageCreationResponse struct {
	Image           *ImageResponse           `json:"image"`
	ValidationError *ValidationErrorResponse `json:"validationError,omitempty"`
}

// ImageDeletionResponse is returned after an image was deleted
type ImageDeletionResponse struct {
	ImageID           int64 `json:"imageId"`
	SlideshowsUpdated int64 `json:"slideshowsUpdated"`
}

// ImageSearchResponse is returned when searching images
type ImageSearchResponse struct {
	Images     []ImageResponse `json:"images"`
	TotalCount int             `json:"totalCount"`
}

// HealthResponse is returned by health check
type HealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}

// ImageToResponse converts an Image to ImageResponse
func ImageToResponse(img *Image) ImageResponse {
	return ImageResponse{
		ID:       img.ID,
		URL:      img.URL,
		Duration: img.Duration,
		AddedAt:  img.AddedAt,
	}
}

// ImagesToResponse converts a list of images, never returning nil
func ImagesToResponse(images []*Image) []ImageResponse {
	out := make([]ImageResponse, 0, len(images))
	for _, img := range images {
		out = append(out, ImageToResponse(img))
	}
	return out
}

// SlideshowViewToResponse converts a SlideshowView to SlideshowResponse
func SlideshowViewToResponse(v *SlideshowView) SlideshowResponse {
	id := v.SlideshowID
	return SlideshowResponse{
		ID:               &id,
		Images:           ImagesToResponse(v.Images),
		ValidationErrors: []ValidationErrorResponse{},
	}
}
