package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/slideshow/server/internal/models"
	"github.com/slideshow/server/internal/observability"
	"github.com/slideshow/server/internal/repository"
	"github.com/slideshow/server/internal/services"
	"github.com/slideshow/server/internal/validation"
)

// ImageHandler handles image API endpoints
type ImageHandler struct {
	aggregator *validation.Aggregator
	images     *services.ImageService
	references *services.ReferenceService
}

// NewImageHandler creates a new ImageHandler
func NewImageHandler(
	aggregator *validation.Aggregator,
	images *services.ImageService,
	references *services.ReferenceService,
) *ImageHandler {
	return &ImageHandler{
		aggregator: aggregator,
		images:     images,
		references: references,
	}
}

// CreateImage validates and stores a single image
func (h *ImageHandler) CreateImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req *models.ImageRequest
	if _, err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if verr := h.aggregator.ValidateImage(ctx, req); verr != nil {
		resp := verr.ToResponse()
		writeJSON(w, http.StatusBadRequest, models.ImageCreationResponse{ValidationError: &resp})
		return
	}

	image, err := h.images.CreateImage(ctx, req)
	if err != nil {
		observability.WithContext(ctx).WithError(err).Error("Failed to create image")
		writeError(w, http.StatusInternalServerError, "Failed to create image")
		return
	}

	resp := models.ImageToResponse(image)
	writeJSON(w, http.StatusCreated, models.ImageCreationResponse{Image: &resp})
}

// GetImage returns one image
func (h *ImageHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid image ID")
		return
	}

	image, err := h.images.GetImage(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrImageNotFound) {
			writeError(w, http.StatusNotFound, "Image not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get image")
		return
	}

	writeJSON(w, http.StatusOK, models.ImageToResponse(image))
}

// SearchImages finds images by keyword in the URL and by duration.
// Both filters must match when both are given.
func (h *ImageHandler) SearchImages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filter repository.ImageFilter

	if keyword := strings.TrimSpace(query.Get("keyword")); keyword != "" {
		filter.Keyword = &keyword
	}

	if raw := query.Get("duration"); raw != "" {
		d, err := strconv.ParseInt(raw, 10, 16)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid duration")
			return
		}
		duration := int16(d)
		filter.Duration = &duration
	}

	dir, err := models.ParseSortDirection(query.Get("direction"), models.SortDesc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter.Direction = dir

	images, err := h.images.Search(r.Context(), filter)
	if err != nil {
		observability.WithContext(r.Context()).WithError(err).Error("Failed to search images")
		writeError(w, http.StatusInternalServerError, "Failed to search images")
		return
	}
	if len(images) == 0 {
		writeError(w, http.StatusNotFound, "No images found")
		return
	}

	writeJSON(w, http.StatusOK, models.ImageSearchResponse{
		Images:     models.ImagesToResponse(images),
		TotalCount: len(images),
	})
}

// DeleteImage deletes an image and removes it from every slideshow
func (h *ImageHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid image ID")
		return
	}

	updated, err := h.references.RemoveImageReferences(r.Context(), id)
	if err != nil {
		observability.WithContext(r.Context()).WithError(err).Error("Failed to delete image")
		writeError(w, http.StatusInternalServerError, "Failed to delete image")
		return
	}

	writeJSON(w, http.StatusOK, models.ImageDeletionResponse{
		ImageID:           id,
		SlideshowsUpdated: updated,
	})
}
