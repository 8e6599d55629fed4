package handlers

import (
	"errors"
	"net/http"

	"github.com/slideshow/server/internal/models"
	"github.com/slideshow/server/internal/observability"
	"github.com/slideshow/server/internal/services"
	"github.com/slideshow/server/internal/validation"
)

// SlideshowHandler handles slideshow API endpoints
type SlideshowHandler struct {
	aggregator  *validation.Aggregator
	slideshows  *services.SlideshowService
	proofOfPlay *services.ProofOfPlayService
}

// NewSlideshowHandler creates a new SlideshowHandler
func NewSlideshowHandler(
	aggregator *validation.Aggregator,
	slideshows *services.SlideshowService,
	proofOfPlay *services.ProofOfPlayService,
) *SlideshowHandler {
	return &SlideshowHandler{
		aggregator:  aggregator,
		slideshows:  slideshows,
		proofOfPlay: proofOfPlay,
	}
}

// CreateSlideshow validates the submitted images and builds a slideshow out of
// the valid ones. Validation errors for rejected images are returned alongside.
func (h *SlideshowHandler) CreateSlideshow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req *models.SlideshowRequest
	if _, err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	errs := h.aggregator.ValidateBatch(ctx, req)
	if validation.HasInternalError(errs) {
		writeJSON(w, http.StatusInternalServerError, models.SlideshowResponse{
			ValidationErrors: validation.ToResponses(errs),
		})
		return
	}

	var images []*models.ImageDescriptor
	if req != nil {
		images = req.Images
	}
	valid := validation.FilterValid(images, errs)
	if len(valid) == 0 {
		writeJSON(w, http.StatusBadRequest, models.SlideshowResponse{
			ValidationErrors: validation.ToResponses(errs),
		})
		return
	}

	view, err := h.slideshows.CreateSlideshow(ctx, valid)
	if err != nil {
		observability.WithContext(ctx).WithError(err).Error("Failed to create slideshow")
		writeJSON(w, http.StatusInternalServerError, models.SlideshowResponse{
			ValidationErrors: validation.ToResponses(append(errs, validation.InternalServerError())),
		})
		return
	}

	response := models.SlideshowViewToResponse(view)
	response.ValidationErrors = validation.ToResponses(errs)
	writeJSON(w, http.StatusOK, response)
}

// GetSlideshowOrder returns a slideshow's images, newest first unless
// ?direction=ASC is given
func (h *SlideshowHandler) GetSlideshowOrder(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid slideshow ID")
		return
	}

	dir, err := models.ParseSortDirection(r.URL.Query().Get("direction"), models.SortDesc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.slideshows.GetSlideshow(r.Context(), id, dir)
	if err != nil {
		if errors.Is(err, models.ErrSlideshowNotFound) {
			writeError(w, http.StatusNotFound, "Slideshow not found")
			return
		}
		observability.WithContext(r.Context()).WithError(err).Error("Failed to get slideshow")
		writeError(w, http.StatusInternalServerError, "Failed to get slideshow")
		return
	}

	writeJSON(w, http.StatusOK, models.SlideshowViewToResponse(view))
}

// DeleteSlideshow removes a slideshow; its images are kept
func (h *SlideshowHandler) DeleteSlideshow(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid slideshow ID")
		return
	}

	if err := h.slideshows.DeleteSlideshow(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrSlideshowNotFound) {
			writeError(w, http.StatusNotFound, "Slideshow not found")
			return
		}
		observability.WithContext(r.Context()).WithError(err).Error("Failed to delete slideshow")
		writeError(w, http.StatusInternalServerError, "Failed to delete slideshow")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecordProofOfPlay stores a display's report that an image was shown.
// It always answers 200 so displays never retry telemetry.
func (h *SlideshowHandler) RecordProofOfPlay(w http.ResponseWriter, r *http.Request) {
	slideshowID, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid slideshow ID")
		return
	}
	imageID, err := urlID(r, "imageId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid image ID")
		return
	}

	var req models.ProofOfPlayRequest
	hasBody, err := decodeBody(r, &req)
	if err != nil {
		observability.WithContext(r.Context()).WithError(err).Debug("Ignoring unreadable proof of play body")
	}

	var body *models.ProofOfPlayRequest
	if hasBody && err == nil {
		body = &req
	}
	h.proofOfPlay.Record(r.Context(), slideshowID, imageID, body)
	w.WriteHeader(http.StatusOK)
}

// ListProofOfPlay returns every proof-of-play event of a slideshow
func (h *SlideshowHandler) ListProofOfPlay(w http.ResponseWriter, r *http.Request) {
	slideshowID, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid slideshow ID")
		return
	}

	events, err := h.proofOfPlay.List(r.Context(), slideshowID)
	if err != nil {
		observability.WithContext(r.Context()).WithError(err).Error("Failed to list proof of play")
		writeError(w, http.StatusInternalServerError, "Failed to list proof of play events")
		return
	}

	writeJSON(w, http.StatusOK, events)
}
