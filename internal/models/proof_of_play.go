package models

import "time"

// ProofOfPlayEvent records that an image was shown on a display.
// Events are append-only.
type ProofOfPlayEvent struct {
	ID             int64      `json:"id"`
	SlideshowID    int64      `json:"slideshowId"`
	ImageID        int64      `json:"imageId"`
	UserID         *int64     `json:"userId,omitempty"`
	DisplayedAt    *time.Time `json:"displayedAt,omitempty"`
	ReplacedAt     *time.Time `json:"replacedAt,omitempty"`
	ActualDuration *int16     `json:"actualDuration,omitempty"`
	RecordedAt     time.Time  `json:"recordedAt"`
}

// NewProofOfPlayEvent builds an event for the given slideshow and image from a request
func NewProofOfPlayEvent(slideshowID, imageID int64, req *ProofOfPlayRequest) *ProofOfPlayEvent {
	ev := &ProofOfPlayEvent{
		SlideshowID: slideshowID,
		ImageID:     imageID,
		RecordedAt:  time.Now().UTC(),
	}
	if req != nil {
		ev.UserID = req.UserID
		ev.DisplayedAt = req.DisplayedAt
		ev.ReplacedAt = req.ReplacedAt
		ev.ActualDuration = req.ActualDuration
	}
	return ev
}
