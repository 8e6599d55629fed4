package models

import (
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"
)

// ImageDescriptor is one image entry of a slideshow request.
// An entry with an ID reuses an existing image; otherwise URL and Duration
// describe a new one.
type ImageDescriptor struct {
	ID       *int64  `json:"id,omitempty"`
	URL      *string `json:"url,omitempty"`
	Duration *int16  `json:"duration,omitempty"`
}

// HasID reports whether the descriptor references an existing image
func (d *ImageDescriptor) HasID() bool {
	return d != nil && d.ID != nil
}

// Hash returns a structural hash of the descriptor's fields.
// Two descriptors with equal fields hash equally.
func (d *ImageDescriptor) Hash() uint64 {
	h := xxhash.New()
	var buf [8]byte

	if d == nil {
		h.Write([]byte{0xff})
		return h.Sum64()
	}

	if d.ID != nil {
		h.Write([]byte{1})
		binary.BigEndian.PutUint64(buf[:], uint64(*d.ID))
		h.Write(buf[:])
	} else {
		h.Write([]byte{0})
	}

	if d.URL != nil {
		h.Write([]byte{1})
		binary.BigEndian.PutUint64(buf[:], uint64(len(*d.URL)))
		h.Write(buf[:])
		h.WriteString(*d.URL)
	} else {
		h.Write([]byte{0})
	}

	if d.Duration != nil {
		h.Write([]byte{1})
		binary.BigEndian.PutUint16(buf[:2], uint16(*d.Duration))
		h.Write(buf[:2])
	} else {
		h.Write([]byte{0})
	}

	return h.Sum64()
}

// SlideshowRequest is the request body for creating a slideshow
type SlideshowRequest struct {
	Images []*ImageDescriptor `json:"images"`
}

// ImageRequest is the request body for creating a single image
type ImageRequest struct {
	URL      *string `json:"url"`
	Duration *int16  `json:"duration"`
}

// ProofOfPlayRequest is the request body sent by a display after an image cycle
type ProofOfPlayRequest struct {
	UserID         *int64     `json:"userId"`
	DisplayedAt    *time.Time `json:"displayedAt"`
	ReplacedAt     *time.Time `json:"replacedAt"`
	ActualDuration *int16     `json:"actualDuration"`
}
