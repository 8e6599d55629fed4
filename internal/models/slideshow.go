package models

import (
	"strings"
	"time"
)

// Slideshow is an ordered, duplicate-permitting list of image references
type Slideshow struct {
	ID        int64     `json:"id"`
	ImageIDs  ImageRefs `json:"imageIds"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewSlideshow creates a new, not yet persisted Slideshow
func NewSlideshow(imageIDs []int64) *Slideshow {
	refs := make(ImageRefs, len(imageIDs))
	copy(refs, imageIDs)
	return &Slideshow{
		ImageIDs:  refs,
		CreatedAt: time.Now().UTC(),
	}
}

// SlideshowView is a slideshow joined with its member images
type SlideshowView struct {
	SlideshowID int64    `json:"slideshowId"`
	Images      []*Image `json:"images"`
}

// SortDirection orders member images by the time they were added
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// ParseSortDirection parses a direction, case-insensitively.
// An empty string yields def.
func ParseSortDirection(s string, def SortDirection) (SortDirection, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return def, nil
	case string(SortAsc):
		return SortAsc, nil
	case string(SortDesc):
		return SortDesc, nil
	}
	return "", ErrInvalidSortDirection
}

// MemberOrder selects how new and reused images are arranged in a new slideshow
type MemberOrder string

const (
	// MemberOrderNewFirst places newly created images before reused ones,
	// each block keeping its submission order
	MemberOrderNewFirst MemberOrder = "new_first"
	// MemberOrderSubmission keeps the exact submission interleaving
	MemberOrderSubmission MemberOrder = "submission"
)

// IsValidMemberOrder checks if a member order value is valid
func IsValidMemberOrder(o string) bool {
	switch MemberOrder(o) {
	case MemberOrderNewFirst, MemberOrderSubmission:
		return true
	}
	return false
}

// Errors
type SlideshowError struct {
	Message string
}

func (e SlideshowError) Error() string {
	return e.Message
}

var (
	ErrSlideshowNotFound    = SlideshowError{"slideshow not found"}
	ErrNoValidImages        = SlideshowError{"no valid images to compose a slideshow"}
	ErrInvalidSortDirection = SlideshowError{"sort direction must be ASC or DESC"}
)
