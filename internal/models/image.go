package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxURLLength is the longest image URL accepted, counted in characters
	MaxURLLength = 255
	// MinDuration and MaxDuration bound the display time of an image in seconds
	MinDuration = 1
	MaxDuration = 300
)

// Image represents an image that can be displayed as part of a slideshow
type Image struct {
	ID       int64     `json:"id"`
	URL      string    `json:"url"`
	Duration int16     `json:"duration"`
	AddedAt  time.Time `json:"addedAt"`
}

// NewImage creates a new, not yet persisted Image with validation
func NewImage(url string, duration int16) (*Image, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrEmptyURL
	}
	if URLLength(url) > MaxURLLength {
		return nil, ErrURLTooLong
	}
	if !ValidDuration(duration) {
		return nil, ErrInvalidDuration
	}

	return &Image{
		URL:      url,
		Duration: duration,
		AddedAt:  time.Now().UTC(),
	}, nil
}

// URLLength returns the length of url in characters
func URLLength(url string) int {
	return utf8.RuneCountInString(url)
}

// ValidDuration reports whether d is an accepted display duration
func ValidDuration(d int16) bool {
	return d >= MinDuration && d <= MaxDuration
}

// Errors
type ImageError struct {
	Message string
}

func (e ImageError) Error() string {
	return e.Message
}

var (
	ErrEmptyURL        = ImageError{"image url cannot be empty"}
	ErrURLTooLong      = ImageError{"image url must not exceed 255 characters"}
	ErrInvalidDuration = ImageError{"image duration must be between 1 and 300 seconds"}
	ErrImageNotFound   = ImageError{"image not found"}
)
