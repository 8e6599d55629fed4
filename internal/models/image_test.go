package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImage(t *testing.T) {
	t.Run("creates image with valid parameters", func(t *testing.T) {
		img, err := NewImage("https://cdn.example.com/a.png", 10)

		require.NoError(t, err)
		assert.Zero(t, img.ID)
		assert.Equal(t, "https://cdn.example.com/a.png", img.URL)
		assert.Equal(t, int16(10), img.Duration)
		assert.WithinDuration(t, time.Now().UTC(), img.AddedAt, 5*time.Second)
	})

	t.Run("rejects blank url", func(t *testing.T) {
		_, err := NewImage("   ", 10)
		assert.ErrorIs(t, err, ErrEmptyURL)
	})

	t.Run("accepts url of exactly 255 characters", func(t *testing.T) {
		_, err := NewImage(strings.Repeat("a", 255), 10)
		assert.NoError(t, err)
	})

	t.Run("rejects url of 256 characters", func(t *testing.T) {
		_, err := NewImage(strings.Repeat("a", 256), 10)
		assert.ErrorIs(t, err, ErrURLTooLong)
	})

	t.Run("duration bounds", func(t *testing.T) {
		for _, d := range []int16{1, 300} {
			_, err := NewImage("u", d)
			assert.NoError(t, err, "duration %d", d)
		}
		for _, d := range []int16{0, 301, -1} {
			_, err := NewImage("u", d)
			assert.ErrorIs(t, err, ErrInvalidDuration, "duration %d", d)
		}
	})
}

func TestURLLength(t *testing.T) {
	assert.Equal(t, 3, URLLength("abc"))
	assert.Equal(t, 2, URLLength("éé"))
}

func TestImageError(t *testing.T) {
	assert.Equal(t, "image not found", ErrImageNotFound.Error())
}
