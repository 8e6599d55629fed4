package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func int64Ptr(v int64) *int64    { return &v }
func int16Ptr(v int16) *int16    { return &v }
func stringPtr(v string) *string { return &v }

func TestImageDescriptorHash(t *testing.T) {
	t.Run("equal fields hash equally", func(t *testing.T) {
		a := &ImageDescriptor{URL: stringPtr("https://x/a.png"), Duration: int16Ptr(5)}
		b := &ImageDescriptor{URL: stringPtr("https://x/a.png"), Duration: int16Ptr(5)}
		assert.Equal(t, a.Hash(), b.Hash())
	})

	t.Run("different fields hash differently", func(t *testing.T) {
		base := &ImageDescriptor{URL: stringPtr("https://x/a.png"), Duration: int16Ptr(5)}
		variants := []*ImageDescriptor{
			{URL: stringPtr("https://x/b.png"), Duration: int16Ptr(5)},
			{URL: stringPtr("https://x/a.png"), Duration: int16Ptr(6)},
			{URL: stringPtr("https://x/a.png")},
			{ID: int64Ptr(1), URL: stringPtr("https://x/a.png"), Duration: int16Ptr(5)},
		}
		for _, v := range variants {
			assert.NotEqual(t, base.Hash(), v.Hash())
		}
	})

	t.Run("absent url differs from empty url", func(t *testing.T) {
		assert.NotEqual(t, (&ImageDescriptor{}).Hash(), (&ImageDescriptor{URL: stringPtr("")}).Hash())
	})

	t.Run("nil descriptor hashes", func(t *testing.T) {
		var d *ImageDescriptor
		assert.NotPanics(t, func() { d.Hash() })
		assert.False(t, d.HasID())
	})
}
