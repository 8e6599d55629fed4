package services

import (
	"context"
	"testing"
	"time"

	"github.com/slideshow/server/internal/models"
	"github.com/slideshow/server/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageService(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := NewImageService(store, nil)

	t.Run("creates an image", func(t *testing.T) {
		url := "https://cdn.example.com/sunset.png"
		duration := int16(30)

		img, err := svc.CreateImage(ctx, &models.ImageRequest{URL: &url, Duration: &duration})
		require.NoError(t, err)
		assert.NotZero(t, img.ID)

		got, err := svc.GetImage(ctx, img.ID)
		require.NoError(t, err)
		assert.Equal(t, url, got.URL)
	})

	t.Run("rejects an out of range duration", func(t *testing.T) {
		url := "https://cdn.example.com/x.png"
		duration := int16(301)

		_, err := svc.CreateImage(ctx, &models.ImageRequest{URL: &url, Duration: &duration})
		assert.ErrorIs(t, err, models.ErrInvalidDuration)
	})

	t.Run("search defaults to newest first", func(t *testing.T) {
		addImage(t, store, "https://cdn.example.com/old-sunset.png", time.Now().Add(-time.Hour))

		images, err := svc.Search(ctx, repository.ImageFilter{})
		require.NoError(t, err)
		require.Len(t, images, 2)
		assert.Equal(t, "https://cdn.example.com/sunset.png", images[0].URL)
	})

	t.Run("missing image", func(t *testing.T) {
		_, err := svc.GetImage(ctx, 9999)
		assert.ErrorIs(t, err, models.ErrImageNotFound)
	})
}

func TestProofOfPlayService_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("appends an event", func(t *testing.T) {
		store := newTestStore(t)
		notifier := &recordingNotifier{}
		svc := NewProofOfPlayService(store, notifier, nil)
		viewer := int64(12)

		svc.Record(ctx, 1, 2, &models.ProofOfPlayRequest{UserID: &viewer})

		events, err := svc.List(ctx, 1)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, int64(2), events[0].ImageID)
		require.NotNil(t, events[0].UserID)
		assert.Equal(t, viewer, *events[0].UserID)

		require.Len(t, notifier.messages(), 1)
		assert.Equal(t, WSTypeProofOfPlayRecorded, notifier.messages()[0].msg.Type)
	})

	t.Run("failures are dropped", func(t *testing.T) {
		base := newTestStore(t)
		notifier := &recordingNotifier{}
		svc := NewProofOfPlayService(&faultyStore{Store: base, proofErr: errStorage}, notifier, nil)

		assert.NotPanics(t, func() { svc.Record(ctx, 1, 2, &models.ProofOfPlayRequest{}) })

		events, err := svc.List(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, events)
		assert.Empty(t, notifier.messages())
	})

	t.Run("nil request records nothing", func(t *testing.T) {
		store := newTestStore(t)
		notifier := &recordingNotifier{}
		svc := NewProofOfPlayService(store, notifier, nil)

		svc.Record(ctx, 1, 2, nil)

		events, err := svc.List(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, events)
		assert.Empty(t, notifier.messages())
	})
}
