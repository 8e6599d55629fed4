package repository

import (
	"context"
	"testing"
	"time"

	"github.com/slideshow/server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("add and get", func(t *testing.T) {
		store := newTestStore(t)
		added := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		img := addImage(t, store, "https://x/a.png", added)
		require.NotZero(t, img.ID)

		got, err := store.Images().GetByID(ctx, img.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "https://x/a.png", got.URL)
		assert.Equal(t, int16(10), got.Duration)
		assert.True(t, added.Equal(got.AddedAt))
	})

	t.Run("get missing returns nil", func(t *testing.T) {
		got, err := newTestStore(t).Images().GetByID(ctx, 42)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("find existing ids", func(t *testing.T) {
		store := newTestStore(t)
		a := addImage(t, store, "https://x/a.png", time.Now())
		b := addImage(t, store, "https://x/b.png", time.Now())

		found, err := store.Images().FindExistingIDs(ctx, []int64{a.ID, 999, b.ID})

		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{a.ID, b.ID}, found)

		found, err = store.Images().FindExistingIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("find existing ids beyond bind variable limit", func(t *testing.T) {
		store := newTestStore(t)
		a := addImage(t, store, "https://x/a.png", time.Now())
		b := addImage(t, store, "https://x/b.png", time.Now())

		ids := make([]int64, 0, 40000)
		ids = append(ids, a.ID, b.ID)
		for id := int64(1_000_000); len(ids) < 40000; id++ {
			ids = append(ids, id)
		}

		found, err := store.Images().FindExistingIDs(ctx, ids)

		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{a.ID, b.ID}, found)
	})

	t.Run("delete", func(t *testing.T) {
		store := newTestStore(t)
		img := addImage(t, store, "https://x/a.png", time.Now())

		deleted, err := store.Images().Delete(ctx, img.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = store.Images().Delete(ctx, img.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("rejects out of range duration", func(t *testing.T) {
		store := newTestStore(t)
		err := store.Images().Add(ctx, &models.Image{URL: "u", Duration: 301, AddedAt: time.Now()})
		assert.Error(t, err)
	})
}

func TestImageRepository_Search(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	cat := addImage(t, store, "https://cdn/cat.png", base)
	dog := addImage(t, store, "https://cdn/dog.png", base.Add(time.Hour))
	catLong := &models.Image{URL: "https://cdn/cat_long.jpg", Duration: 30, AddedAt: base.Add(2 * time.Hour)}
	require.NoError(t, store.Images().Add(ctx, catLong))

	ids := func(images []*models.Image) []int64 {
		out := make([]int64, 0, len(images))
		for _, img := range images {
			out = append(out, img.ID)
		}
		return out
	}
	keyword := func(s string) *string { return &s }
	duration := func(d int16) *int16 { return &d }

	t.Run("no filter lists all newest first", func(t *testing.T) {
		images, err := store.Images().Search(ctx, ImageFilter{})
		require.NoError(t, err)
		assert.Equal(t, []int64{catLong.ID, dog.ID, cat.ID}, ids(images))
	})

	t.Run("keyword ascending", func(t *testing.T) {
		images, err := store.Images().Search(ctx, ImageFilter{Keyword: keyword("CAT"), Direction: models.SortAsc})
		require.NoError(t, err)
		assert.Equal(t, []int64{cat.ID, catLong.ID}, ids(images))
	})

	t.Run("keyword and duration are combined", func(t *testing.T) {
		images, err := store.Images().Search(ctx, ImageFilter{Keyword: keyword("cat"), Duration: duration(30)})
		require.NoError(t, err)
		assert.Equal(t, []int64{catLong.ID}, ids(images))
	})

	t.Run("wildcards in keyword are literal", func(t *testing.T) {
		images, err := store.Images().Search(ctx, ImageFilter{Keyword: keyword("%")})
		require.NoError(t, err)
		assert.Empty(t, images)

		images, err = store.Images().Search(ctx, ImageFilter{Keyword: keyword("t_l")})
		require.NoError(t, err)
		assert.Equal(t, []int64{catLong.ID}, ids(images))
	})

	t.Run("no match", func(t *testing.T) {
		images, err := store.Images().Search(ctx, ImageFilter{Keyword: keyword("bird")})
		require.NoError(t, err)
		assert.Empty(t, images)
	})
}
