package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/slideshow/server/internal/models"
	"github.com/slideshow/server/internal/repository"
	"github.com/stretchr/testify/require"
)

var errStorage = errors.New("storage unavailable")

func newTestStore(t *testing.T) *repository.SQLStore {
	t.Helper()
	db, err := repository.NewSQLiteDB(filepath.Join(t.TempDir(), "slideshow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewSQLStore(db, repository.DialectSQLite)
}

func addImage(t *testing.T, s repository.Store, url string, addedAt time.Time) *models.Image {
	t.Helper()
	img := &models.Image{URL: url, Duration: 10, AddedAt: addedAt}
	require.NoError(t, s.Images().Add(context.Background(), img))
	return img
}

func addSlideshow(t *testing.T, s repository.Store, ids ...int64) *models.Slideshow {
	t.Helper()
	show := models.NewSlideshow(ids)
	require.NoError(t, s.Slideshows().Add(context.Background(), show))
	return show
}

func newDescriptor(url string, duration int16) *models.ImageDescriptor {
	return &models.ImageDescriptor{URL: &url, Duration: &duration}
}

func idDescriptor(id int64) *models.ImageDescriptor {
	return &models.ImageDescriptor{ID: &id}
}

type sentMessage struct {
	topic string
	msg   WSMessage
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) BroadcastToTopic(topic string, msg WSMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{topic: topic, msg: msg})
}

func (n *recordingNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

// faultyStore injects failures into an otherwise working store
type faultyStore struct {
	repository.Store
	addSlideshowErr error
	removeErr       error
	deleteImageErr  error
	proofErr        error
}

func (s *faultyStore) Images() repository.ImageRepo {
	return &faultyImages{ImageRepo: s.Store.Images(), deleteErr: s.deleteImageErr}
}

func (s *faultyStore) Slideshows() repository.SlideshowRepo {
	return &faultySlideshows{SlideshowRepo: s.Store.Slideshows(), addErr: s.addSlideshowErr, removeErr: s.removeErr}
}

func (s *faultyStore) ProofOfPlay() repository.ProofOfPlayRepo {
	return &faultyProofOfPlay{ProofOfPlayRepo: s.Store.ProofOfPlay(), addErr: s.proofErr}
}

func (s *faultyStore) InNewTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.InNewTx(ctx, func(tx repository.Store) error {
		clone := *s
		clone.Store = tx
		return fn(&clone)
	})
}

type faultyImages struct {
	repository.ImageRepo
	deleteErr error
}

func (r *faultyImages) Delete(ctx context.Context, id int64) (bool, error) {
	if r.deleteErr != nil {
		return false, r.deleteErr
	}
	return r.ImageRepo.Delete(ctx, id)
}

type faultySlideshows struct {
	repository.SlideshowRepo
	addErr    error
	removeErr error
}

func (r *faultySlideshows) Add(ctx context.Context, slideshow *models.Slideshow) error {
	if r.addErr != nil {
		return r.addErr
	}
	return r.SlideshowRepo.Add(ctx, slideshow)
}

func (r *faultySlideshows) RemoveImageID(ctx context.Context, imageID int64) ([]int64, error) {
	if r.removeErr != nil {
		return nil, r.removeErr
	}
	return r.SlideshowRepo.RemoveImageID(ctx, imageID)
}

type faultyProofOfPlay struct {
	repository.ProofOfPlayRepo
	addErr error
}

func (r *faultyProofOfPlay) Add(ctx context.Context, event *models.ProofOfPlayEvent) error {
	if r.addErr != nil {
		return r.addErr
	}
	return r.ProofOfPlayRepo.Add(ctx, event)
}
