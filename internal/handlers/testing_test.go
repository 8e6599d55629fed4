package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/slideshow/server/internal/models"
	"github.com/slideshow/server/internal/repository"
	"github.com/slideshow/server/internal/services"
	"github.com/slideshow/server/internal/validation"
	"github.com/stretchr/testify/require"
)

type stubProber struct {
	invalid map[string]bool
}

func (p stubProber) Validate(ctx context.Context, url string) bool {
	return !p.invalid[url]
}

type failingLookup struct{}

func (failingLookup) FindExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return nil, errors.New("connection refused")
}

type testServer struct {
	store   *repository.SQLStore
	hub     *services.WebSocketHub
	handler http.Handler
}

type serverOption func(*serverOptions)

type serverOptions struct {
	prober validation.URLProber
	lookup validation.ImageLookup
}

func withProber(p validation.URLProber) serverOption {
	return func(o *serverOptions) { o.prober = p }
}

func withLookup(l validation.ImageLookup) serverOption {
	return func(o *serverOptions) { o.lookup = l }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	db, err := repository.NewSQLiteDB(filepath.Join(t.TempDir(), "slideshow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := repository.NewSQLStore(db, repository.DialectSQLite)

	o := serverOptions{prober: stubProber{}, lookup: store.Images()}
	for _, opt := range opts {
		opt(&o)
	}

	hub := services.NewWebSocketHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	aggregator := validation.NewAggregator(o.prober, validation.NewExistenceChecker(o.lookup), 4, nil)
	references := services.NewReferenceService(store, hub, nil)
	maintenance := services.NewMaintenanceService(store, references, "@every 1h")

	handler := NewRouter(Router{
		Health: NewHealthHandler(store),
		Images: NewImageHandler(aggregator, services.NewImageService(store, nil), references),
		Slideshows: NewSlideshowHandler(
			aggregator,
			services.NewSlideshowService(store, models.MemberOrderNewFirst, hub, nil),
			services.NewProofOfPlayService(store, hub, nil),
		),
		Maintenance: NewMaintenanceHandler(maintenance),
		WebSocket:   NewWebSocketHandler(hub),
	})

	return &testServer{store: store, hub: hub, handler: handler}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader.Len() > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) addImage(t *testing.T, url string, addedAt time.Time) *models.Image {
	t.Helper()
	img := &models.Image{URL: url, Duration: 10, AddedAt: addedAt}
	require.NoError(t, s.store.Images().Add(context.Background(), img))
	return img
}

func (s *testServer) addSlideshow(t *testing.T, ids ...int64) *models.Slideshow {
	t.Helper()
	show := models.NewSlideshow(ids)
	require.NoError(t, s.store.Slideshows().Add(context.Background(), show))
	return show
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func codes(errs []models.ValidationErrorResponse) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}
