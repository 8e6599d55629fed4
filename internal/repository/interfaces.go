package repository

import (
	"context"

	"github.com/slideshow/server/internal/models"
)

// ImageRepo defines the interface for image persistence operations
type ImageRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Image, error)
	FindExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
	Add(ctx context.Context, image *models.Image) error
	Search(ctx context.Context, filter ImageFilter) ([]*models.Image, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// SlideshowRepo defines the interface for slideshow persistence operations
type SlideshowRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Slideshow, error)
	Add(ctx context.Context, slideshow *models.Slideshow) error
	Delete(ctx context.Context, id int64) (bool, error)
	// FindWithMembers returns the slideshow joined with its member images,
	// ordered by add time, or nil if the slideshow does not exist
	FindWithMembers(ctx context.Context, id int64, dir models.SortDirection) (*models.SlideshowView, error)
	// RemoveImageID removes every occurrence of imageID from every slideshow
	// and returns the ids of the slideshows that changed
	RemoveImageID(ctx context.Context, imageID int64) ([]int64, error)
	// FindDanglingImageIDs returns referenced image ids that have no image row
	FindDanglingImageIDs(ctx context.Context) ([]int64, error)
}

// ProofOfPlayRepo defines the interface for the proof-of-play event log
type ProofOfPlayRepo interface {
	Add(ctx context.Context, event *models.ProofOfPlayEvent) error
	ListBySlideshow(ctx context.Context, slideshowID int64) ([]*models.ProofOfPlayEvent, error)
}

// ImageFilter narrows an image search. Nil fields are not filtered on.
type ImageFilter struct {
	Keyword   *string
	Duration  *int16
	Direction models.SortDirection
}

// Store groups the repositories that share one connection or transaction
type Store interface {
	Images() ImageRepo
	Slideshows() SlideshowRepo
	ProofOfPlay() ProofOfPlayRepo
	// InNewTx runs fn in a new transaction begun from the connection pool,
	// never joining a transaction the receiver may already be bound to.
	// The transaction commits if fn returns nil and rolls back otherwise.
	InNewTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
