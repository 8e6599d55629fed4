package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/slideshow/server/internal/models"
)

// SlideshowRepositoryPostgres implements SlideshowRepo for PostgreSQL.
// Image references are stored in a BIGINT[] column.
type SlideshowRepositoryPostgres struct {
	db DBTX
}

// NewSlideshowRepositoryPostgres creates a new SlideshowRepositoryPostgres
func NewSlideshowRepositoryPostgres(db DBTX) *SlideshowRepositoryPostgres {
	return &SlideshowRepositoryPostgres{db: db}
}

func (r *SlideshowRepositoryPostgres) GetByID(ctx context.Context, id int64) (*models.Slideshow, error) {
	query := `SELECT id, images_ids, created_at FROM slideshows WHERE id = $1`

	var s models.Slideshow
	var ids []int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, pq.Array(&ids), &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.ImageIDs = models.ImageRefs(ids)
	if s.ImageIDs == nil {
		s.ImageIDs = models.ImageRefs{}
	}
	return &s, nil
}

func (r *SlideshowRepositoryPostgres) Add(ctx context.Context, slideshow *models.Slideshow) error {
	query := `INSERT INTO slideshows (images_ids, created_at) VALUES ($1, $2) RETURNING id`

	ids := []int64(slideshow.ImageIDs)
	if ids == nil {
		ids = []int64{}
	}
	return r.db.QueryRowContext(ctx, query, pq.Array(ids), slideshow.CreatedAt.UTC()).Scan(&slideshow.ID)
}

func (r *SlideshowRepositoryPostgres) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteSlideshow(ctx, r.db, id)
}

func (r *SlideshowRepositoryPostgres) FindWithMembers(ctx context.Context, id int64, dir models.SortDirection) (*models.SlideshowView, error) {
	query := `SELECT s.id, i.id, i.url, i.duration, i.added_at
			  FROM slideshows s
			  LEFT JOIN images i ON i.id = ANY(s.images_ids)
			  WHERE s.id = $1
			  ORDER BY i.added_at %[1]s, i.id %[1]s`

	return findWithMembers(ctx, r.db, fmt.Sprintf(query, sortKeyword(dir)), id)
}

// RemoveImageID applies the same removal as ImageRefs.Without in one
// bulk statement with array_remove
func (r *SlideshowRepositoryPostgres) RemoveImageID(ctx context.Context, imageID int64) ([]int64, error) {
	query := `UPDATE slideshows
			  SET images_ids = array_remove(images_ids, $1::bigint)
			  WHERE images_ids @> ARRAY[$1::bigint]
			  RETURNING id`

	return queryIDs(ctx, r.db, query, imageID)
}

func (r *SlideshowRepositoryPostgres) FindDanglingImageIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT DISTINCT ref.id
			  FROM slideshows s
			  CROSS JOIN LATERAL unnest(s.images_ids) AS ref(id)
			  WHERE NOT EXISTS (SELECT 1 FROM images i WHERE i.id = ref.id)
			  ORDER BY ref.id`

	return queryIDs(ctx, r.db, query)
}
