package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/slideshow/server/internal/models"
)

// SlideshowRepository implements SlideshowRepo for SQLite.
// Image references are stored as a JSON array and queried with json_each.
type SlideshowRepository struct {
	db   DBTX
	inTx func(ctx context.Context, fn func(q DBTX) error) error
}

// NewSlideshowRepository creates a new SlideshowRepository.
// inTx runs multi-statement updates atomically.
func NewSlideshowRepository(db DBTX, inTx func(ctx context.Context, fn func(q DBTX) error) error) *SlideshowRepository {
	return &SlideshowRepository{db: db, inTx: inTx}
}

func (r *SlideshowRepository) GetByID(ctx context.Context, id int64) (*models.Slideshow, error) {
	query := `SELECT id, images_ids, created_at FROM slideshows WHERE id = $1`

	var s models.Slideshow
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.ImageIDs, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SlideshowRepository) Add(ctx context.Context, slideshow *models.Slideshow) error {
	query := `INSERT INTO slideshows (images_ids, created_at) VALUES ($1, $2) RETURNING id`

	return r.db.QueryRowContext(ctx, query, slideshow.ImageIDs, slideshow.CreatedAt.UTC()).Scan(&slideshow.ID)
}

func (r *SlideshowRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteSlideshow(ctx, r.db, id)
}

func (r *SlideshowRepository) FindWithMembers(ctx context.Context, id int64, dir models.SortDirection) (*models.SlideshowView, error) {
	query := `SELECT s.id, i.id, i.url, i.duration, i.added_at
			  FROM slideshows s
			  LEFT JOIN images i ON i.id IN (SELECT value FROM json_each(s.images_ids))
			  WHERE s.id = $1
			  ORDER BY i.added_at %[1]s, i.id %[1]s`

	return findWithMembers(ctx, r.db, fmt.Sprintf(query, sortKeyword(dir)), id)
}

// RemoveImageID rewrites each affected list through ImageRefs.Without
// inside one transaction
func (r *SlideshowRepository) RemoveImageID(ctx context.Context, imageID int64) ([]int64, error) {
	var updated []int64

	err := r.inTx(ctx, func(q DBTX) error {
		rows, err := q.QueryContext(ctx, `
			SELECT id, images_ids FROM slideshows
			WHERE EXISTS (SELECT 1 FROM json_each(slideshows.images_ids) WHERE value = $1)
			ORDER BY id`, imageID)
		if err != nil {
			return err
		}

		type pending struct {
			id   int64
			refs models.ImageRefs
		}
		var changes []pending
		for rows.Next() {
			var p pending
			if err := rows.Scan(&p.id, &p.refs); err != nil {
				rows.Close()
				return err
			}
			changes = append(changes, p)
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for _, c := range changes {
			if _, err := q.ExecContext(ctx, `UPDATE slideshows SET images_ids = $1 WHERE id = $2`,
				c.refs.Without(imageID), c.id); err != nil {
				return err
			}
			updated = append(updated, c.id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		updated = []int64{}
	}
	return updated, nil
}

func (r *SlideshowRepository) FindDanglingImageIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT DISTINCT j.value
			  FROM slideshows s, json_each(s.images_ids) j
			  WHERE NOT EXISTS (SELECT 1 FROM images i WHERE i.id = j.value)
			  ORDER BY j.value`

	return queryIDs(ctx, r.db, query)
}

// Shared by both dialects

func deleteSlideshow(ctx context.Context, db DBTX, id int64) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM slideshows WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// findWithMembers scans rows of (slideshow id, image columns...) where the
// image columns are NULL for a slideshow without resolvable members
func findWithMembers(ctx context.Context, db DBTX, query string, id int64) (*models.SlideshowView, error) {
	rows, err := db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var view *models.SlideshowView
	for rows.Next() {
		var (
			slideshowID int64
			imageID     sql.NullInt64
			url         sql.NullString
			duration    sql.NullInt16
			addedAt     sql.NullTime
		)
		if err := rows.Scan(&slideshowID, &imageID, &url, &duration, &addedAt); err != nil {
			return nil, err
		}
		if view == nil {
			view = &models.SlideshowView{SlideshowID: slideshowID, Images: []*models.Image{}}
		}
		if imageID.Valid {
			view.Images = append(view.Images, &models.Image{
				ID:       imageID.Int64,
				URL:      url.String,
				Duration: duration.Int16,
				AddedAt:  addedAt.Time,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return view, nil
}

func queryIDs(ctx context.Context, db DBTX, query string, args ...interface{}) ([]int64, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// sortKeyword maps a direction to SQL, defaulting to ascending
func sortKeyword(dir models.SortDirection) string {
	if dir == models.SortDesc {
		return "DESC"
	}
	return "ASC"
}
