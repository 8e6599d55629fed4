package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/slideshow/server/internal/models"
)

// ImageRepository implements ImageRepo for PostgreSQL/SQLite
type ImageRepository struct {
	db      DBTX
	dialect Dialect
}

// NewImageRepository creates a new ImageRepository
func NewImageRepository(db DBTX, dialect Dialect) *ImageRepository {
	return &ImageRepository{db: db, dialect: dialect}
}

// GetByID retrieves an image by its ID
func (r *ImageRepository) GetByID(ctx context.Context, id int64) (*models.Image, error) {
	query := `SELECT id, url, duration, added_at FROM images WHERE id = $1`

	var img models.Image
	err := r.db.QueryRowContext(ctx, query, id).Scan(&img.ID, &img.URL, &img.Duration, &img.AddedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// FindExistingIDs returns which of the given ids exist. The ids are bound as
// one array parameter regardless of batch size.
func (r *ImageRepository) FindExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}

	if r.dialect == DialectPostgres {
		return queryIDs(ctx, r.db, `SELECT id FROM images WHERE id = ANY($1)`, pq.Array(ids))
	}
	return queryIDs(ctx, r.db,
		`SELECT id FROM images WHERE id IN (SELECT value FROM json_each($1))`, models.ImageRefs(ids))
}

// Add inserts an image and sets its ID
func (r *ImageRepository) Add(ctx context.Context, image *models.Image) error {
	query := `INSERT INTO images (url, duration, added_at) VALUES ($1, $2, $3) RETURNING id`

	return r.db.QueryRowContext(ctx, query, image.URL, image.Duration, image.AddedAt.UTC()).Scan(&image.ID)
}

// Search returns images matching every set filter, ordered by add time
func (r *ImageRepository) Search(ctx context.Context, filter ImageFilter) ([]*models.Image, error) {
	var conditions []string
	var args []interface{}

	if filter.Keyword != nil && strings.TrimSpace(*filter.Keyword) != "" {
		args = append(args, r.keywordArg(*filter.Keyword))
		conditions = append(conditions, r.keywordCondition(len(args)))
	}
	if filter.Duration != nil {
		args = append(args, *filter.Duration)
		conditions = append(conditions, fmt.Sprintf("duration = $%d", len(args)))
	}

	dir := filter.Direction
	if dir != models.SortAsc {
		dir = models.SortDesc
	}

	query := `SELECT id, url, duration, added_at FROM images`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY added_at %s, id %s", dir, dir)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := []*models.Image{}
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.ID, &img.URL, &img.Duration, &img.AddedAt); err != nil {
			return nil, err
		}
		images = append(images, &img)
	}
	return images, rows.Err()
}

func (r *ImageRepository) keywordCondition(n int) string {
	if r.dialect == DialectPostgres {
		return fmt.Sprintf("to_tsvector('english', url) @@ plainto_tsquery('english', $%d)", n)
	}
	return fmt.Sprintf(`url LIKE $%d ESCAPE '\'`, n)
}

func (r *ImageRepository) keywordArg(keyword string) string {
	keyword = strings.TrimSpace(keyword)
	if r.dialect == DialectPostgres {
		return keyword
	}
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + escaper.Replace(keyword) + "%"
}

// Delete removes an image by ID
func (r *ImageRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
