package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/slideshow/server/internal/models"
)

// ProofOfPlayRepository implements ProofOfPlayRepo for PostgreSQL/SQLite
type ProofOfPlayRepository struct {
	db DBTX
}

// NewProofOfPlayRepository creates a new ProofOfPlayRepository
func NewProofOfPlayRepository(db DBTX) *ProofOfPlayRepository {
	return &ProofOfPlayRepository{db: db}
}

// Add appends an event and sets its ID
func (r *ProofOfPlayRepository) Add(ctx context.Context, event *models.ProofOfPlayEvent) error {
	query := `INSERT INTO proof_of_play_events
			  (slideshow_id, image_id, user_id, displayed_at, replaced_at, actual_duration, recorded_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		event.SlideshowID,
		event.ImageID,
		event.UserID,
		utcOrNil(event.DisplayedAt),
		utcOrNil(event.ReplacedAt),
		event.ActualDuration,
		event.RecordedAt.UTC(),
	).Scan(&event.ID)
}

// ListBySlideshow returns the events of a slideshow in recording order
func (r *ProofOfPlayRepository) ListBySlideshow(ctx context.Context, slideshowID int64) ([]*models.ProofOfPlayEvent, error) {
	query := `SELECT id, slideshow_id, image_id, user_id, displayed_at, replaced_at, actual_duration, recorded_at
			  FROM proof_of_play_events WHERE slideshow_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, slideshowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*models.ProofOfPlayEvent{}
	for rows.Next() {
		var (
			ev             models.ProofOfPlayEvent
			userID         sql.NullInt64
			displayedAt    sql.NullTime
			replacedAt     sql.NullTime
			actualDuration sql.NullInt16
		)
		if err := rows.Scan(&ev.ID, &ev.SlideshowID, &ev.ImageID, &userID, &displayedAt, &replacedAt, &actualDuration, &ev.RecordedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			ev.UserID = &userID.Int64
		}
		if displayedAt.Valid {
			ev.DisplayedAt = &displayedAt.Time
		}
		if replacedAt.Valid {
			ev.ReplacedAt = &replacedAt.Time
		}
		if actualDuration.Valid {
			ev.ActualDuration = &actualDuration.Int16
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}

func utcOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
