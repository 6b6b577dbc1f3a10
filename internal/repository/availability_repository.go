package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/nestlearn/planner-api/internal/models"
)

// AvailabilityRepository reads resolved availability days. Rows are produced
// upstream by the calendar service; this API treats them as read-only input.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

type availabilityRow struct {
	LearnerID string           `db:"learner_id"`
	Date      time.Time        `db:"date"`
	Status    models.DayStatus `db:"day_status"`
	Blocks    types.JSONText   `db:"blocks"`
}

// ListRange returns availability days for the given learners between from and
// to inclusive, ordered by learner then date.
func (r *AvailabilityRepository) ListRange(ctx context.Context, learnerIDs []string, from, to time.Time) ([]models.AvailabilityDay, error) {
	if len(learnerIDs) == 0 {
		return nil, nil
	}

	const base = `SELECT learner_id, date, day_status, blocks
	FROM availability_days
	WHERE learner_id IN (?) AND date >= ? AND date <= ?
	ORDER BY learner_id, date`

	query, args, err := sqlx.In(base, learnerIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("build availability query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []availabilityRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list availability days: %w", err)
	}

	days := make([]models.AvailabilityDay, 0, len(rows))
	for _, row := range rows {
		day := models.AvailabilityDay{
			LearnerID: row.LearnerID,
			Date:      row.Date,
			Status:    row.Status,
		}
		if len(row.Blocks) > 0 {
			if err := json.Unmarshal(row.Blocks, &day.Blocks); err != nil {
				return nil, fmt.Errorf("decode availability blocks for %s on %s: %w",
					row.LearnerID, row.Date.Format("2006-01-02"), err)
			}
		}
		days = append(days, day)
	}
	return days, nil
}
