package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DailyCount is one UTC calendar day's worth of click events.
type DailyCount struct {
	Date   time.Time
	Clicks int64
}

// ClickStatsRepository answers aggregation queries over click events. It
// reads through pgx directly; the write path goes through GORM inside the
// link repository's visit transaction.
type ClickStatsRepository interface {
	DailyCounts(ctx context.Context, slug string, from, to time.Time) ([]DailyCount, error)
}

type clickStatsRepository struct {
	pool *pgxpool.Pool
}

// NewClickStatsRepository returns a pgx-backed ClickStatsRepository.
func NewClickStatsRepository(pool *pgxpool.Pool) ClickStatsRepository {
	return &clickStatsRepository{pool: pool}
}

// DailyCounts groups click events for slug into UTC day buckets within
// [from, to). Days without events are absent from the result; the service
// layer zero-fills the window.
func (r *clickStatsRepository) DailyCounts(ctx context.Context, slug string, from, to time.Time) ([]DailyCount, error) {
	query := `
		SELECT (timestamp AT TIME ZONE 'UTC')::date AS day, COUNT(*) AS clicks
		FROM click_events
		WHERE link_slug = $1 AND timestamp >= $2 AND timestamp < $3
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.pool.Query(ctx, query, slug, from, to)
	if err != nil {
		return nil, fmt.Errorf("query daily counts: %w", err)
	}
	defer rows.Close()

	var counts []DailyCount
	for rows.Next() {
		var dc DailyCount
		if err := rows.Scan(&dc.Date, &dc.Clicks); err != nil {
			return nil, fmt.Errorf("scan daily count: %w", err)
		}
		counts = append(counts, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily counts: %w", err)
	}

	return counts, nil
}
