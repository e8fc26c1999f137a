package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"menumaker/internal/database"
)

// RunMetric records how one menu run went.
type RunMetric struct {
	RunID      string
	Source     string // "cli" or "telegram"
	Slots      int
	Rejections int
	Duration   time.Duration
	Timestamp  time.Time
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m RunMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_metrics (run_id, source, slots, rejections, duration_ms, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.RunID, m.Source, m.Slots, m.Rejections, m.Duration.Milliseconds(), database.FormatTime(ts))
	if err != nil {
		return fmt.Errorf("failed to record metric for run %s: %w", m.RunID, err)
	}
	return nil
}

// DailyUsage summarises the runs of a single day.
type DailyUsage struct {
	Date            string
	Runs            int
	Slots           int
	Rejections      int
	AverageDuration time.Duration
}

// RejectionRate is the number of rejections per planned slot.
func (u DailyUsage) RejectionRate() float64 {
	if u.Slots == 0 {
		return 0
	}
	return float64(u.Rejections) / float64(u.Slots)
}

// Recent returns per-day totals for the last N days, newest first.
func (s *Store) Recent(ctx context.Context, days int) ([]DailyUsage, error) {
	since := database.FormatTime(time.Now().AddDate(0, 0, -days))
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(created_at, 1, 10) AS day, COUNT(*), SUM(slots), SUM(rejections), AVG(duration_ms)
		FROM run_metrics
		WHERE created_at >= ?
		GROUP BY day
		ORDER BY day DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var (
			u   DailyUsage
			avg float64
		)
		if err := rows.Scan(&u.Date, &u.Runs, &u.Slots, &u.Rejections, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		u.AverageDuration = time.Duration(avg) * time.Millisecond
		results = append(results, u)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := database.FormatTime(time.Now().AddDate(0, 0, -olderThanDays))
	res, err := s.db.ExecContext(ctx, `DELETE FROM run_metrics WHERE created_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up metrics: %w", err)
	}
	return res.RowsAffected()
}
