package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// InsertCapacitySample writes one row. The statement runs outside an explicit
// transaction, so it is committed as soon as it returns.
func (r *Repository) InsertCapacitySample(ctx context.Context, sample CapacitySample) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO pure_capacity (frame, capacity, total, data_redux_ratio, total_redux_ratio, datetime)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sample.row()...)
	if err != nil {
		return fmt.Errorf("failed to insert capacity sample for %s: %w", sample.Frame, err)
	}
	return nil
}

// QueryCapacitySamples returns matching rows newest first, with the total number
// of matching rows ignoring limit and offset.
func (r *Repository) QueryCapacitySamples(ctx context.Context, q CapacityQuery) ([]CapacitySample, int, error) {
	query := `
		SELECT frame, capacity, total, data_redux_ratio, total_redux_ratio, datetime,
			COUNT(*) OVER() AS total_count
		FROM pure_capacity
		WHERE datetime >= $1 AND datetime < $2`
	args := []interface{}{q.Start.Format(TimestampLayout), q.End.Format(TimestampLayout)}
	if q.Frame != "" {
		query += " AND frame = $" + fmt.Sprint(len(args)+1)
		args = append(args, q.Frame)
	}
	query += " ORDER BY datetime DESC, frame"
	if q.Limit > 0 {
		query += " LIMIT $" + fmt.Sprint(len(args)+1)
		args = append(args, q.Limit)
	}
	if q.Offset > 0 {
		query += " OFFSET $" + fmt.Sprint(len(args)+1)
		args = append(args, q.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query pure_capacity: %w", err)
	}
	defer rows.Close()

	var samples []CapacitySample
	total := 0
	for rows.Next() {
		var frame, capacity, totalTB, dataRedux, totalRedux, datetime string
		if err := rows.Scan(&frame, &capacity, &totalTB, &dataRedux, &totalRedux, &datetime, &total); err != nil {
			return nil, 0, fmt.Errorf("failed to scan row: %w", err)
		}
		sample, err := sampleFromRow(frame, capacity, totalTB, dataRedux, totalRedux, datetime)
		if err != nil {
			return nil, 0, err
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return samples, total, nil
}

// PruneBefore deletes samples taken before cutoff and returns the number removed.
func (r *Repository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM pure_capacity WHERE datetime < $1`, cutoff.Format(TimestampLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune pure_capacity: %w", err)
	}
	return tag.RowsAffected(), nil
}
