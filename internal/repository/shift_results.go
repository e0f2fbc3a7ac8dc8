package repository

import (
	"context"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

func (r *Repository) SaveShiftResult(ctx context.Context, result *domain.ShiftResult) error {
	query := `
		INSERT INTO shift_results (shift_id, worker_id, worked, decline_reason, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (shift_id, worker_id) DO UPDATE
		SET
			worked = EXCLUDED.worked,
			decline_reason = EXCLUDED.decline_reason,
			updated_at = EXCLUDED.updated_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	params := []any{result.ShiftID, result.WorkerID, result.Worked, result.DeclineReason, result.UpdatedAt}
	if _, err := r.dbpool.ExecContext(ctx, query, params...); err != nil {
		return translate(err)
	}

	return nil
}

func (r *Repository) GetShiftResult(ctx context.Context, shiftID, workerID int64) (*domain.ShiftResult, error) {
	query := `
		SELECT worked, decline_reason, updated_at FROM shift_results
		WHERE shift_id = $1 AND worker_id = $2
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result := &domain.ShiftResult{ShiftID: shiftID, WorkerID: workerID}
	if err := r.dbpool.QueryRowContext(ctx, query, shiftID, workerID).Scan(&result.Worked, &result.DeclineReason, &result.UpdatedAt); err != nil {
		return nil, translate(err)
	}

	return result, nil
}

func (r *Repository) ListShiftResults(ctx context.Context, shiftID int64) ([]*domain.ShiftResult, error) {
	query := `
		SELECT worker_id, worked, decline_reason, updated_at FROM shift_results
		WHERE shift_id = $1
		ORDER BY worker_id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []*domain.ShiftResult{}
	for rows.Next() {
		result := &domain.ShiftResult{ShiftID: shiftID}
		if err := rows.Scan(&result.WorkerID, &result.Worked, &result.DeclineReason, &result.UpdatedAt); err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
