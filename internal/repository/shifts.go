package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

const shiftColumns = `
	id, city, date, address, payment, conditions, main_slots, reserve_slots,
	evening_reminder_time, morning_reminder_time, status, created_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (*domain.Shift, error) {
	shift := &domain.Shift{}
	dst := []any{
		&shift.ID,
		&shift.City,
		&shift.Date,
		&shift.Address,
		&shift.Payment,
		&shift.Conditions,
		&shift.MainSlots,
		&shift.ReserveSlots,
		&shift.EveningReminderTime,
		&shift.MorningReminderTime,
		&shift.Status,
		&shift.CreatedAt,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return shift, nil
}

func (r *Repository) CreateShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		INSERT INTO shifts (
			city,
			date,
			address,
			payment,
			conditions,
			main_slots,
			reserve_slots,
			evening_reminder_time,
			morning_reminder_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, status, created_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	params := []any{
		shift.City,
		shift.Date,
		shift.Address,
		shift.Payment,
		shift.Conditions,
		shift.MainSlots,
		shift.ReserveSlots,
		shift.EveningReminderTime,
		shift.MorningReminderTime,
	}
	dst := []any{&shift.ID, &shift.Status, &shift.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetShift(ctx context.Context, id int64) (*domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	shift, err := scanShift(r.dbpool.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return shift, nil
}

func (r *Repository) GetActiveShiftByCity(ctx context.Context, city string) (*domain.Shift, error) {
	query := `
		SELECT ` + shiftColumns + ` FROM shifts
		WHERE city = $1 AND status = 'active'
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	shift, err := scanShift(r.dbpool.QueryRowContext(ctx, query, city))
	if err != nil {
		return nil, translate(err)
	}
	return shift, nil
}

func (r *Repository) ListActiveShifts(ctx context.Context) ([]*domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE status = 'active' ORDER BY id`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := []*domain.Shift{}
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

func (r *Repository) CompleteShift(ctx context.Context, id int64) error {
	query := `
		UPDATE shifts SET status = 'completed'
		WHERE id = $1 AND status = 'active'
		RETURNING id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	var updated int64
	err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&updated)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	// 区分班次不存在和班次已经结束
	if _, err := r.GetShift(ctx, id); err != nil {
		return err
	}
	return domain.ErrShiftNotActive
}
