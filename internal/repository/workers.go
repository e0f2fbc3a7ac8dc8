package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

const profileColumns = `
	worker_id, city, full_name, phone, age, rating,
	total_shifts, confirmed_shifts, refused_shifts, ignored_shifts,
	consecutive_failures, is_active
`

func profileDst(p *domain.WorkerProfile) []any {
	return []any{
		&p.WorkerID,
		&p.City,
		&p.FullName,
		&p.Phone,
		&p.Age,
		&p.Rating,
		&p.TotalShifts,
		&p.ConfirmedShifts,
		&p.RefusedShifts,
		&p.IgnoredShifts,
		&p.ConsecutiveFailures,
		&p.IsActive,
	}
}

func (r *Repository) CreateWorker(ctx context.Context, worker *domain.Worker) error {
	query := `
		INSERT INTO workers (handle, email, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, registered_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, worker.Handle, worker.Email, worker.IsActive).Scan(&worker.ID, &worker.RegisteredAt); err != nil {
		return translate(err)
	}

	return nil
}

func (r *Repository) GetWorker(ctx context.Context, id int64) (*domain.Worker, error) {
	query := `SELECT handle, email, is_active, registered_at FROM workers WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	worker := &domain.Worker{ID: id}
	dst := []any{&worker.Handle, &worker.Email, &worker.IsActive, &worker.RegisteredAt}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, translate(err)
	}

	return worker, nil
}

func (r *Repository) GetProfile(ctx context.Context, workerID int64) (*domain.WorkerProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM worker_profiles WHERE worker_id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	p := &domain.WorkerProfile{}
	if err := r.dbpool.QueryRowContext(ctx, query, workerID).Scan(profileDst(p)...); err != nil {
		return nil, translate(err)
	}

	return p, nil
}

// UpsertProfile 新资料的启用状态跟随账号
func (r *Repository) UpsertProfile(ctx context.Context, profile *domain.WorkerProfile) error {
	query := `
		INSERT INTO worker_profiles (worker_id, city, full_name, phone, age, is_active)
		SELECT w.id, $2, $3, $4, $5, w.is_active FROM workers w WHERE w.id = $1
		ON CONFLICT (worker_id) DO UPDATE
		SET
			city = EXCLUDED.city,
			full_name = EXCLUDED.full_name,
			phone = EXCLUDED.phone,
			age = EXCLUDED.age
		RETURNING ` + profileColumns

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	params := []any{profile.WorkerID, profile.City, profile.FullName, profile.Phone, profile.Age}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(profileDst(profile)...); err != nil {
		return translate(err)
	}

	return nil
}

func (r *Repository) ListActiveProfilesByCity(ctx context.Context, city string) ([]*domain.WorkerProfile, error) {
	query := `
		SELECT ` + profileColumns + ` FROM worker_profiles
		WHERE city = $1 AND is_active
		ORDER BY worker_id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, city)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []*domain.WorkerProfile{}
	for rows.Next() {
		p := &domain.WorkerProfile{}
		if err := rows.Scan(profileDst(p)...); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

func (r *Repository) IncrementStat(ctx context.Context, workerID int64, stat domain.WorkerStat) error {
	return r.adjustStat(ctx, workerID, stat, `%[1]s = %[1]s + 1`)
}

func (r *Repository) DecrementStat(ctx context.Context, workerID int64, stat domain.WorkerStat) error {
	return r.adjustStat(ctx, workerID, stat, `%[1]s = GREATEST(%[1]s - 1, 0)`)
}

// adjustStat 只接受白名单中的统计字段
func (r *Repository) adjustStat(ctx context.Context, workerID int64, stat domain.WorkerStat, set string) error {
	switch stat {
	case domain.StatTotalShifts, domain.StatConfirmedShifts, domain.StatRefusedShifts, domain.StatIgnoredShifts:
	default:
		return fmt.Errorf("未知的统计字段: %s", stat)
	}
	query := `UPDATE worker_profiles SET ` + fmt.Sprintf(set, stat) + ` WHERE worker_id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, workerID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) IncrementFailures(ctx context.Context, workerID int64) (int, error) {
	query := `
		UPDATE worker_profiles SET consecutive_failures = consecutive_failures + 1
		WHERE worker_id = $1
		RETURNING consecutive_failures
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	var failures int
	if err := r.dbpool.QueryRowContext(ctx, query, workerID).Scan(&failures); err != nil {
		return 0, translate(err)
	}
	return failures, nil
}

func (r *Repository) ResetFailures(ctx context.Context, workerID int64) error {
	query := `UPDATE worker_profiles SET consecutive_failures = 0 WHERE worker_id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, workerID); err != nil {
		return err
	}
	return nil
}

func (r *Repository) BlockWorker(ctx context.Context, workerID int64) (bool, error) {
	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 只有资料仍处于启用状态时才算一次新的停用
	query := `UPDATE worker_profiles SET is_active = FALSE WHERE worker_id = $1 AND is_active RETURNING worker_id`
	var id int64
	if err := tx.QueryRowContext(ctx, query, workerID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE workers SET is_active = FALSE WHERE id = $1`, workerID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	return true, nil
}

func (r *Repository) UnblockWorker(ctx context.Context, workerID int64) error {
	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `UPDATE workers SET is_active = TRUE WHERE id = $1`, workerID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}

	query := `UPDATE worker_profiles SET is_active = TRUE, consecutive_failures = 0 WHERE worker_id = $1`
	if _, err := tx.ExecContext(ctx, query, workerID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}
