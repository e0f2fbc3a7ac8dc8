package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

const unblockColumns = `id, worker_id, city, message, status, created_at, resolved_at`

func unblockDst(req *domain.UnblockRequest) []any {
	return []any{
		&req.ID,
		&req.WorkerID,
		&req.City,
		&req.Message,
		&req.Status,
		&req.CreatedAt,
		&req.ResolvedAt,
	}
}

func (r *Repository) CreateUnblockRequest(ctx context.Context, req *domain.UnblockRequest) error {
	query := `
		INSERT INTO unblock_requests (worker_id, city, message, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	params := []any{req.WorkerID, req.City, req.Message, req.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&req.ID, &req.Status); err != nil {
		return translate(err)
	}

	return nil
}

func (r *Repository) GetUnblockRequest(ctx context.Context, id int64) (*domain.UnblockRequest, error) {
	query := `SELECT ` + unblockColumns + ` FROM unblock_requests WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	req := &domain.UnblockRequest{}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(unblockDst(req)...); err != nil {
		return nil, translate(err)
	}

	return req, nil
}

func (r *Repository) ListPendingUnblockRequests(ctx context.Context) ([]*domain.UnblockRequestView, error) {
	query := `
		SELECT
			u.id, u.worker_id, u.city, u.message, u.status, u.created_at, u.resolved_at,
			COALESCE(p.full_name, ''),
			COALESCE(p.phone, ''),
			COALESCE(p.refused_shifts, 0),
			COALESCE(p.ignored_shifts, 0),
			COALESCE(p.consecutive_failures, 0)
		FROM unblock_requests u
		LEFT JOIN worker_profiles p ON p.worker_id = u.worker_id
		WHERE u.status = 'pending'
		ORDER BY u.created_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := []*domain.UnblockRequestView{}
	for rows.Next() {
		v := &domain.UnblockRequestView{}
		dst := append(unblockDst(&v.UnblockRequest), &v.FullName, &v.Phone, &v.RefusedShifts, &v.IgnoredShifts, &v.ConsecutiveFailures)
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		views = append(views, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return views, nil
}

func (r *Repository) ResolveUnblockRequest(ctx context.Context, id int64, status domain.UnblockStatus) (*domain.UnblockRequest, error) {
	query := `
		UPDATE unblock_requests SET status = $2, resolved_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + unblockColumns

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	req := &domain.UnblockRequest{}
	err := r.dbpool.QueryRowContext(ctx, query, id, status).Scan(unblockDst(req)...)
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if _, err := r.GetUnblockRequest(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrInvalidTransition
}
