package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

const memberColumns = `
	id, shift_id, worker_id, role, position, status,
	evening_reminder_sent_at, morning_reminder_sent_at, joined_at
`

func memberDst(m *domain.Membership) []any {
	return []any{
		&m.ID,
		&m.ShiftID,
		&m.WorkerID,
		&m.Role,
		&m.Position,
		&m.Status,
		&m.EveningReminderSentAt,
		&m.MorningReminderSentAt,
		&m.JoinedAt,
	}
}

func (r *Repository) GetMembership(ctx context.Context, shiftID, workerID int64) (*domain.Membership, error) {
	query := `SELECT ` + memberColumns + ` FROM shift_members WHERE shift_id = $1 AND worker_id = $2`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	m := &domain.Membership{}
	if err := r.dbpool.QueryRowContext(ctx, query, shiftID, workerID).Scan(memberDst(m)...); err != nil {
		return nil, translate(err)
	}
	return m, nil
}

func (r *Repository) ListMembers(ctx context.Context, shiftID int64) ([]*domain.RosterEntry, error) {
	query := `
		SELECT
			m.id, m.shift_id, m.worker_id, m.role, m.position, m.status,
			m.evening_reminder_sent_at, m.morning_reminder_sent_at, m.joined_at,
			COALESCE(p.full_name, ''), COALESCE(p.phone, '')
		FROM shift_members m
		LEFT JOIN worker_profiles p ON p.worker_id = m.worker_id
		WHERE m.shift_id = $1
		ORDER BY m.role, m.position, m.id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*domain.RosterEntry{}
	for rows.Next() {
		e := &domain.RosterEntry{}
		dst := append(memberDst(&e.Membership), &e.FullName, &e.Phone)
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *Repository) CountMembers(ctx context.Context, shiftID int64, role domain.MemberRole) (int, error) {
	query := `
		SELECT COUNT(*) FROM shift_members
		WHERE shift_id = $1 AND role = $2 AND status NOT IN ('refused', 'removed')
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	var n int
	if err := r.dbpool.QueryRowContext(ctx, query, shiftID, role).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// nextPosition 必须在锁住班次行的事务中调用。
// 取占用人数和最大位置中较大者加一，新位置不会与仍在名单上的成员重复。
func nextPosition(ctx context.Context, tx *sql.Tx, shiftID int64, role domain.MemberRole) (count int, position int32, err error) {
	query := `
		SELECT COUNT(*), COALESCE(MAX(position), 0) FROM shift_members
		WHERE shift_id = $1 AND role = $2 AND status NOT IN ('refused', 'removed')
	`

	var maxPosition int32
	if err := tx.QueryRowContext(ctx, query, shiftID, role).Scan(&count, &maxPosition); err != nil {
		return 0, 0, err
	}
	return count, max(int32(count), maxPosition) + 1, nil
}

// lockShift 锁住班次行，同一班次的名额检查和补位因此串行执行
func lockShift(ctx context.Context, tx *sql.Tx, shiftID int64) (*domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1 FOR UPDATE`
	shift, err := scanShift(tx.QueryRowContext(ctx, query, shiftID))
	if err != nil {
		return nil, translate(err)
	}
	return shift, nil
}

func (r *Repository) AddMembership(ctx context.Context, m *domain.Membership) error {
	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	shift, err := lockShift(ctx, tx, m.ShiftID)
	if err != nil {
		return err
	}

	count, position, err := nextPosition(ctx, tx, m.ShiftID, m.Role)
	if err != nil {
		return err
	}
	if count >= shift.Capacity(m.Role) {
		return domain.ErrCapacityExceeded
	}

	query := `
		INSERT INTO shift_members (shift_id, worker_id, role, position, status, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, position
	`
	params := []any{m.ShiftID, m.WorkerID, m.Role, position, m.Status, m.JoinedAt}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&m.ID, &m.Position); err != nil {
		return translate(err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) TransitionMembership(ctx context.Context, shiftID, workerID int64, from []domain.MemberStatus, to domain.MemberStatus) (*domain.Membership, error) {
	query := `
		UPDATE shift_members SET status = $3
		WHERE shift_id = $1 AND worker_id = $2 AND status = ANY($4::text[])
		RETURNING ` + memberColumns

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	m := &domain.Membership{}
	err := r.dbpool.QueryRowContext(ctx, query, shiftID, workerID, to, statusStrings(from)).Scan(memberDst(m)...)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// 没有更新任何行：成员不存在，或者状态已被其他路径改变
	if _, err := r.GetMembership(ctx, shiftID, workerID); err != nil {
		return nil, err
	}
	return nil, domain.ErrStaleStatus
}

func (r *Repository) MarkReminderSent(ctx context.Context, shiftID, workerID int64, phase domain.Phase, at time.Time) error {
	column := "evening_reminder_sent_at"
	if phase == domain.PhaseMorning {
		column = "morning_reminder_sent_at"
	}
	query := fmt.Sprintf(`UPDATE shift_members SET %s = $3 WHERE shift_id = $1 AND worker_id = $2`, column)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, shiftID, workerID, at)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) GetMembersPastDeadline(ctx context.Context, shiftID int64, role domain.MemberRole, phase domain.Phase, cutoff time.Time) ([]*domain.Membership, error) {
	column := "evening_reminder_sent_at"
	if phase == domain.PhaseMorning {
		column = "morning_reminder_sent_at"
	}
	query := fmt.Sprintf(`
		SELECT %s FROM shift_members
		WHERE shift_id = $1 AND role = $2 AND status = 'registered'
		AND %s IS NOT NULL AND %s <= $3
		ORDER BY position
	`, memberColumns, column, column)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, shiftID, role, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []*domain.Membership{}
	for rows.Next() {
		m := &domain.Membership{}
		if err := rows.Scan(memberDst(m)...); err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return members, nil
}

func (r *Repository) PromoteNextReserve(ctx context.Context, shiftID int64, morningStamp *time.Time) (*domain.Membership, error) {
	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	shift, err := lockShift(ctx, tx, shiftID)
	if err != nil {
		return nil, err
	}

	count, position, err := nextPosition(ctx, tx, shiftID, domain.RoleMain)
	if err != nil {
		return nil, err
	}
	if count >= int(shift.MainSlots) {
		return nil, nil
	}

	query := `
		SELECT worker_id FROM shift_members
		WHERE shift_id = $1 AND role = 'reserve' AND status IN ('registered', 'confirmed')
		ORDER BY position, id
		LIMIT 1
		FOR UPDATE
	`
	var workerID int64
	if err := tx.QueryRowContext(ctx, query, shiftID).Scan(&workerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	query = `
		UPDATE shift_members
		SET
			role = 'main',
			position = $3,
			status = 'registered',
			evening_reminder_sent_at = NULL,
			morning_reminder_sent_at = $4
		WHERE shift_id = $1 AND worker_id = $2
		RETURNING ` + memberColumns

	m := &domain.Membership{}
	if err := tx.QueryRowContext(ctx, query, shiftID, workerID, position, morningStamp).Scan(memberDst(m)...); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return m, nil
}
