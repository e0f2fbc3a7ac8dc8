package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

func TestTranslate(t *testing.T) {
	other := errors.New("connection reset")

	cases := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, domain.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), domain.ErrNotFound},
		{"duplicate membership", &pgconn.PgError{Code: "23505", ConstraintName: "shift_members_shift_id_worker_id_key"}, domain.ErrAlreadyRegistered},
		{"second pending appeal", &pgconn.PgError{Code: "23505", ConstraintName: "unblock_requests_one_pending_idx"}, domain.ErrDuplicateAppeal},
		{"duplicate handle", &pgconn.PgError{Code: "23505", ConstraintName: "workers_handle_key"}, domain.ErrWorkerExists},
		{"missing worker", &pgconn.PgError{Code: "23503", ConstraintName: "shift_members_worker_id_fkey"}, domain.ErrNotFound},
		{"unknown constraint", &pgconn.PgError{Code: "23514", ConstraintName: "shifts_main_slots_check"}, nil},
		{"other", other, other},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translate(tc.err)
			switch {
			case tc.err == nil:
				assert.NoError(t, got)
			case tc.want == nil:
				assert.Same(t, tc.err, got)
			default:
				assert.ErrorIs(t, got, tc.want)
			}
		})
	}
}

func TestStatusStrings(t *testing.T) {
	got := statusStrings([]domain.MemberStatus{domain.StatusRegistered, domain.StatusConfirmed})
	assert.Equal(t, []string{"registered", "confirmed"}, got)
}
