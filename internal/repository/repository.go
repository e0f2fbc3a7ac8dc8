package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/roster"
)

var _ roster.Store = (*Repository)(nil)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

func (r *Repository) txContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
}

// translate 把驱动层错误转换为领域错误
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.ConstraintName {
		case "shift_members_shift_id_worker_id_key":
			return domain.ErrAlreadyRegistered
		case "unblock_requests_one_pending_idx":
			return domain.ErrDuplicateAppeal
		case "workers_handle_key", "workers_email_key":
			return domain.ErrWorkerExists
		case "shift_members_shift_id_fkey", "shift_members_worker_id_fkey",
			"worker_profiles_worker_id_fkey", "unblock_requests_worker_id_fkey",
			"shift_results_shift_id_fkey", "shift_results_worker_id_fkey":
			return domain.ErrNotFound
		}
	}
	return err
}

func statusStrings(statuses []domain.MemberStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
