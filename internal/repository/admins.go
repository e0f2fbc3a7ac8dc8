package repository

import (
	"context"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

func (r *Repository) GetAdminByID(ctx context.Context, id int64) (*domain.Admin, error) {
	query := `
		SELECT username, password_hash, full_name, email, created_at, version
		FROM admins WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	admin := &domain.Admin{
		ID: id,
	}

	dst := []any{&admin.Username, &admin.PasswordHash, &admin.FullName, &admin.Email, &admin.CreatedAt, &admin.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, translate(err)
	}

	return admin, nil
}

func (r *Repository) GetAdminByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	query := `
		SELECT id, password_hash, full_name, email, created_at, version
		FROM admins WHERE username = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	admin := &domain.Admin{
		Username: username,
	}

	dst := []any{&admin.ID, &admin.PasswordHash, &admin.FullName, &admin.Email, &admin.CreatedAt, &admin.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, username).Scan(dst...); err != nil {
		return nil, translate(err)
	}

	return admin, nil
}

// GetFirstAdminEmail 返回最早创建的管理员邮箱，管理员通知都发往这里
func (r *Repository) GetFirstAdminEmail(ctx context.Context) (string, error) {
	query := `SELECT email FROM admins ORDER BY id LIMIT 1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	var email string
	if err := r.dbpool.QueryRowContext(ctx, query).Scan(&email); err != nil {
		return "", translate(err)
	}

	return email, nil
}

func (r *Repository) CreateAdmin(ctx context.Context, admin *domain.Admin) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO admins (username, password_hash, full_name, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	args := []any{admin.Username, admin.PasswordHash, admin.FullName, admin.Email}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&admin.ID, &admin.CreatedAt, &admin.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) CheckAdminExists(ctx context.Context, username string) (bool, error) {
	isExists := false

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT EXISTS (SELECT 1 FROM admins WHERE username = $1)
	`

	if err := r.dbpool.QueryRowContext(ctx, query, username).Scan(&isExists); err != nil {
		return false, err
	}

	return isExists, nil
}
