package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/victorivanov/chatsync/internal/models"
)

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, active, staged, suspended_till)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		user.ID, user.Username, user.Active, user.Staged, user.SuspendedTill,
	).Scan(&user.CreatedAt)
	return err
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, active, staged, suspended_till, created_at
		 FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Username, &user.Active, &user.Staged, &user.SuspendedTill, &user.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return user, err
}

func (r *userRepo) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET active = $2 WHERE id = $1`, id, active)
	return err
}

func (r *userRepo) SetStaged(ctx context.Context, id int64, staged bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET staged = $2 WHERE id = $1`, id, staged)
	return err
}

func (r *userRepo) SetSuspendedTill(ctx context.Context, id int64, till *time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET suspended_till = $2 WHERE id = $1`, id, till)
	return err
}
