package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/victorivanov/chatsync/internal/models"
)

type membershipRepo struct {
	pool *pgxpool.Pool
}

func NewMembershipRepository(pool *pgxpool.Pool) MembershipRepository {
	return &membershipRepo{pool: pool}
}

func (r *membershipRepo) Upsert(ctx context.Context, m *models.Membership) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO channel_memberships (user_id, channel_id, following)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, channel_id) DO UPDATE SET following = EXCLUDED.following
		 RETURNING created_at`,
		m.UserID, m.ChannelID, m.Following,
	).Scan(&m.CreatedAt)
	return err
}

func (r *membershipRepo) Get(ctx context.Context, userID, channelID int64) (*models.Membership, error) {
	m := &models.Membership{}
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, channel_id, following, created_at
		 FROM channel_memberships WHERE user_id = $1 AND channel_id = $2`,
		userID, channelID,
	).Scan(&m.UserID, &m.ChannelID, &m.Following, &m.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (r *membershipRepo) GetByChannelID(ctx context.Context, channelID int64) ([]models.Membership, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, channel_id, following, created_at
		 FROM channel_memberships WHERE channel_id = $1
		 ORDER BY user_id`,
		channelID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []models.Membership
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.UserID, &m.ChannelID, &m.Following, &m.CreatedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}
