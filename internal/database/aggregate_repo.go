package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/victorivanov/chatsync/internal/models"
)

type aggregateRepo struct {
	pool *pgxpool.Pool
}

func NewAggregateRepository(pool *pgxpool.Pool) AggregateRepository {
	return &aggregateRepo{pool: pool}
}

// MessageCounts returns the non-deleted message total for every channel
// in one pass. Channels with no rows are simply absent from the map.
func (r *aggregateRepo) MessageCounts(ctx context.Context) (map[int64]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT channel_id, COUNT(*)
		 FROM messages
		 WHERE deleted_at IS NULL
		 GROUP BY channel_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCounts(rows)
}

// MembershipCounts returns the eligible following-membership total per
// channel in one pass. Only open, non-deleted channels appear; archived
// and read_only channels are excluded here so their count defaults to 0.
func (r *aggregateRepo) MembershipCounts(ctx context.Context) (map[int64]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.channel_id, COUNT(*)
		 FROM channel_memberships m
		 JOIN users u ON u.id = m.user_id
		 JOIN channels c ON c.id = m.channel_id
		 WHERE m.following
		   AND u.active
		   AND NOT u.staged
		   AND (u.suspended_till IS NULL OR u.suspended_till <= now())
		   AND c.status = $1
		   AND c.deleted_at IS NULL
		 GROUP BY m.channel_id`,
		models.ChannelStatusOpen,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCounts(rows)
}

func (r *aggregateRepo) CountActiveMessages(ctx context.Context, channelID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE channel_id = $1 AND deleted_at IS NULL`,
		channelID,
	).Scan(&count)
	return count, err
}

// CountActiveMemberships short-circuits to 0 for archived and read_only
// channels before touching the database.
func (r *aggregateRepo) CountActiveMemberships(ctx context.Context, channel *models.Channel) (int64, error) {
	if channel.Status != models.ChannelStatusOpen {
		return 0, nil
	}
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM channel_memberships m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.channel_id = $1
		   AND m.following
		   AND u.active
		   AND NOT u.staged
		   AND (u.suspended_till IS NULL OR u.suspended_till <= now())`,
		channel.ID,
	).Scan(&count)
	return count, err
}

func scanCounts(rows pgx.Rows) (map[int64]int64, error) {
	counts := make(map[int64]int64)
	for rows.Next() {
		var channelID, count int64
		if err := rows.Scan(&channelID, &count); err != nil {
			return nil, err
		}
		counts[channelID] = count
	}
	return counts, rows.Err()
}
