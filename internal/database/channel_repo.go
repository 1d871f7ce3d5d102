package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/victorivanov/chatsync/internal/models"
)

type channelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepository(pool *pgxpool.Pool) ChannelRepository {
	return &channelRepo{pool: pool}
}

func (r *channelRepo) Create(ctx context.Context, ch *models.Channel) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO channels (id, name, slug, status, messages_count, user_count, allow_channel_wide_mentions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		ch.ID, ch.Name, ch.Slug, ch.Status, ch.MessagesCount, ch.UserCount, ch.AllowChannelWideMentions,
	).Scan(&ch.CreatedAt)
	return mapConstraintError(err)
}

func (r *channelRepo) GetByID(ctx context.Context, id int64) (*models.Channel, error) {
	ch := &models.Channel{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, slug, status, messages_count, user_count, allow_channel_wide_mentions, created_at, deleted_at
		 FROM channels WHERE id = $1`, id,
	).Scan(&ch.ID, &ch.Name, &ch.Slug, &ch.Status, &ch.MessagesCount, &ch.UserCount,
		&ch.AllowChannelWideMentions, &ch.CreatedAt, &ch.DeletedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return ch, err
}

func (r *channelRepo) ListActive(ctx context.Context) ([]models.Channel, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, slug, status, messages_count, user_count, allow_channel_wide_mentions, created_at, deleted_at
		 FROM channels WHERE deleted_at IS NULL
		 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var ch models.Channel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.Slug, &ch.Status, &ch.MessagesCount, &ch.UserCount,
			&ch.AllowChannelWideMentions, &ch.CreatedAt, &ch.DeletedAt); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

func (r *channelRepo) SetStatus(ctx context.Context, id int64, status models.ChannelStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE channels SET status = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, status,
	)
	return err
}

func (r *channelRepo) SetSlug(ctx context.Context, id int64, slug *string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE channels SET slug = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, slug,
	)
	return err
}

func (r *channelRepo) SetAllowChannelWideMentions(ctx context.Context, id int64, allow *bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE channels SET allow_channel_wide_mentions = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, allow,
	)
	return mapConstraintError(err)
}

// UpdateCounts writes both counters only when at least one diverges, in a
// single statement. Concurrent reconciliation runs race here: the loser
// matches zero rows and must not report a delta.
func (r *channelRepo) UpdateCounts(ctx context.Context, id, messagesCount, userCount int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE channels
		 SET messages_count = $2, user_count = $3
		 WHERE id = $1
		   AND deleted_at IS NULL
		   AND (messages_count <> $2 OR user_count <> $3)`,
		id, messagesCount, userCount,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *channelRepo) Trash(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE channels SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	return err
}
