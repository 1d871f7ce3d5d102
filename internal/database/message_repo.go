package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/victorivanov/chatsync/internal/models"
)

type messageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepo{pool: pool}
}

func (r *messageRepo) Create(ctx context.Context, msg *models.Message) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO messages (id, channel_id, user_id, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		msg.ID, msg.ChannelID, msg.UserID, msg.Content,
	).Scan(&msg.CreatedAt)
	return err
}

func (r *messageRepo) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	msg := &models.Message{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, channel_id, user_id, content, created_at, deleted_at
		 FROM messages WHERE id = $1`, id,
	).Scan(&msg.ID, &msg.ChannelID, &msg.UserID, &msg.Content, &msg.CreatedAt, &msg.DeletedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return msg, err
}

func (r *messageRepo) GetByChannelID(ctx context.Context, channelID int64, limit int) ([]models.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, channel_id, user_id, content, created_at, deleted_at
		 FROM messages
		 WHERE channel_id = $1 AND deleted_at IS NULL
		 ORDER BY id DESC LIMIT $2`,
		channelID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.ChannelID, &msg.UserID, &msg.Content, &msg.CreatedAt, &msg.DeletedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *messageRepo) Trash(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	return err
}
